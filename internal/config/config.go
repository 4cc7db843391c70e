package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env            string        `yaml:"env" env:"APP_ENV" env-default:"development"`
	Port           string        `yaml:"port" env:"PORT" env-default:"5000"`
	DatabaseURL    string        `yaml:"database_url" env:"DATABASE_URL"`
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL       time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"6h"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:8080,http://localhost:5173"`
	ClientURL      string        `yaml:"client_url" env:"CLIENT_URL"`

	Realtime RealtimeConfig `yaml:"realtime"`
	Webhooks WebhookConfig  `yaml:"webhooks"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

type RealtimeConfig struct {
	SendBuffer          int `yaml:"send_buffer" env:"WS_SEND_BUFFER" env-default:"64"`
	PostCommitQueueSize int `yaml:"postcommit_queue_size" env:"POSTCOMMIT_QUEUE_SIZE" env-default:"256"`
}

type WebhookConfig struct {
	DiscordURL string        `yaml:"discord_url" env:"DISCORD_WEBHOOK_URL"`
	SlackURL   string        `yaml:"slack_url" env:"SLACK_WEBHOOK_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"WEBHOOK_TIMEOUT" env-default:"5s"`
	QueueSize  int           `yaml:"queue_size" env:"WEBHOOK_QUEUE_SIZE" env-default:"64"`
}

type MQTTConfig struct {
	BrokerURL     string `yaml:"broker_url" env:"MQTT_BROKER_URL"`
	ClientID      string `yaml:"client_id" env:"MQTT_CLIENT_ID" env-default:"dispatch-telemetry"`
	Username      string `yaml:"username" env:"MQTT_USERNAME"`
	Password      string `yaml:"password" env:"MQTT_PASSWORD"`
	LocationTopic string `yaml:"location_topic" env:"MQTT_LOCATION_TOPIC" env-default:"dispatch/resources/+/location"`
	QoS           byte   `yaml:"qos" env:"MQTT_QOS" env-default:"0"`
}

func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

// Origins returns the allowed browser origins, including CLIENT_URL.
func (c *Config) Origins() []string {
	origins := make([]string, 0, len(c.AllowedOrigins)+1)
	origins = append(origins, c.AllowedOrigins...)
	if c.ClientURL != "" {
		origins = append(origins, c.ClientURL)
	}
	return origins
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}
	return nil
}

// Load reads .env (if present), then the YAML file named by CONFIG_PATH (if
// set), then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	var cfg Config
	var err error

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}

	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
