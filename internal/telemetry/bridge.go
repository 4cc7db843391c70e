// Package telemetry relays resource positions published by vehicle trackers
// over MQTT into the realtime hub.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gofrs/uuid/v5"
	"github.com/readyresponse/dispatch/internal/config"
	"github.com/readyresponse/dispatch/internal/types"
)

const (
	connectAttempts = 5
	connectTimeout  = 5 * time.Second
	disconnectQuiet = 250
)

// Relay receives validated location updates.
type Relay interface {
	RelayLocation(update types.LocationUpdate) error
}

type Bridge struct {
	cfg    config.MQTTConfig
	relay  Relay
	client mqtt.Client
}

// NewBridge returns nil when no broker is configured.
func NewBridge(cfg config.MQTTConfig, relay Relay) *Bridge {
	if cfg.BrokerURL == "" {
		return nil
	}

	b := &Bridge{cfg: cfg, relay: relay}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(clientID(cfg.ClientID))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[MQTT] connection lost: %v", err)
	})

	// Subscriptions do not survive a clean-session reconnect.
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("[MQTT] connected to %s", cfg.BrokerURL)
		if err := b.subscribe(client); err != nil {
			log.Printf("[MQTT] %v", err)
		}
	})

	b.client = mqtt.NewClient(opts)
	return b
}

func clientID(prefix string) string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s", prefix, id.String()[:8])
}

// Start connects with exponential backoff.
func (b *Bridge) Start() error {
	var err error

	for i := 0; i < connectAttempts; i++ {
		token := b.client.Connect()
		if token.WaitTimeout(connectTimeout) && token.Error() == nil {
			return nil
		}

		err = token.Error()
		if err == nil {
			err = errors.New("connect timed out")
		}

		backoff := time.Duration(1<<uint(i)) * time.Second
		log.Printf("[MQTT] connect attempt %d/%d failed: %v, retrying in %v", i+1, connectAttempts, err, backoff)
		time.Sleep(backoff)
	}

	return fmt.Errorf("mqtt connect failed after %d attempts: %w", connectAttempts, err)
}

func (b *Bridge) Stop() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(disconnectQuiet)
	}
}

func (b *Bridge) subscribe(client mqtt.Client) error {
	token := client.Subscribe(b.cfg.LocationTopic, b.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		if err := b.HandleMessage(msg.Topic(), msg.Payload()); err != nil {
			log.Printf("[MQTT] dropped message on %s: %v", msg.Topic(), err)
		}
	})

	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", b.cfg.LocationTopic, token.Error())
	}

	log.Printf("[MQTT] subscribed to %s", b.cfg.LocationTopic)
	return nil
}

// HandleMessage decodes one tracker payload and relays it. When the
// subscription pattern has a single-level wildcard, the matching topic
// segment is the resource id.
func (b *Bridge) HandleMessage(topic string, payload []byte) error {
	var update types.LocationUpdate

	if err := json.Unmarshal(payload, &update); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	topicID, ok, err := resourceIDFromTopic(b.cfg.LocationTopic, topic)
	if err != nil {
		return err
	}

	if ok {
		if update.ResourceID != 0 && update.ResourceID != topicID {
			return fmt.Errorf("payload resource %d does not match topic resource %d", update.ResourceID, topicID)
		}
		update.ResourceID = topicID
	}

	return b.relay.RelayLocation(update)
}

func resourceIDFromTopic(pattern, topic string) (uint, bool, error) {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range patternParts {
		if part != "+" {
			continue
		}
		if i >= len(topicParts) {
			return 0, false, fmt.Errorf("topic %q does not match %q", topic, pattern)
		}

		id, err := strconv.ParseUint(topicParts[i], 10, 64)
		if err != nil || id == 0 {
			return 0, false, fmt.Errorf("invalid resource id %q in topic", topicParts[i])
		}
		return uint(id), true, nil
	}

	return 0, false, nil
}
