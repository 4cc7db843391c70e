package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/readyresponse/dispatch/db"
	"github.com/readyresponse/dispatch/internal/auth"
	"github.com/readyresponse/dispatch/internal/config"
	"github.com/readyresponse/dispatch/internal/handlers"
	"github.com/readyresponse/dispatch/internal/postcommit"
	"github.com/readyresponse/dispatch/internal/rbac"
	"github.com/readyresponse/dispatch/internal/realtime"
	"github.com/readyresponse/dispatch/internal/router"
	"github.com/readyresponse/dispatch/internal/services"
	"github.com/readyresponse/dispatch/internal/telemetry"
)

func main() {
	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err = cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err = auth.InitJWTSecret(cfg.JWTSecret); err != nil {
		log.Fatal(err)
	}

	conn, err := db.ConnectDatabase(cfg.DatabaseURL)

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db.DB = conn

	if err = db.MigrateDatabase(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	policy, err := rbac.NewPolicy()

	if err != nil {
		log.Fatalf("Failed to build access policy: %v", err)
	}

	hub := realtime.NewHub(cfg.Realtime.SendBuffer)
	hub.UsePolicy(policy)

	effects := postcommit.NewQueue(cfg.Realtime.PostCommitQueueSize)
	effects.Start()

	// Webhook calls get their own worker so slow endpoints never delay realtime events.
	outbound := postcommit.NewQueue(cfg.Webhooks.QueueSize)
	outbound.Start()

	webhooks := services.NewWebhookNotifier(cfg.Webhooks.DiscordURL, cfg.Webhooks.SlackURL, cfg.Webhooks.Timeout)

	svc := services.New(services.Deps{
		DB:        conn,
		Publisher: hub,
		Effects:   effects,
		Outbound:  outbound,
		Policy:    policy,
		Webhooks:  webhooks,
	})

	origins := cfg.Origins()
	h := handlers.NewHandler(svc, hub, conn, origins)
	r := router.NewRouter(h, conn, origins)

	bridge := telemetry.NewBridge(cfg.MQTT, hub)

	if bridge != nil {
		if err = bridge.Start(); err != nil {
			log.Printf("Location telemetry disabled: %v", err)
			bridge = nil
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Dispatch listening on :%s (%s)", cfg.Port, cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}

	if bridge != nil {
		bridge.Stop()
	}

	// Drain after the listener closes so no request can enqueue into a stopped queue.
	effects.Stop()
	outbound.Stop()
}
