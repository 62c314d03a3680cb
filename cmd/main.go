/**
 * @description
 * This is the main entry point for the membership-service.
 * It initializes and wires together all the components of the application:
 * configuration, the optional database pool and event producer, the Stripe
 * and CMS clients, the subscriber session store, the service layer, and the
 * HTTP router. Finally, it starts the HTTP server to listen for incoming
 * requests and shuts it down gracefully on SIGINT/SIGTERM.
 *
 * Integrations degrade instead of crashing: with no Stripe keys the billing
 * routes answer 503, with no Drupal credentials the content routes answer
 * 503, and with DEMO_MODE=true the service runs fully self-contained on
 * sample content and simulated checkout.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theinsider/membership-service/internal/api"
	"github.com/theinsider/membership-service/internal/app"
	"github.com/theinsider/membership-service/internal/config"
	"github.com/theinsider/membership-service/internal/content"
	"github.com/theinsider/membership-service/internal/session"
	"github.com/theinsider/membership-service/internal/store"
	"github.com/theinsider/membership-service/pkg/cmsclient"
	"github.com/theinsider/membership-service/pkg/rabbitmq"
	"github.com/theinsider/membership-service/pkg/stripeclient"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load application configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up channel to listen for OS signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Optional database: entitlement transitions observed via webhooks are
	// persisted when a database is configured.
	var repo app.Repository
	if cfg.DatabaseURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("unable to connect to database", "error", err)
			os.Exit(1)
		}
		defer dbpool.Close()
		repo = store.NewRepository(dbpool)
		logger.Info("database connection established")
	}

	// Optional message broker for entitlement events.
	var events app.EventPublisher
	if cfg.AMQPURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.AMQPURL)
		if err != nil {
			logger.Error("unable to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		events = producer
		logger.Info("rabbitmq connection established")
	}

	// Stripe client, only when the integration is fully configured.
	var stripe app.StripeAPI
	if cfg.StripeConfigured() {
		stripe = stripeclient.NewClient(cfg.StripeSecretKey)
	} else if !cfg.DemoMode {
		logger.Warn("stripe is not configured; checkout, portal, and verification routes will answer 503")
	}

	// Content source: demo sample set, or the Drupal CMS when configured.
	var source content.Source
	var proxy content.Querier
	var demo *content.DemoSource
	switch {
	case cfg.DemoMode:
		demo = content.NewDemoSource()
		source = demo
		logger.Info("demo mode enabled; serving sample content and simulated checkout")
	case cfg.DrupalConfigured():
		cms := cmsclient.NewClient(cfg.DrupalBaseURL, cfg.DrupalClientID, cfg.DrupalClientSecret)
		source = content.NewCMSSource(cms)
		proxy = cms
	default:
		logger.Warn("drupal is not configured; content routes will answer 503")
	}

	// Initialize application layers
	sessions := session.NewStore(cfg.SessionSecret, cfg.IsProduction())
	service := app.NewService(logger, stripe, repo, events, cfg)
	handler := api.NewHandler(logger, service, sessions, source, proxy, demo, cfg.StripeWebhookSecret)
	router := api.NewRouter(handler)

	// Configure and start the HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for an OS signal
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
