package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"

	"github.com/team1306/purchase-tracker/internal/client"
	"github.com/team1306/purchase-tracker/internal/config"
	"github.com/team1306/purchase-tracker/internal/handler"
	"github.com/team1306/purchase-tracker/internal/logger"
	"github.com/team1306/purchase-tracker/internal/repository"
	"github.com/team1306/purchase-tracker/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting purchase tracker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the spreadsheet client
	sheetsSvc, err := repository.NewSheetsService(ctx, cfg.Sheets.CredentialsPath, cfg.Sheets.TokenPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Sheets client")
	}
	log.Info().Str("spreadsheet_id", cfg.Sheets.SpreadsheetID).Msg("Sheets client initialized")

	// Initialize repositories
	requestRepo := repository.NewRequestRepository(sheetsSvc, cfg.Sheets.SpreadsheetID, cfg.Sheets.RequestsTab)
	rosterRepo := repository.NewRosterRepository(sheetsSvc, cfg.Sheets.SpreadsheetID, cfg.Sheets.RosterTab)
	auditRepo := repository.NewAuditRepository(sheetsSvc, cfg.Sheets.SpreadsheetID, cfg.Sheets.AuditTab)

	// Initialize the chat collaborator
	var resolver client.Resolver
	if cfg.Slack.Token != "" {
		resolver = client.NewIdentityResolver(slack.New(cfg.Slack.Token), cfg.Slack.MatchThreshold, log)
		log.Info().Str("channel", cfg.Slack.ChannelID).Msg("Slack notifications enabled")
	} else {
		log.Info().Msg("Slack notifications disabled")
	}
	notifier := client.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, resolver, log)

	// Initialize services
	rosterCache := service.NewRosterCache(rosterRepo, cfg.Roster.TTL, log)
	approvalService := service.NewApprovalService(rosterCache, log)
	requestService := service.NewRequestService(requestRepo, auditRepo, rosterCache, notifier, log)

	// Setup HTTP routes
	if cfg.Service.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User-Name"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	httpHandler := handler.NewHTTPHandler(requestService, approvalService, rosterCache, log)
	httpHandler.Register(router)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
