// LuminaSAR - Explainable SAR narrative generation with tamper-evident audit trails.
// Copyright (c) 2025 LuminaSAR
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yash-7575/luminasar/internal/api"
	"github.com/yash-7575/luminasar/internal/bus"
	"github.com/yash-7575/luminasar/internal/cache"
	"github.com/yash-7575/luminasar/internal/detector"
	"github.com/yash-7575/luminasar/internal/domain"
	"github.com/yash-7575/luminasar/internal/knowledge"
	"github.com/yash-7575/luminasar/internal/narrative"
	"github.com/yash-7575/luminasar/internal/repository"
	"github.com/yash-7575/luminasar/internal/rules"
	"github.com/yash-7575/luminasar/internal/worker"
	"github.com/yash-7575/luminasar/internal/workflow"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("LUMINASAR_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting luminasar",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("LUMINASAR_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"jurisdiction", cfg.Jurisdiction,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Pattern Detector
	det := detector.New(detector.DefaultConfig())
	slog.Info("pattern detector initialized")

	// Initialize Knowledge Service (advisory registry + transaction graph)
	knowledgeSvc := knowledge.NewService()
	slog.Info("knowledge service initialized")

	// Initialize Screening Engine with builtin advisory rules
	screening, err := rules.NewEngine()
	if err != nil {
		slog.Error("failed to initialize screening engine", "error", err)
		os.Exit(1)
	}
	defer screening.Close()
	if err := screening.LoadRules(rules.BuiltinRules()); err != nil {
		slog.Error("failed to load screening rules", "error", err)
		os.Exit(1)
	}
	slog.Info("screening engine initialized", "rules_count", screening.RulesCount())

	// Initialize Narrative collaborators
	generator := narrative.NewOllamaClient(cfg.Generator)
	validator := narrative.NewValidator()
	templates := narrative.NewCachedTemplateStore(narrative.NewStaticTemplateStore(), cacheImpl)
	slog.Info("narrative collaborators initialized",
		"generator_host", cfg.Generator.Host,
		"model", cfg.Generator.Model,
	)

	// Initialize Workflow Orchestrator
	orchestrator := workflow.New(workflow.Options{
		Repository:          repo,
		Detector:            det,
		Knowledge:           knowledgeSvc,
		Screening:           screening,
		Generator:           generator,
		Validator:           validator,
		Templates:           templates,
		DefaultJurisdiction: cfg.Jurisdiction,
		DeploymentEnv:       cfg.DeploymentEnv,
		GeneratorModel:      cfg.Generator.Model,
	})
	slog.Info("workflow orchestrator initialized")

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("LUMINASAR_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, orchestrator)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started")
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg, repo, cacheImpl, busImpl, orchestrator, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("luminasar is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("luminasar shutdown complete")
}

// applyEnvOverrides maps LUMINASAR_* environment variables onto the config.
func applyEnvOverrides(cfg *domain.Config) {
	if v := os.Getenv("LUMINASAR_JURISDICTION"); v != "" {
		cfg.Jurisdiction = strings.ToUpper(v)
	}
	if v := os.Getenv("LUMINASAR_DEPLOYMENT_ENV"); v != "" {
		cfg.DeploymentEnv = v
	}
	if v := os.Getenv("LUMINASAR_SQLITE_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if v := os.Getenv("LUMINASAR_POSTGRES_HOST"); v != "" {
		cfg.Repository.PostgresHost = v
	}
	if v := os.Getenv("LUMINASAR_POSTGRES_USER"); v != "" {
		cfg.Repository.PostgresUser = v
	}
	if v := os.Getenv("LUMINASAR_POSTGRES_PASSWORD"); v != "" {
		cfg.Repository.PostgresPassword = v
	}
	if v := os.Getenv("LUMINASAR_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("LUMINASAR_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}
	if v := os.Getenv("LUMINASAR_OLLAMA_HOST"); v != "" {
		cfg.Generator.Host = v
	}
	if v := os.Getenv("LUMINASAR_OLLAMA_MODEL"); v != "" {
		cfg.Generator.Model = v
	}
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ==============================================")
	fmt.Println("                 LuminaSAR")
	fmt.Println("     Explainable SAR narrative generation")
	fmt.Println("     Every sentence traceable to source.")
	fmt.Println("  ==============================================")
	fmt.Println()
	fmt.Printf("  Version:       %s\n", version)
	fmt.Printf("  Tier:          %s\n", cfg.Tier)
	fmt.Printf("  Jurisdiction:  %s\n", cfg.Jurisdiction)
	fmt.Printf("  Server:        http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /sar/generate      - Generate a SAR narrative")
	fmt.Println("    GET  /sar/{id}          - Get narrative by ID")
	fmt.Println("    GET  /sar/{id}/audit    - Get hash-chained audit trail")
	fmt.Println("    POST /sar/{id}/approve  - Approve a narrative for filing")
	fmt.Println("    GET  /cases             - List recent cases")
	fmt.Println("    GET  /stats/overview    - Dashboard statistics")
	fmt.Println("    GET  /config            - Deployment configuration")
	fmt.Println("    GET  /health            - Health check")
	fmt.Println()
}
