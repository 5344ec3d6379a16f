// Package main contains the entrypoint for the chatscope API server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/edgard/chatscope/internal/analysis"
	"github.com/edgard/chatscope/internal/api"
	"github.com/edgard/chatscope/internal/app"
	"github.com/edgard/chatscope/internal/app/tasks"
	"github.com/edgard/chatscope/internal/config"
	"github.com/edgard/chatscope/internal/database"
	"github.com/edgard/chatscope/internal/llm"
	"github.com/edgard/chatscope/internal/logger"
	"github.com/edgard/chatscope/internal/services"
	"github.com/edgard/chatscope/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// blob storage, llm client, services, http server, scheduler), handles
// graceful shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	envPath := flag.String("env", ".env", "Path to an optional .env file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		slog.Debug("No .env file loaded, continuing with existing environment", "path", *envPath, "error", err)
	} else {
		slog.Info("Loaded environment", "path", *envPath)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	if logger.ParseLevel(cfg.Logger.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	blobs, err := storage.NewOSStore(cfg.Storage.Dir, log)
	if err != nil {
		log.Error("Failed to initialize blob storage", "dir", cfg.Storage.Dir, "error", err)
		return 1
	}

	llmClient, err := llm.New(ctx, cfg.LLM, log)
	if err != nil {
		log.Error("Failed to initialize LLM client", "backend", cfg.LLM.Backend, "error", err)
		return 1
	}

	analyzer, err := analysis.NewAnalyzer(llmClient, cfg, log)
	if err != nil {
		log.Error("Failed to initialize analyzer", "error", err)
		return 1
	}

	chatLogs := services.NewChatLogService(store, blobs, analyzer, cfg, log)
	analyses := services.NewAnalysisService(store, chatLogs, analyzer, log)
	server := api.NewServer(&cfg.HTTP, chatLogs, analyses, store, log)

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		ChatLogs: chatLogs,
		Config:   cfg,
	}
	sched, err := app.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	application := app.NewApp(log, cfg, server, chatLogs, sched)

	log.Info("Starting chatscope...", "addr", cfg.HTTP.Addr, "llm_backend", cfg.LLM.Backend, "model", cfg.LLM.Model)
	runErr := application.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("chatscope stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("chatscope stopped gracefully.")
	return 0
}
