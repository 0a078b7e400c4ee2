package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"equityDayBot/config"
	"equityDayBot/internal/adapters/httpapi"
	"equityDayBot/internal/adapters/logger"
	"equityDayBot/internal/app"
	"equityDayBot/internal/bootstrap"
	"equityDayBot/internal/scheduler"
)

// exitWithFailure prints err in the run failure shape and exits 1.
func exitWithFailure(err error) {
	if encErr := json.NewEncoder(os.Stdout).Encode(app.FailedResult(uuid.NewString(), time.Now().UTC(), err)); encErr != nil {
		log.Printf("ERROR: %v", err)
	}
	os.Exit(1)
}

func main() {
	runOnStart := flag.Bool("run-on-start", false, "Perform one run immediately after startup")
	noSchedule := flag.Bool("no-schedule", false, "Serve the HTTP API only")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		exitWithFailure(fmt.Errorf("load configuration: %w", err))
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := bootstrap.Build(cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trading service")
		stop()
		exitWithFailure(err)
	}
	defer func() {
		if err := bot.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing resources")
		}
	}()

	var sched *scheduler.Scheduler
	if !*noSchedule {
		sched, err = scheduler.New(ctx, bot.Service, cfg.ScheduleCron, cfg.ScheduleLocation, appLogger.Named("scheduler"))
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to configure schedule")
			_ = bot.Close()
			stop()
			exitWithFailure(err)
		}
		sched.Start()
		if *runOnStart {
			go sched.RunNow()
		}
	}

	gin.SetMode(gin.ReleaseMode)
	if cfg.HTTPAPIToken == "" {
		appLogger.Warn(ctx, "HTTP_API_TOKEN not set; runs triggered over HTTP are forced to dry run", map[string]interface{}{"addr": cfg.HTTPAddr})
	}
	handler := httpapi.NewHandler(bot.Service, bot.Registry, appLogger.Named("http"), httpapi.WithToken(cfg.HTTPAPIToken))
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info(ctx, "HTTP API listening", map[string]interface{}{"addr": cfg.HTTPAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(ctx, err, "HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info(context.Background(), "Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, err, "HTTP server shutdown failed")
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	appLogger.Info(context.Background(), "Application finished gracefully.")
}
