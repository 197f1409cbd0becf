// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/kyotei-backtest/internal/backtest"
	"github.com/yourusername/kyotei-backtest/internal/config"
	"github.com/yourusername/kyotei-backtest/internal/database"
	"github.com/yourusername/kyotei-backtest/internal/logger"
	"github.com/yourusername/kyotei-backtest/internal/metrics"
	"github.com/yourusername/kyotei-backtest/internal/modelservice"
	"github.com/yourusername/kyotei-backtest/internal/repository"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		startDate  = flag.String("start-date", "", "Override start date (YYYY-MM-DD)")
		endDate    = flag.String("end-date", "", "Override end date (YYYY-MM-DD)")
		output     = flag.String("output", "", "Override output path for results JSON")
		report     = flag.Bool("report", true, "Print the console report")
	)
	flag.Parse()

	cfg := loadConfigWithSecrets(*configPath)
	log := logger.NewLogger(cfg.App.LogLevel)

	runConfig := buildRunConfig(cfg, *output, *startDate, *endDate, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.InitRegistry()
	if cfg.Metrics.Enabled {
		startMetricsServer(cfg, log)
	}

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	outcomes := repository.NewPostgresOutcomeRepository(db)
	predictions := modelservice.NewCachedClient(
		modelservice.NewClient(&cfg.ModelService, log),
		time.Duration(cfg.ModelService.CacheTTLSeconds)*time.Second,
		cfg.ModelService.CacheMaxSize,
	)

	driver, err := backtest.NewDriver(runConfig, outcomes, predictions, log)
	if err != nil {
		log.Fatalf("Failed to create backtest driver: %v", err)
	}

	result, err := driver.Run(ctx)
	if err != nil {
		log.Fatalf("Backtest run failed: %v", err)
	}

	if *report {
		fmt.Println(backtest.GenerateConsoleReport(result))
	}
	if runConfig.OutputPath != "" {
		if err := backtest.ExportToJSON(result, runConfig.OutputPath); err != nil {
			log.Fatalf("Failed to export results: %v", err)
		}
		log.WithField("path", runConfig.OutputPath).Info("Results exported")
	}
	if result.Cancelled {
		os.Exit(1)
	}
}

func loadConfigWithSecrets(path string) *config.Config {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			logrus.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			logrus.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func buildRunConfig(cfg *config.Config, output, startOverride, endOverride string, log *logrus.Logger) backtest.RunConfig {
	runConfig, err := backtest.FromConfig(&cfg.Simulation)
	if err != nil {
		log.Fatalf("Invalid simulation config: %v", err)
	}
	if output != "" {
		runConfig.OutputPath = output
	}
	if startOverride != "" {
		parsed, err := time.Parse("2006-01-02", startOverride)
		if err != nil {
			log.Fatalf("Invalid start date: %v", err)
		}
		runConfig.StartDate = parsed
	}
	if endOverride != "" {
		parsed, err := time.Parse("2006-01-02", endOverride)
		if err != nil {
			log.Fatalf("Invalid end date: %v", err)
		}
		runConfig.EndDate = parsed
	}
	if err := runConfig.Validate(); err != nil {
		log.Fatalf("Invalid run config: %v", err)
	}
	return runConfig
}

func startMetricsServer(cfg *config.Config, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	go func() {
		log.WithField("addr", addr).Info("Metrics server listening")
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Warn("Metrics server stopped")
		}
	}()
}
