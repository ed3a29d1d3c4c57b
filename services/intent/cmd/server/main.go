package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	pkgconfig "github.com/jiaorenyu/stripe-demo/pkg/config"
	"github.com/jiaorenyu/stripe-demo/pkg/logger"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/app"
	"github.com/jiaorenyu/stripe-demo/services/intent/internal/config"
)

const envFile = ".env"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Values already in the environment win over .env.
	if err := pkgconfig.LoadDotEnv(envFile); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	cfg, err := config.Load()
	if errors.Is(err, config.ErrMissingSecretKey) {
		reportMissingKey()
		return err
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize structured logger.
	log := logger.New("intent-service", cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting intent service",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("payment_provider", cfg.PaymentProvider),
		slog.String("key_mode", cfg.KeyMode()),
	)

	// Create the application with all dependencies wired.
	application, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Run the application. This blocks until shutdown.
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}

	log.Info("intent service stopped")
	return nil
}

// reportMissingKey tells the operator where the key was looked for.
func reportMissingKey() {
	cwd, _ := os.Getwd()
	envPath, err := filepath.Abs(envFile)
	if err != nil {
		envPath = envFile
	}
	slog.Error(config.EnvSecretKey+" is not set",
		slog.String("hint", "set "+config.EnvSecretKey+" in the environment or in "+envFile+" (see .env.example)"),
		slog.String("cwd", cwd),
		slog.String("env_file", envPath),
	)
}
