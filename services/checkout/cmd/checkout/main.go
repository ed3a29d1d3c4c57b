package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	pkgconfig "github.com/jiaorenyu/stripe-demo/pkg/config"
	"github.com/jiaorenyu/stripe-demo/pkg/logger"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/app"
	"github.com/jiaorenyu/stripe-demo/services/checkout/internal/config"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, app.ErrNotCompleted) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run() error {
	currency := flag.String("currency", "", "currency to pay in (usd, eur, cny, jpy, gbp); overrides CURRENCY")
	lang := flag.String("lang", "", "display language (en, zh, es, fr); overrides LANGUAGE")
	paymentMethod := flag.String("payment-method", "pm_card_visa", "tokenized Stripe payment method used as card input")
	check := flag.Bool("check", false, "query the intent service health before paying")
	list := flag.Bool("list", false, "print the intent service's currencies and exit")
	flag.Parse()

	if err := pkgconfig.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *currency != "" {
		cfg.Currency = strings.ToLower(*currency)
	}
	if *lang != "" {
		cfg.Language = *lang
	}

	// Logs go to stderr; the form is printed on stdout.
	log := logger.NewWithWriter("checkout", cfg.LogLevel, os.Stderr)
	slog.SetDefault(log)
	log.Debug("starting checkout",
		slog.String("api_url", cfg.APIURL),
		slog.String("currency", cfg.Currency),
		slog.String("language", cfg.Language),
	)

	application, err := app.NewApp(cfg, log, *paymentMethod)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer func() { _ = application.Shutdown() }()

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return application.Run(ctx, os.Stdout, app.Options{Check: *check, List: *list})
}
