package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	invoiceclient "github.com/jrsteele09/go-invoice-client"
	"github.com/jrsteele09/go-invoice-client/apiclient"
	"github.com/jrsteele09/go-invoice-client/internal/config"
	"github.com/jrsteele09/go-invoice-client/keyvalue"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, friendlyMessage(err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	setupLogging(cfg.LogLevel)

	repo, err := keyvalue.NewFileRepo(cfg.SessionFile)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}

	app, err := invoiceclient.New(cfg.APIBaseURL, repo,
		invoiceclient.WithTimeout(cfg.HTTPTimeout),
		invoiceclient.WithLogger(log.Logger),
	)
	if err != nil {
		return err
	}

	return newRootCommand(app).ExecuteContext(ctx)
}

func setupLogging(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(parsed)
}

// friendlyMessage maps classified client errors onto the messages the UI
// layer is responsible for. The SPA redirected on 401/403; a CLI prints a
// hint instead.
func friendlyMessage(err error) string {
	switch apiclient.KindOf(err) {
	case apiclient.KindUnauthorized, apiclient.KindNoSession:
		return "your session has expired, run 'invoicectl login' to sign in again"
	case apiclient.KindForbidden:
		return "access denied: you do not have permission to perform this action"
	default:
		return err.Error()
	}
}
