package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"netinventory/internal/config"
	"netinventory/internal/db"
	"netinventory/internal/devices"
	"netinventory/internal/events"
	"netinventory/internal/importer"
	"netinventory/internal/logging"
	"netinventory/internal/metrics"
)

// initConfig points v at the config file and environment and checks that
// the result loads. Commands decode their own Config in newApp.
func initConfig() error {
	if err := config.Init(v, cfgFile); err != nil {
		return err
	}
	_, err := config.Load(v)
	return err
}

// app holds the components shared by every command. Each command builds
// its own app and closes it when done.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *db.Store
	metrics   *metrics.Metrics
	publisher events.Publisher
	devices   *devices.Service
	importer  *importer.Pipeline
}

type appOptions struct {
	// events connects the AMQP publisher when configured.
	events bool
	// logToStderr keeps stdout free for command output.
	logToStderr bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	out := os.Stdout
	if opts.logToStderr {
		out = os.Stderr
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, out)

	store, err := db.Open(ctx, db.Options{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("database ready", "driver", store.Driver())

	var publisher events.Publisher = events.Nop{}
	if opts.events && cfg.Events.Enabled() {
		p, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		publisher = p
	}

	m := metrics.New()
	a := &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		metrics:   m,
		publisher: publisher,
	}
	a.devices = devices.NewService(store, logger, publisher, m)
	a.importer = importer.New(store, logger,
		importer.WithPublisher(publisher),
		importer.WithMetrics(m),
	)
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
