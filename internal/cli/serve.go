package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"netinventory/internal/discovery"
	"netinventory/internal/handlers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API:
- GET  /api/devices?q=   search devices
- POST /upload_excel     import an .xlsx device list
- GET  /metrics          Prometheus metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":5000", "HTTP listen address")
	serveCmd.Flags().Bool("mdns", false, "advertise the service over mDNS")
	serveCmd.Flags().String("amqp-url", "", "RabbitMQ URL for device events (disabled when empty)")

	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("discovery.enabled", serveCmd.Flags().Lookup("mdns"))
	_ = v.BindPFlag("events.amqp_url", serveCmd.Flags().Lookup("amqp-url"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{events: true})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := handlers.NewServer(handlers.Options{
		Store:          a.store,
		Devices:        a.devices,
		Importer:       a.importer,
		Logger:         a.logger,
		Metrics:        a.metrics,
		MaxUploadSize:  a.cfg.Upload.MaxFileSize,
		RequestTimeout: a.cfg.Server.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:        a.cfg.Server.Addr,
		Handler:     srv,
		ReadTimeout: a.cfg.Server.ReadTimeout,
	}

	if a.cfg.Discovery.Enabled {
		adv, err := discovery.Start(a.cfg.Discovery.Instance, a.cfg.Server.Addr, a.logger)
		if err != nil {
			a.logger.Warn("mDNS advertisement disabled", "error", err)
		} else {
			defer adv.Stop()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server started", "addr", a.cfg.Server.Addr, "driver", a.store.Driver())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
