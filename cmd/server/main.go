// Command server runs the room relay: it loads configuration, starts the
// HTTP and WebSocket listener and shuts down gracefully on SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/roomrelay/internal/config"
	"github.com/Tyrowin/roomrelay/internal/logging"
	"github.com/Tyrowin/roomrelay/internal/protocol"
	"github.com/Tyrowin/roomrelay/internal/registry"
	"github.com/Tyrowin/roomrelay/internal/server"
	"github.com/Tyrowin/roomrelay/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "roomrelay: %v\n", err)
		os.Exit(1)
	}
}

// run starts the relay and blocks until ctx is cancelled or the listener
// fails.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("roomrelay", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("ROOMRELAY_CONFIG"), "path to a YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log := logging.New(logging.Options{
		Service: cfg.Tracing.ServiceName,
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Writer:  stdout,
	})
	log.Info("starting room relay", "config", cfg.String())

	shutdownTracing, err := telemetry.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to initialise tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracer shutdown failed", logging.Err(err))
		}
	}()

	reg := registry.New(protocol.MemberCountFrame, log)
	srv := server.New(cfg, reg, log)
	httpServer := server.CreateServer(cfg.Port, srv.Routes())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.StartServer(httpServer)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	var errs []error
	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout); err != nil {
		errs = append(errs, err)
	}
	if err := srv.Shutdown(cfg.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("hub shutdown: %w", err))
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, err)
	}

	log.Info("room relay stopped")
	return errors.Join(errs...)
}
