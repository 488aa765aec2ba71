// Command server exposes invariant extraction and normalization over HTTP.
//
// Configuration comes from INVNORM_* environment variables; see
// internal/config for the full list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/adapters/logger"
	"github.com/baditaflorin/go_invariant_normalizer/internal/app"
	"github.com/baditaflorin/go_invariant_normalizer/internal/config"
	"github.com/baditaflorin/go_invariant_normalizer/internal/warmup"
	"github.com/valyala/fasthttp"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.NewWithOptions(logger.Options{
		Output:     os.Stdout,
		JSON:       cfg.Log.JSON,
		AsyncWrite: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	log.Info("Starting invariant normalizer HTTP server",
		"addr", cfg.Server.Addr,
		"read_timeout", cfg.Server.ReadTimeout,
		"write_timeout", cfg.Server.WriteTimeout,
		"max_body_size", cfg.Server.MaxBodySize,
		"version", Version,
	)

	a, err := app.Build(cfg, log, Version)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Server.Warmup {
		a.Warmup(warmup.DefaultWarmupConfig()).WarmUp(context.Background())
	}

	handler := newAPI(a.Service, log, cfg.Server.WriteTimeout)
	server := &fasthttp.Server{
		Handler:               handler.requestHandler,
		Name:                  "InvariantNormalizer",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		MaxRequestBodySize:    cfg.Server.MaxBodySize,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxIdleWorkerDuration: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.ShutdownWithContext(ctx); err != nil {
			log.Error("Error during server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	log.Info("Server listening", "address", cfg.Server.Addr)
	if err := server.ListenAndServe(cfg.Server.Addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	<-idleConnsClosed
	log.Info("Server stopped")
	return nil
}
