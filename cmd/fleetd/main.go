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

	"golang.org/x/sync/errgroup"

	"github.com/qnetlabs/qnet-fleet/api"
	"github.com/qnetlabs/qnet-fleet/internal/logger"
	"github.com/qnetlabs/qnet-fleet/internal/metrics"
	"github.com/qnetlabs/qnet-fleet/internal/orchestrator"
	"github.com/qnetlabs/qnet-fleet/pkg/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger.Setup(cfg.App.LogLevel, cfg.App.Mode)
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := orchestrator.New(cfg)

	startCtx, startCancel := context.WithTimeout(ctx, 60*time.Second)
	defer startCancel()
	if err := orch.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.StartServer(cfg.Metrics.Port)
	}

	server := api.NewServer(*cfg, orch)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("API shutdown error: %v", err)
		}

		orch.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Stopped gracefully")
	return nil
}
