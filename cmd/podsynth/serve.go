package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/nadzzz/podsynth/docs"
	"github.com/nadzzz/podsynth/internal/health"
	"github.com/nadzzz/podsynth/internal/transport"
	grpctransport "github.com/nadzzz/podsynth/internal/transport/grpc"
	httptransport "github.com/nadzzz/podsynth/internal/transport/http"
)

func newServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the podcast API over HTTP with gRPC and HTTP health checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(*configFile, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			serve(cmd.Context(), a)
			return nil
		},
	}
}

func serve(parent context.Context, a *app) {
	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	transports := []transport.Transport{
		httptransport.New(a.cfg.Server.HTTPPort, a.cfg.Pipeline.OutputDir),
		grpctransport.New(a.cfg.Server.GRPCPort),
	}

	if err := os.MkdirAll(a.cfg.Pipeline.OutputDir, 0o755); err != nil {
		slog.Error("creating output directory", "path", a.cfg.Pipeline.OutputDir, "error", err)
	}

	// Start health check server.
	healthServer := health.New(a.cfg.Server.HealthPort)
	healthServer.AddCheck("ffmpeg", health.BinaryCheck("ffmpeg"))
	healthServer.AddCheck("ffprobe", health.BinaryCheck("ffprobe"))
	healthServer.AddCheck("output_dir", health.WritableDirCheck(a.cfg.Pipeline.OutputDir))
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, a.pipeline.Run); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("podsynth ready",
		"http_port", a.cfg.Server.HTTPPort,
		"grpc_port", a.cfg.Server.GRPCPort,
		"health_port", a.cfg.Server.HealthPort)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("podsynth stopped")
}
