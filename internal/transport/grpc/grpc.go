// Package grpc implements the gRPC transport for podsynth serve.
//
// The server carries the standard grpc.health.v1 service, so orchestrators
// can probe podsynth over gRPC, and server reflection for grpcurl. Podcast
// runs themselves are served by the HTTP transport.
package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/nadzzz/podsynth/internal/transport"
)

// ServiceName is the health-checked service name for the podcast pipeline.
const ServiceName = "podsynth.Pipeline"

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	t := &Transport{
		port:   port,
		server: grpc.NewServer(),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(t.server, t.health)
	reflection.Register(t.server)
	t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server. A non-nil handler marks the pipeline
// service as serving.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return t.Serve(ctx, lis, handler)
}

// Serve runs the server on lis until ctx is cancelled.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, handler transport.Handler) error {
	if handler != nil {
		t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	slog.Info("grpc transport listening", "addr", lis.Addr().String())

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.health.Shutdown()
		t.server.GracefulStop()
	}()

	return t.server.Serve(lis)
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	t.health.Shutdown()
	t.server.GracefulStop()
	return nil
}
