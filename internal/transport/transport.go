// Package transport defines the interface for the serving surfaces of
// podsynth serve.
//
// Each transport (HTTP, gRPC) implements this interface. The pipeline
// doesn't care how requests arrive; it only works with the Transport contract.
package transport

import (
	"context"

	"github.com/nadzzz/podsynth/internal/podcast"
)

// Handler runs one podcast request to completion and returns its result.
// The pipeline provides this handler to each transport.
type Handler func(ctx context.Context, req *podcast.Request) (*podcast.Result, error)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen starts accepting requests and hands them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
