// Package health serves liveness and readiness endpoints for podsynth serve.
//
// /healthz always answers 200 while the process runs. /readyz answers 200
// only after SetReady(true) and when every registered check passes, so an
// orchestrator stops routing podcast requests to an instance that lost
// ffmpeg or its output directory.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Check reports whether one runtime dependency is usable.
type Check func(ctx context.Context) error

// Server exposes /healthz and /readyz.
type Server struct {
	port   int
	ready  atomic.Bool
	server *http.Server

	mu     sync.RWMutex
	names  []string
	checks map[string]Check
}

// New creates a health server on port.
func New(port int) *Server {
	return &Server{port: port, checks: make(map[string]Check)}
}

// SetReady marks the service as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// AddCheck registers a named readiness check. A later check with the same
// name replaces the earlier one.
func (s *Server) AddCheck(name string, c Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checks[name]; !ok {
		s.names = append(s.names, name)
	}
	s.checks[name] = c
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler returns the health endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, readiness{Status: "ok"})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, readiness{Status: "not_ready"})
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		res := s.run(ctx)
		code := http.StatusOK
		if res.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, res)
	})
	return mux
}

func (s *Server) run(ctx context.Context) readiness {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := readiness{Status: "ok"}
	if len(s.names) == 0 {
		return res
	}
	res.Checks = make(map[string]string, len(s.names))
	for _, name := range s.names {
		if err := s.checks[name](ctx); err != nil {
			res.Status = "degraded"
			res.Checks[name] = err.Error()
			slog.Warn("readiness check failed", "check", name, "error", err)
			continue
		}
		res.Checks[name] = "ok"
	}
	return res
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// BinaryCheck passes when name resolves on PATH.
func BinaryCheck(name string) Check {
	return func(context.Context) error {
		if _, err := exec.LookPath(name); err != nil {
			return fmt.Errorf("%s not found on PATH", name)
		}
		return nil
	}
}

// WritableDirCheck passes when a file can be created in dir.
func WritableDirCheck(dir string) Check {
	return func(context.Context) error {
		f, err := os.CreateTemp(dir, ".readyz-*")
		if err != nil {
			return fmt.Errorf("output directory %s not writable: %w", filepath.Clean(dir), err)
		}
		name := f.Name()
		_ = f.Close()
		return os.Remove(name)
	}
}

// ListenAndServe starts the health HTTP server and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	slog.Info("health server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}
