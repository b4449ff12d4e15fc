// Package http implements the HTTP transport for podsynth serve.
//
// It exposes a REST API that runs one podcast generation per request and
// serves the finished recordings, plus the Swagger UI for the API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/podsynth/internal/pipeline"
	"github.com/nadzzz/podsynth/internal/podcast"
	"github.com/nadzzz/podsynth/internal/transport"
	"github.com/nadzzz/podsynth/internal/tts"
	"github.com/nadzzz/podsynth/internal/voice"
)

// maxRequestBytes bounds the JSON request body.
const maxRequestBytes = 1 << 20

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port      int
	outputDir string
	server    *http.Server
}

// New creates a new HTTP transport on the given port. Finished recordings
// are served from outputDir.
func New(port int, outputDir string) *Transport {
	return &Transport{port: port, outputDir: outputDir}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler builds the API routes around handler.
func (t *Transport) Handler(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	// POST /podcasts runs one pipeline synchronously.
	mux.HandleFunc("POST /podcasts", func(w http.ResponseWriter, r *http.Request) {
		t.handleCreate(w, r, handler)
	})

	// GET /podcasts/{file} downloads a finished recording.
	mux.HandleFunc("GET /podcasts/{file}", t.handleDownload)

	// Swagger UI serves the registered OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return mux
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleCreate processes a POST /podcasts request.
//
// @Summary     Generate a podcast
// @Description Generates an overview and a dialogue script from the input, synthesizes every line
// @Description with the speaker's voice and returns the finished recording once it is assembled.
// @Description The call blocks for the whole run.
// @Tags        podcasts
// @Accept      json
// @Produce     json
// @Param       request  body      podcast.Request  true  "Podcast request"
// @Success     200  {object}  podcast.Result  "Finished podcast"
// @Failure     400  {string}  string  "Invalid request body"
// @Failure     422  {string}  string  "Speaker roster cannot be resolved"
// @Failure     500  {string}  string  "Pipeline failure"
// @Router      /podcasts [post]
func (t *Transport) handleCreate(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	var req podcast.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		http.Error(w, "input is required", http.StatusBadRequest)
		return
	}

	result, err := handler(r.Context(), &req)
	if err != nil {
		slog.Error("podcast generation failed", "request_id", req.ID, "error", err)
		http.Error(w, "generation error: "+err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/podcasts/"+filepath.Base(result.OutputPath))
	_ = json.NewEncoder(w).Encode(result)
}

// handleDownload serves a finished recording.
//
// @Summary     Download a podcast
// @Tags        podcasts
// @Produce     audio/mpeg
// @Param       file  path  string  true  "Recording file name"
// @Success     200  {file}    binary
// @Failure     404  {string}  string  "Unknown recording"
// @Router      /podcasts/{file} [get]
func (t *Transport) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".mp3" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, filepath.Join(t.outputDir, name))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, voice.ErrMissingVoice),
		errors.Is(err, voice.ErrUnknownSpeaker),
		errors.Is(err, tts.ErrUnsupportedBackend):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrNoGenerator):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}
