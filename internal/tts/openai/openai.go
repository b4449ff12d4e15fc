// Package openai implements tts.Synthesizer against an OpenAI-compatible
// /v1/audio/speech endpoint (OpenAI, Kokoro, LocalAI, ...).
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/nadzzz/podsynth/internal/tts"
)

// Config configures the speech client.
type Config struct {
	APIKey  string
	BaseURL string

	// Model defaults to tts-1.
	Model string

	// Format is the response format and clip extension (default mp3).
	Format string

	// RateLimit caps requests per second; 0 disables throttling.
	RateLimit float64

	Timeout time.Duration
}

// Synthesizer calls the speech endpoint through go-openai.
type Synthesizer struct {
	client  *goopenai.Client
	model   goopenai.SpeechModel
	format  goopenai.SpeechResponseFormat
	limiter *rate.Limiter
}

// New creates an OpenAI-compatible speech synthesizer.
func New(cfg Config) *Synthesizer {
	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = string(goopenai.TTSModel1)
	}
	format := cfg.Format
	if format == "" {
		format = string(goopenai.SpeechResponseFormatMp3)
	}

	s := &Synthesizer{
		client: goopenai.NewClientWithConfig(oc),
		model:  goopenai.SpeechModel(model),
		format: goopenai.SpeechResponseFormat(format),
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return s
}

// Synthesize requests speech for req.Text and stores it as a clip.
// Speed adjustments are relative: 0 maps to the endpoint's 1.0.
func (s *Synthesizer) Synthesize(ctx context.Context, req tts.Request) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", tts.Transient(fmt.Errorf("openai speech: waiting for rate limiter: %w", err))
		}
	}

	resp, err := s.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          s.model,
		Input:          req.Text,
		Voice:          goopenai.SpeechVoice(req.Voice),
		ResponseFormat: s.format,
		Speed:          speed(req.Speed),
	})
	if err != nil {
		return "", classify(err)
	}
	defer resp.Close()

	path, n, err := tts.WriteClip(req.OutputDir, string(s.format), resp)
	if err != nil {
		return "", err
	}
	slog.Debug("openai speech clip written", "path", path, "size", humanize.Bytes(uint64(n)), "voice", req.Voice)
	return path, nil
}

// Close is a no-op.
func (s *Synthesizer) Close() error { return nil }

func speed(adjustment float64) float64 {
	v := 1 + adjustment
	switch {
	case v < 0.25:
		return 0.25
	case v > 4:
		return 4
	}
	return v
}

func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return tts.StatusError("openai speech", apiErr.HTTPStatusCode, []byte(apiErr.Message))
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return tts.StatusError("openai speech", reqErr.HTTPStatusCode, []byte(reqErr.Error()))
	}
	return tts.Transient(fmt.Errorf("openai speech request failed: %w", err))
}
