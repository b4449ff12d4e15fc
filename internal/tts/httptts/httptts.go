// Package httptts implements tts.Synthesizer for HTTP providers driven by
// URL and body templates (edge-tts servers, index-tts, fish-audio style APIs).
//
// Templates may use these placeholders:
//
//	{{text}}       dialog text (URL-escaped in URLs, JSON-escaped in bodies)
//	{{voiceCode}}  voice code
//	{{volume}}     volume adjustment
//	{{speed}}      speed adjustment
//
// The response body is the audio clip.
package httptts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/nadzzz/podsynth/internal/tts"
)

// Config configures one template-driven provider.
type Config struct {
	// Name identifies the provider in logs and errors.
	Name string

	// URLTemplate is the request URL, e.g. "http://localhost:5050/tts?t={{text}}&v={{voiceCode}}".
	URLTemplate string

	// Method defaults to GET, or POST when BodyTemplate is set.
	Method string

	// BodyTemplate is an optional request body, usually JSON.
	BodyTemplate string

	Headers map[string]string

	// Format is the clip file extension (default "mp3").
	Format string

	// RateLimit caps requests per second; 0 disables throttling.
	RateLimit float64

	Timeout time.Duration
}

// Synthesizer calls a templated HTTP endpoint.
type Synthesizer struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a template-driven HTTP synthesizer.
func New(cfg Config) (*Synthesizer, error) {
	if cfg.URLTemplate == "" {
		return nil, fmt.Errorf("%s: url_template is required", cfg.Name)
	}
	if _, err := url.Parse(render(cfg.URLTemplate, tts.Request{}, url.QueryEscape)); err != nil {
		return nil, fmt.Errorf("%s: invalid url_template: %w", cfg.Name, err)
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
		if cfg.BodyTemplate != "" {
			cfg.Method = http.MethodPost
		}
	}
	if cfg.Format == "" {
		cfg.Format = "mp3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	s := &Synthesizer{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return s, nil
}

// Synthesize renders the templates, performs the request and stores the body as a clip.
func (s *Synthesizer) Synthesize(ctx context.Context, req tts.Request) (string, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", tts.Transient(fmt.Errorf("%s: waiting for rate limiter: %w", s.cfg.Name, err))
		}
	}

	reqURL := render(s.cfg.URLTemplate, req, url.QueryEscape)
	var body io.Reader
	if s.cfg.BodyTemplate != "" {
		body = strings.NewReader(render(s.cfg.BodyTemplate, req, jsonEscape))
	}

	httpReq, err := http.NewRequestWithContext(ctx, s.cfg.Method, reqURL, body)
	if err != nil {
		return "", tts.Fatal(fmt.Errorf("%s: creating request: %w", s.cfg.Name, err))
	}
	for k, v := range s.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("http tts request", "provider", s.cfg.Name, "voice", req.Voice, "text_length", len(req.Text))

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", tts.Transient(fmt.Errorf("%s request failed: %w", s.cfg.Name, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", tts.StatusError(s.cfg.Name, resp.StatusCode, respBody)
	}

	path, n, err := tts.WriteClip(req.OutputDir, s.cfg.Format, resp.Body)
	if err != nil {
		return "", err
	}
	slog.Debug("http tts clip written", "provider", s.cfg.Name, "path", path, "size", humanize.Bytes(uint64(n)))
	return path, nil
}

// Close releases idle connections.
func (s *Synthesizer) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func render(tmpl string, req tts.Request, escape func(string) string) string {
	return strings.NewReplacer(
		"{{text}}", escape(req.Text),
		"{{voiceCode}}", escape(req.Voice),
		"{{volume}}", strconv.FormatFloat(req.Volume, 'f', -1, 64),
		"{{speed}}", strconv.FormatFloat(req.Speed, 'f', -1, 64),
	).Replace(tmpl)
}

// jsonEscape escapes s for use inside a JSON string literal.
func jsonEscape(s string) string {
	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}
