package pipeline

import (
	"fmt"
	"strings"

	"github.com/nadzzz/podsynth/internal/config"
	"github.com/nadzzz/podsynth/internal/tts"
	"github.com/nadzzz/podsynth/internal/tts/httptts"
	"github.com/nadzzz/podsynth/internal/tts/openai"
	"github.com/nadzzz/podsynth/internal/tts/piper"
)

// BuildRegistry creates one synthesizer per configured backend.
func BuildRegistry(backends map[string]config.BackendConfig) (*tts.Registry, error) {
	m := make(map[string]tts.Synthesizer, len(backends))
	for name, b := range backends {
		s, err := newSynthesizer(name, b)
		if err != nil {
			tts.NewRegistry(m).Close()
			return nil, fmt.Errorf("backend %s: %w", name, err)
		}
		m[name] = s
	}
	return tts.NewRegistry(m), nil
}

func newSynthesizer(name string, b config.BackendConfig) (tts.Synthesizer, error) {
	switch strings.ToLower(b.Type) {
	case "piper":
		if b.Endpoint == "" {
			return nil, fmt.Errorf("piper endpoint is required")
		}
		return piper.New(b.Endpoint, b.Timeout), nil
	case "http":
		s, err := httptts.New(httptts.Config{
			Name:         name,
			URLTemplate:  b.URLTemplate,
			Method:       b.Method,
			BodyTemplate: b.BodyTemplate,
			Headers:      b.Headers,
			Format:       b.Format,
			RateLimit:    b.RateLimit,
			Timeout:      b.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "openai":
		return openai.New(openai.Config{
			APIKey:    b.APIKey,
			BaseURL:   b.Endpoint,
			Model:     b.Model,
			Format:    b.Format,
			RateLimit: b.RateLimit,
			Timeout:   b.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("%w: type %q", tts.ErrUnsupportedBackend, b.Type)
	}
}
