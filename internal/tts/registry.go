package tts

import (
	"errors"
	"fmt"
	"sort"
)

// Registry maps backend names to synthesizers. It is built once at startup
// and read concurrently by synthesis workers.
type Registry struct {
	backends map[string]Synthesizer
}

// NewRegistry creates a registry from name -> synthesizer.
func NewRegistry(backends map[string]Synthesizer) *Registry {
	m := make(map[string]Synthesizer, len(backends))
	for name, s := range backends {
		if s != nil {
			m[name] = s
		}
	}
	return &Registry{backends: m}
}

// Get returns the synthesizer registered under name.
func (r *Registry) Get(name string) (Synthesizer, error) {
	s, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnsupportedBackend, name, r.Names())
	}
	return s, nil
}

// Require fails fast if any of names has no registered synthesizer.
func (r *Registry) Require(names ...string) error {
	for _, name := range names {
		if _, err := r.Get(name); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every registered synthesizer.
func (r *Registry) Close() error {
	var errs []error
	for name, s := range r.backends {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
