// Package tts defines the interface for text-to-speech backends.
//
// Each backend turns one line of dialogue into an audio clip on disk.
// Failures are tagged transient (worth retrying) or fatal so the
// orchestrator can retry at the smallest useful scope.
package tts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Request describes one synthesis call.
type Request struct {
	// Text is the sanitized dialog to speak.
	Text string

	// Voice is the backend-specific voice code.
	Voice string

	// Volume is a relative volume adjustment; 0 means unchanged.
	Volume float64

	// Speed is a relative speed adjustment; 0 means unchanged.
	Speed float64

	// OutputDir is where the clip file is created.
	OutputDir string
}

// Synthesizer converts text to an audio clip file.
type Synthesizer interface {
	// Synthesize writes a new audio file under req.OutputDir and returns its path.
	// Errors should be wrapped with Transient or Fatal.
	Synthesize(ctx context.Context, req Request) (string, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

var (
	// ErrTransient marks failures that may succeed on retry.
	ErrTransient = errors.New("transient synthesis failure")

	// ErrFatal marks failures that will not succeed on retry.
	ErrFatal = errors.New("fatal synthesis failure")

	// ErrUnsupportedBackend is returned for backend names with no registered implementation.
	ErrUnsupportedBackend = errors.New("unsupported tts backend")
)

type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }

func (e *kindError) Unwrap() []error { return []error{e.kind, e.err} }

// Transient tags err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: ErrTransient, err: err}
}

// Fatal tags err as not retryable.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: ErrFatal, err: err}
}

// IsTransient reports whether err was tagged by Transient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsBackendError reports whether err was tagged by a backend at all.
func IsBackendError(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrFatal)
}

// StatusError tags an HTTP error response: 408, 429 and 5xx are transient,
// everything else is fatal.
func StatusError(provider string, status int, body []byte) error {
	err := fmt.Errorf("%s error (status %d): %s", provider, status, body)
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return Transient(err)
	default:
		return Fatal(err)
	}
}
