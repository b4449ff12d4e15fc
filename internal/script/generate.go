package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/podsynth/internal/podcast"
	"github.com/nadzzz/podsynth/internal/retry"
)

// DefaultAttempts is how many times the generator is asked for a script or
// overview before giving up.
const DefaultAttempts = 3

// ErrLowQualityOverview is returned when an overview fails its quality gate.
var ErrLowQualityOverview = errors.New("overview failed quality gate")

// Generator produces raw text from a system prompt and a user message.
// It is implemented by the LLM client.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Fetcher asks a Generator for scripts and overviews, retrying until the
// output passes its quality gate.
type Fetcher struct {
	gen      Generator
	attempts int
	backoff  time.Duration
	sleep    retry.SleepFunc
}

// NewFetcher creates a Fetcher. attempts below 1 default to DefaultAttempts;
// backoff is the linear step applied after generator (transport) failures.
func NewFetcher(gen Generator, attempts int, backoff time.Duration) *Fetcher {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &Fetcher{gen: gen, attempts: attempts, backoff: backoff}
}

// policy retries structural failures immediately and waits attempt*backoff
// after transport failures.
func (f *Fetcher) policy(what string) retry.Policy {
	return retry.Policy{
		MaxAttempts: f.attempts,
		Backoff: func(attempt int, err error) time.Duration {
			if isStructural(err) {
				return 0
			}
			return time.Duration(attempt) * f.backoff
		},
		Notify: func(attempt int, err error, delay time.Duration) {
			slog.Warn(what+" attempt failed, retrying",
				"attempt", attempt, "max_attempts", f.attempts, "delay", delay, "error", err)
		},
		Sleep: f.sleep,
	}
}

func isStructural(err error) bool {
	return errors.Is(err, ErrNoScript) || errors.Is(err, ErrLowQuality) || errors.Is(err, ErrLowQualityOverview)
}

// Script requests a dialogue script and extracts it. When every attempt
// fails the error wraps ErrNoScript and quotes the last raw response.
func (f *Fetcher) Script(ctx context.Context, system, user string) (*podcast.PodcastScript, error) {
	var lastRaw string
	s, err := retry.Do(ctx, f.policy("script generation"), func(ctx context.Context, attempt int) (*podcast.PodcastScript, error) {
		raw, err := f.gen.Generate(ctx, system, user)
		if err != nil {
			return nil, fmt.Errorf("generating script: %w", err)
		}
		lastRaw = raw

		s, err := Extract(raw)
		if err != nil {
			return nil, err
		}
		slog.Info("podcast script accepted", "attempt", attempt, "utterances", s.Len())
		return s, nil
	})
	if err != nil {
		if isStructural(err) {
			return nil, fmt.Errorf("%w after %d attempts: %v; raw response: %s", ErrNoScript, f.attempts, err, lastRaw)
		}
		return nil, fmt.Errorf("script generation failed after %d attempts: %w", f.attempts, err)
	}
	return s, nil
}

// Overview requests the freeform overview and splits it into title, tags
// and body.
func (f *Fetcher) Overview(ctx context.Context, system, user string) (*podcast.Overview, error) {
	ov, err := retry.Do(ctx, f.policy("overview generation"), func(ctx context.Context, attempt int) (*podcast.Overview, error) {
		raw, err := f.gen.Generate(ctx, system, user)
		if err != nil {
			return nil, fmt.Errorf("generating overview: %w", err)
		}
		ov := ParseOverview(raw)
		if err := checkOverview(ov); err != nil {
			return nil, err
		}
		slog.Info("overview accepted", "attempt", attempt, "title", ov.Title, "tags", ov.Tags)
		return ov, nil
	})
	if err != nil {
		return nil, fmt.Errorf("overview generation failed after %d attempts: %w", f.attempts, err)
	}
	return ov, nil
}

// tagsWindow is how many lines after the title are searched for tags.
const tagsWindow = 3

// ParseOverview splits generator output into a title (first line), tags
// (first non-empty line among the next three) and the remaining body.
func ParseOverview(raw string) *podcast.Overview {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	ov := &podcast.Overview{Title: strings.TrimSpace(lines[0])}

	rest := lines[1:]
	for i := 0; i < len(rest) && i < tagsWindow; i++ {
		if tags := strings.TrimSpace(rest[i]); tags != "" {
			ov.Tags = tags
			rest = rest[i+1:]
			break
		}
	}
	ov.Content = strings.TrimSpace(strings.Join(rest, "\n"))
	return ov
}

func checkOverview(ov *podcast.Overview) error {
	switch {
	case len([]rune(ov.Content)) < 20:
		return fmt.Errorf("%w: body shorter than 20 characters", ErrLowQualityOverview)
	case len([]rune(ov.Title)) < 2:
		return fmt.Errorf("%w: title shorter than 2 characters", ErrLowQualityOverview)
	case ov.Tags == "":
		return fmt.Errorf("%w: no tags line", ErrLowQualityOverview)
	}
	return nil
}
