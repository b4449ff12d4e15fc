// Package synth fans synthesis out over a bounded worker pool and returns
// the trimmed clips in script order.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nadzzz/podsynth/internal/audio"
	"github.com/nadzzz/podsynth/internal/podcast"
	"github.com/nadzzz/podsynth/internal/retry"
	"github.com/nadzzz/podsynth/internal/tts"
	"github.com/nadzzz/podsynth/internal/voice"
)

// Trimmer post-processes one raw clip. *audio.Trimmer implements it.
type Trimmer interface {
	Trim(ctx context.Context, raw string, enabled bool) (string, error)
}

// Options tunes the orchestrator.
type Options struct {
	// Concurrency is the number of workers; below 1 means 1.
	Concurrency int

	// MaxAttempts bounds calls per utterance for transient backend failures.
	MaxAttempts int

	// BaseDelay is the first retry delay; it doubles on every attempt.
	BaseDelay time.Duration

	TrimSilence bool
	OutputDir   string
}

// UtteranceError identifies the utterance that failed a run.
type UtteranceError struct {
	Index     int
	SpeakerID int
	Err       error
}

func (e *UtteranceError) Error() string {
	return fmt.Sprintf("utterance %d (speaker_id=%d): %v", e.Index, e.SpeakerID, e.Err)
}

func (e *UtteranceError) Unwrap() error { return e.Err }

// Orchestrator runs one synthesis task per utterance.
type Orchestrator struct {
	registry *tts.Registry
	trimmer  Trimmer
	opts     Options
	sleep    retry.SleepFunc
}

// New creates an Orchestrator.
func New(registry *tts.Registry, trimmer Trimmer, opts Options) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 3
	}
	return &Orchestrator{registry: registry, trimmer: trimmer, opts: opts}
}

type job struct {
	index   int
	utt     podcast.Utterance
	profile podcast.VoiceProfile
	backend tts.Synthesizer
}

// Synthesize produces one trimmed clip per utterance, ordered by index.
// Speakers and backends are resolved for every utterance before the first
// backend call. The first failing utterance cancels the rest and its error
// is returned as an *UtteranceError; clips produced so far are removed.
func (o *Orchestrator) Synthesize(ctx context.Context, script *podcast.PodcastScript, profiles *voice.Profiles) ([]podcast.TrimmedClip, error) {
	jobs, err := o.plan(script, profiles)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(o.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	slog.Info("synthesis started", "utterances", len(jobs), "concurrency", o.opts.Concurrency)
	start := time.Now()

	// Each worker writes only its own slot.
	clips := make([]podcast.TrimmedClip, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Concurrency)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &UtteranceError{Index: j.index, SpeakerID: j.utt.SpeakerID, Err: err}
			}
			path, err := o.run(gctx, j)
			if err != nil {
				return &UtteranceError{Index: j.index, SpeakerID: j.utt.SpeakerID, Err: err}
			}
			clips[j.index] = podcast.TrimmedClip{Index: j.index, Path: path}
			return nil
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		removeClips(clips)
		return nil, err
	}

	for i, c := range clips {
		if c.Path == "" {
			removeClips(clips)
			return nil, fmt.Errorf("%w: utterance %d produced no clip", audio.ErrCountMismatch, i)
		}
	}

	slog.Info("synthesis finished", "clips", len(clips), "elapsed", time.Since(start).Round(time.Millisecond))
	return clips, nil
}

// plan resolves every utterance to a voice profile and backend.
func (o *Orchestrator) plan(script *podcast.PodcastScript, profiles *voice.Profiles) ([]job, error) {
	if script.Len() == 0 {
		return nil, errors.New("script has no utterances")
	}
	jobs := make([]job, script.Len())
	for i, utt := range script.Transcripts {
		profile, err := profiles.Lookup(utt.SpeakerID)
		if err != nil {
			return nil, &UtteranceError{Index: i, SpeakerID: utt.SpeakerID, Err: err}
		}
		backend, err := o.registry.Get(profile.BackendName)
		if err != nil {
			return nil, &UtteranceError{Index: i, SpeakerID: utt.SpeakerID, Err: err}
		}
		jobs[i] = job{index: i, utt: utt, profile: profile, backend: backend}
	}
	return jobs, nil
}

// run synthesizes one utterance with retries, trims it and removes the raw clip.
func (o *Orchestrator) run(ctx context.Context, j job) (string, error) {
	log := slog.With("index", j.index, "speaker_id", j.utt.SpeakerID, "backend", j.profile.BackendName, "voice", j.profile.VoiceCode)

	req := tts.Request{
		Text:      j.utt.SanitizedDialog(),
		Voice:     j.profile.VoiceCode,
		Volume:    j.profile.VolumeAdjustment,
		Speed:     j.profile.SpeedAdjustment,
		OutputDir: o.opts.OutputDir,
	}
	policy := retry.Policy{
		MaxAttempts: o.opts.MaxAttempts,
		Backoff:     retry.Exponential(o.opts.BaseDelay),
		Retryable:   tts.IsTransient,
		Notify: func(attempt int, err error, delay time.Duration) {
			log.Warn("synthesis attempt failed, retrying",
				"attempt", attempt, "max_attempts", o.opts.MaxAttempts, "delay", delay, "error", err)
		},
		Sleep: o.sleep,
	}

	raw, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (string, error) {
		log.Debug("calling tts backend", "attempt", attempt)
		return j.backend.Synthesize(ctx, req)
	})
	if err != nil {
		if tts.IsTransient(err) {
			return "", tts.Fatal(fmt.Errorf("giving up after %d attempts: %w", o.opts.MaxAttempts, err))
		}
		return "", err
	}

	trimmed, err := o.trimmer.Trim(ctx, raw, o.opts.TrimSilence)
	if rmErr := os.Remove(raw); rmErr != nil {
		log.Warn("failed to remove raw clip", "path", raw, "error", rmErr)
	}
	if err != nil {
		return "", fmt.Errorf("trimming clip: %w", err)
	}
	log.Debug("utterance ready", "clip", trimmed)
	return trimmed, nil
}

func removeClips(clips []podcast.TrimmedClip) {
	for _, c := range clips {
		if c.Path == "" {
			continue
		}
		if err := os.Remove(c.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove clip", "path", c.Path, "error", err)
		}
	}
}
