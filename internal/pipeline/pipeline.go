// Package pipeline runs one podcast generation end to end.
//
// A run resolves the speakers, asks the generator for an overview and a
// dialogue script, synthesizes every utterance concurrently, trims and
// concatenates the clips and probes the final duration. A run either
// yields exactly one complete audio file or an error naming the failing
// stage; no partial podcast is ever produced.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/podsynth/internal/audio"
	"github.com/nadzzz/podsynth/internal/config"
	"github.com/nadzzz/podsynth/internal/podcast"
	"github.com/nadzzz/podsynth/internal/script"
	"github.com/nadzzz/podsynth/internal/synth"
	"github.com/nadzzz/podsynth/internal/tts"
	"github.com/nadzzz/podsynth/internal/voice"
)

// ErrNoGenerator is returned by Run when the pipeline was built without a script generator.
var ErrNoGenerator = errors.New("no script generator configured")

// Deps are the collaborators a Pipeline is built from.
type Deps struct {
	// Generator produces overviews and scripts; nil limits the pipeline to Render.
	Generator script.Generator

	// Registry holds the text-to-speech backends.
	Registry *tts.Registry

	// Runner executes ffmpeg and ffprobe; nil means audio.ExecRunner.
	Runner audio.Runner

	// Templates are the prompt templates; nil loads them from cfg.LLM.PromptDir.
	Templates *script.Templates
}

// Pipeline is the central podcast engine. It is safe for concurrent runs.
type Pipeline struct {
	cfg          *config.Config
	fetcher      *script.Fetcher
	templates    *script.Templates
	registry     *tts.Registry
	runner       audio.Runner
	orchestrator *synth.Orchestrator
	concat       *audio.Concatenator
}

// New creates a Pipeline. Backends named by the configured roster must be
// registered; unknown names fail here rather than at first use.
func New(cfg *config.Config, deps Deps) (*Pipeline, error) {
	if deps.Registry == nil {
		return nil, errors.New("pipeline: tts registry is required")
	}
	runner := deps.Runner
	if runner == nil {
		runner = audio.ExecRunner{}
	}
	templates := deps.Templates
	if templates == nil {
		t, err := script.LoadTemplates(cfg.LLM.PromptDir)
		if err != nil {
			return nil, err
		}
		templates = t
	}

	if len(cfg.Podcast.Speakers) > 0 {
		profiles, err := voice.Resolve(cfg.Podcast.Speakers, cfg.Podcast.Voices)
		if err != nil {
			return nil, fmt.Errorf("resolving configured speakers: %w", err)
		}
		if err := deps.Registry.Require(profiles.Backends()...); err != nil {
			return nil, fmt.Errorf("configured speakers: %w", err)
		}
	}

	p := &Pipeline{
		cfg:       cfg,
		templates: templates,
		registry:  deps.Registry,
		runner:    runner,
		orchestrator: synth.New(deps.Registry, audio.NewTrimmer(runner), synth.Options{
			Concurrency: cfg.Pipeline.Concurrency,
			MaxAttempts: cfg.Pipeline.MaxRetries,
			BaseDelay:   cfg.Pipeline.RetryBaseDelay,
			TrimSilence: cfg.Pipeline.TrimSilence,
			OutputDir:   cfg.Pipeline.OutputDir,
		}),
		concat: audio.NewConcatenator(runner, cfg.Pipeline.OutputDir),
	}
	if deps.Generator != nil {
		p.fetcher = script.NewFetcher(deps.Generator, cfg.Pipeline.ScriptAttempts, time.Second)
	}
	return p, nil
}

// Run processes a single request through the full pipeline.
func (p *Pipeline) Run(ctx context.Context, req *podcast.Request) (*podcast.Result, error) {
	if p.fetcher == nil {
		return nil, ErrNoGenerator
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	start := time.Now()
	logger := slog.With("request_id", req.ID)

	roster := p.roster(req.Speakers)
	profiles, err := p.resolve(roster)
	if err != nil {
		return nil, err
	}

	custom, input := script.ExtractCustomContent(req.Input)
	if strings.TrimSpace(input) == "" {
		return nil, errors.New("request input is empty")
	}

	lang := req.OutputLanguage
	if lang == "" {
		lang = p.cfg.LLM.OutputLanguage
	}
	usetime := req.Usetime
	if usetime == "" {
		usetime = p.cfg.LLM.Usetime
	}

	overviewTpl, scriptTpl := p.templates.Overview, p.templates.Script
	if req.Story {
		overviewTpl, scriptTpl = p.templates.StoryOverview, p.templates.StoryScript
	}
	logger.Info("pipeline started", "speakers", profiles.Len(), "story", req.Story, "input_length", len(input))

	// Step 1: Overview (title, tags, summary).
	overview, err := p.fetcher.Overview(ctx, script.BuildOverviewPrompt(overviewTpl, lang), input)
	if err != nil {
		return nil, fmt.Errorf("overview stage: %w", err)
	}

	// Step 2: Dialogue script. Stories are scripted from the input itself.
	system := script.BuildScriptPrompt(scriptTpl, script.PromptParams{
		NumSpeakers:    profiles.Len(),
		TurnPattern:    p.cfg.Podcast.TurnPattern,
		Usetime:        usetime,
		OutputLanguage: lang,
		Briefing:       profiles.Briefing(),
		Custom:         custom,
	})
	user := overview.Content
	if req.Story {
		user = input
	}
	s, err := p.fetcher.Script(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("script stage: %w", err)
	}

	// Step 3: Audio.
	path, duration, err := p.render(ctx, s, profiles)
	if err != nil {
		return nil, err
	}

	logger.Info("pipeline complete", "output", path, "audio_duration", duration, "elapsed", time.Since(start).Round(time.Millisecond))
	return &podcast.Result{
		RequestID:  req.ID,
		OutputPath: path,
		Duration:   duration,
		Title:      overview.Title,
		Tags:       overview.Tags,
		Overview:   overview.Content,
		Script:     s,
		Speakers:   roster,
	}, nil
}

// Render synthesizes an existing script with the given roster (the
// configured one when empty) and returns the final audio path and its
// MM:SS duration.
func (p *Pipeline) Render(ctx context.Context, s *podcast.PodcastScript, roster []podcast.Speaker) (string, string, error) {
	profiles, err := p.resolve(p.roster(roster))
	if err != nil {
		return "", "", err
	}
	return p.render(ctx, s, profiles)
}

func (p *Pipeline) roster(override []podcast.Speaker) []podcast.Speaker {
	if len(override) > 0 {
		return override
	}
	return p.cfg.Podcast.Speakers
}

func (p *Pipeline) resolve(roster []podcast.Speaker) (*voice.Profiles, error) {
	if len(roster) == 0 {
		return nil, errors.New("no speakers: set podcast.speakers or pass pod_users")
	}
	profiles, err := voice.Resolve(roster, p.cfg.Podcast.Voices)
	if err != nil {
		return nil, fmt.Errorf("speaker resolution: %w", err)
	}
	if err := p.registry.Require(profiles.Backends()...); err != nil {
		return nil, fmt.Errorf("speaker resolution: %w", err)
	}
	return profiles, nil
}

func (p *Pipeline) render(ctx context.Context, s *podcast.PodcastScript, profiles *voice.Profiles) (string, string, error) {
	clips, err := p.orchestrator.Synthesize(ctx, s, profiles)
	if err != nil {
		return "", "", fmt.Errorf("synthesis stage: %w", err)
	}

	path, err := p.concat.Assemble(ctx, clips, s.Len())
	if err != nil {
		return "", "", fmt.Errorf("concatenation stage: %w", err)
	}

	duration := "00:00"
	if secs, err := audio.Duration(ctx, p.runner, path); err != nil {
		slog.Warn("could not probe output duration", "path", path, "error", err)
	} else {
		duration = audio.FormatDuration(secs)
	}
	return path, duration, nil
}
