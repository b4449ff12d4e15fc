package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nadzzz/podsynth/internal/config"
	"github.com/nadzzz/podsynth/internal/podcast"
	"github.com/nadzzz/podsynth/internal/script"
)

type runOptions struct {
	input          string
	scriptFile     string
	speakersFile   string
	outputLanguage string
	usetime        string
	story          bool
	concurrency    int
	noTrim         bool
}

func newRunCommand(configFile *string) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate one podcast and print the result as JSON",
		Long: "Generate one podcast. With --input the language model writes the overview and\n" +
			"script first; with --script an existing podcast_transcripts document is voiced as is.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (opts.input == "") == (opts.scriptFile == "") {
				return errors.New("exactly one of --input or --script is required")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := loadApp(*configFile, func(cfg *config.Config) {
				if cmd.Flags().Changed("concurrency") {
					cfg.Pipeline.Concurrency = opts.concurrency
				}
				if opts.noTrim {
					cfg.Pipeline.TrimSilence = false
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := runOnce(ctx, a, opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "file with the source material")
	cmd.Flags().StringVarP(&opts.scriptFile, "script", "s", "", "file with a ready podcast_transcripts document")
	cmd.Flags().StringVar(&opts.speakersFile, "speakers", "", "JSON file with the speaker roster (overrides podcast.speakers)")
	cmd.Flags().StringVar(&opts.outputLanguage, "output-language", "", "language of the overview and script")
	cmd.Flags().StringVar(&opts.usetime, "usetime", "", "target running time, e.g. \"5-6 minutes\"")
	cmd.Flags().BoolVar(&opts.story, "story", false, "use the story prompts")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "t", 1, "number of parallel synthesis workers")
	cmd.Flags().BoolVar(&opts.noTrim, "no-trim", false, "keep leading and trailing silence")
	return cmd
}

func runOnce(ctx context.Context, a *app, opts runOptions) (*podcast.Result, error) {
	var roster []podcast.Speaker
	if opts.speakersFile != "" {
		data, err := os.ReadFile(opts.speakersFile)
		if err != nil {
			return nil, fmt.Errorf("reading speakers: %w", err)
		}
		if err := json.Unmarshal(data, &roster); err != nil {
			return nil, fmt.Errorf("parsing speakers: %w", err)
		}
	}

	if opts.scriptFile != "" {
		data, err := os.ReadFile(opts.scriptFile)
		if err != nil {
			return nil, fmt.Errorf("reading script: %w", err)
		}
		s, err := script.Extract(string(data))
		if err != nil {
			return nil, err
		}
		path, duration, err := a.pipeline.Render(ctx, s, roster)
		if err != nil {
			return nil, err
		}
		if len(roster) == 0 {
			roster = a.cfg.Podcast.Speakers
		}
		return &podcast.Result{OutputPath: path, Duration: duration, Script: s, Speakers: roster}, nil
	}

	data, err := os.ReadFile(opts.input)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return a.pipeline.Run(ctx, &podcast.Request{
		Input:          string(data),
		Speakers:       roster,
		OutputLanguage: opts.outputLanguage,
		Usetime:        opts.usetime,
		Story:          opts.story,
	})
}
