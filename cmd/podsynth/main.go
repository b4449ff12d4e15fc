// Podsynth turns source material into a multi-speaker podcast: a language
// model writes the dialogue, text-to-speech backends voice every line and
// ffmpeg assembles the recording.
//
// Usage:
//
//	podsynth run --input topic.txt
//	podsynth run --script script.json
//	podsynth serve --config /path/to/podsynth.yaml
//	podsynth version
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nadzzz/podsynth/internal/config"
	"github.com/nadzzz/podsynth/internal/llm"
	"github.com/nadzzz/podsynth/internal/pipeline"
	"github.com/nadzzz/podsynth/internal/tts"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	// A missing .env is fine; the environment and config file are enough.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "podsynth",
		Short:         "Generate multi-speaker podcasts from source material",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file (e.g. configs/podsynth.yaml)")

	root.AddCommand(
		newRunCommand(&configFile),
		newServeCommand(&configFile),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "podsynth %s\n", version)
}

// app is everything a command needs to run pipelines.
type app struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	registry *tts.Registry
}

func (a *app) Close() {
	if err := a.registry.Close(); err != nil {
		slog.Warn("closing tts backends", "error", err)
	}
}

// loadApp loads configuration, sets up logging and builds the pipeline.
// adjust may tweak the configuration before anything is built.
func loadApp(configFile string, adjust func(*config.Config)) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if adjust != nil {
		adjust(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	config.SetupLogging(cfg.Logging)
	slog.Info("podsynth starting", "version", version)

	registry, err := pipeline.BuildRegistry(cfg.Backends)
	if err != nil {
		return nil, err
	}
	slog.Info("tts backends registered", "backends", registry.Names())

	deps := pipeline.Deps{Registry: registry}
	if cfg.LLM.APIKey != "" {
		gen, err := llm.New(llm.Config{APIKey: cfg.LLM.APIKey, BaseURL: cfg.LLM.BaseURL, Model: cfg.LLM.Model})
		if err != nil {
			registry.Close()
			return nil, err
		}
		deps.Generator = gen
		slog.Info("using chat model", "model", cfg.LLM.Model, "base_url", cfg.LLM.BaseURL)
	} else {
		slog.Warn("llm.api_key not set, only pre-written scripts can be rendered")
	}

	p, err := pipeline.New(cfg, deps)
	if err != nil {
		registry.Close()
		return nil, err
	}
	return &app{cfg: cfg, pipeline: p, registry: registry}, nil
}
