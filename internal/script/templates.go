package script

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

//go:embed prompts/*.txt
var builtinPrompts embed.FS

// Templates holds the prompt templates for one run.
type Templates struct {
	Overview      string
	Script        string
	StoryOverview string
	StoryScript   string
}

// LoadTemplates reads the prompt templates from dir. An empty dir selects
// the built-in templates. Missing files in dir fall back to the built-in copy.
func LoadTemplates(dir string) (*Templates, error) {
	var override fs.FS
	if dir != "" {
		override = os.DirFS(dir)
	}

	read := func(name string) (string, error) {
		if override != nil {
			data, err := fs.ReadFile(override, name)
			if err == nil {
				return string(data), nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("reading prompt %s: %w", name, err)
			}
		}
		data, err := builtinPrompts.ReadFile("prompts/" + name)
		if err != nil {
			return "", fmt.Errorf("reading built-in prompt %s: %w", name, err)
		}
		return string(data), nil
	}

	var t Templates
	for name, dst := range map[string]*string{
		"overview.txt":        &t.Overview,
		"podscript.txt":       &t.Script,
		"story-overview.txt":  &t.StoryOverview,
		"story-podscript.txt": &t.StoryScript,
	} {
		s, err := read(name)
		if err != nil {
			return nil, err
		}
		*dst = s
	}
	return &t, nil
}
