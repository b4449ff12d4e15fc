package tts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// NewClipPath returns a unique clip path in dir with the given extension.
func NewClipPath(dir, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return filepath.Join(dir, fmt.Sprintf("clip_%s.%s", strings.ReplaceAll(uuid.NewString(), "-", ""), ext))
}

// WriteClip streams r into a new clip file in dir and returns its path.
// A partially written file is removed on error.
func WriteClip(dir, ext string, r io.Reader) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, Fatal(fmt.Errorf("creating output dir: %w", err))
	}

	path := NewClipPath(dir, ext)
	f, err := os.Create(path)
	if err != nil {
		return "", 0, Fatal(fmt.Errorf("creating clip file: %w", err))
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, Transient(fmt.Errorf("writing clip: %w", err))
	}
	if n == 0 {
		os.Remove(path)
		return "", 0, Transient(fmt.Errorf("backend returned empty audio"))
	}
	return path, n, nil
}
