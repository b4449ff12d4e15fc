// Package audio wraps ffmpeg and ffprobe: duration probing, silence
// detection and trimming of per-utterance clips, and assembly of the
// final recording.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

var (
	// ErrCountMismatch is returned when the clip count differs from the transcript count.
	ErrCountMismatch = errors.New("audio clip count mismatch")

	// ErrConcat is returned when concatenation or the final encode fails.
	ErrConcat = errors.New("audio concatenation failed")
)

// Command is one external tool invocation.
type Command struct {
	Name string
	Args []string

	// Dir is the working directory; empty means the current one.
	Dir string

	Stdout io.Writer
	Stderr io.Writer
}

// Runner executes external commands. ExecRunner is the production
// implementation; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes cmd and waits for it. A failed command's error carries the
// tail of its stderr.
func (ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout

	tail := &tailBuffer{max: 2048}
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(c.Stderr, tail)
	} else {
		cmd.Stderr = tail
	}

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(tail.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.Name, err, msg)
		}
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	return nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string { return t.buf.String() }

// Duration returns the length of the audio file at path, in seconds, using ffprobe.
func Duration(ctx context.Context, r Runner, path string) (float64, error) {
	var out bytes.Buffer
	err := r.Run(ctx, Command{
		Name: "ffprobe",
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			path,
		},
		Stdout: &out,
	})
	if err != nil {
		return 0, fmt.Errorf("probing duration of %s: %w", path, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(out.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration of %s: %w", path, err)
	}
	return d, nil
}

// FormatDuration renders seconds as MM:SS. Minutes are not capped at 59.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// copyFile copies src to dst byte for byte.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
