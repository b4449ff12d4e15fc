package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/nadzzz/podsynth/internal/podcast"
)

// Concatenator assembles ordered clips into the final recording.
type Concatenator struct {
	runner Runner
	dir    string
	now    func() time.Time
}

// NewConcatenator creates a Concatenator that works in dir. Every clip
// passed to Assemble must live in dir.
func NewConcatenator(r Runner, dir string) *Concatenator {
	return &Concatenator{runner: r, dir: dir, now: time.Now}
}

// Assemble concatenates clips in order into an uncompressed WAV, encodes it
// to a 192 kbit/s MP3 and returns the MP3 path. Whatever the outcome, the
// clips, the manifest and the WAV are removed before it returns.
func (c *Concatenator) Assemble(ctx context.Context, clips []podcast.TrimmedClip, expected int) (path string, err error) {
	if len(clips) != expected {
		c.removeClips(clips)
		return "", fmt.Errorf("%w: expected %d clips, got %d", ErrCountMismatch, expected, len(clips))
	}
	if len(clips) == 0 {
		return "", fmt.Errorf("%w: no clips to assemble", ErrCountMismatch)
	}
	for i, clip := range clips {
		if clip.Index != i {
			c.removeClips(clips)
			return "", fmt.Errorf("%w: clip at position %d has index %d", ErrCountMismatch, i, clip.Index)
		}
	}

	base := strings.ReplaceAll(uuid.NewString(), "-", "") + fmt.Sprint(c.now().Unix())
	wavName := base + ".wav"
	mp3Name := base + ".mp3"

	manifest, err := c.writeManifest(clips)
	defer func() {
		c.removeClips(clips)
		if manifest != "" {
			removeQuiet(manifest)
		}
		removeQuiet(filepath.Join(c.dir, wavName))
	}()
	if err != nil {
		return "", fmt.Errorf("%w: writing manifest: %v", ErrConcat, err)
	}

	slog.Info("concatenating clips", "clips", len(clips), "output", mp3Name)

	err = c.runner.Run(ctx, Command{
		Name: "ffmpeg",
		Args: []string{
			"-hide_banner", "-loglevel", "error", "-y",
			"-f", "concat", "-safe", "0",
			"-i", filepath.Base(manifest),
			"-acodec", "pcm_s16le", "-ar", "44100", "-ac", "2",
			wavName,
		},
		Dir: c.dir,
	})
	if err != nil {
		return "", fmt.Errorf("%w: merging clips: %v", ErrConcat, err)
	}

	err = c.runner.Run(ctx, Command{
		Name: "ffmpeg",
		Args: []string{
			"-hide_banner", "-loglevel", "error", "-y",
			"-i", wavName,
			"-vn", "-b:a", "192k", "-acodec", "libmp3lame",
			mp3Name,
		},
		Dir: c.dir,
	})
	path = filepath.Join(c.dir, mp3Name)
	if err != nil {
		removeQuiet(path)
		return "", fmt.Errorf("%w: encoding mp3: %v", ErrConcat, err)
	}

	if fi, statErr := os.Stat(path); statErr == nil {
		slog.Info("podcast audio assembled", "path", path, "size", humanize.Bytes(uint64(fi.Size())))
	}
	return path, nil
}

// writeManifest writes the concat demuxer file list, one `file '<basename>'`
// line per clip.
func (c *Concatenator) writeManifest(clips []podcast.TrimmedClip) (string, error) {
	for _, clip := range clips {
		if filepath.Clean(filepath.Dir(clip.Path)) != filepath.Clean(c.dir) {
			return "", fmt.Errorf("clip %s is outside %s", clip.Path, c.dir)
		}
		if strings.Contains(filepath.Base(clip.Path), "'") {
			return "", fmt.Errorf("clip name %q contains a quote", filepath.Base(clip.Path))
		}
	}

	path := filepath.Join(c.dir, "file_list_"+strings.ReplaceAll(uuid.NewString(), "-", "")+".txt")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	w := bufio.NewWriter(f)
	for _, clip := range clips {
		fmt.Fprintf(w, "file '%s'\n", filepath.Base(clip.Path))
	}
	err = errors.Join(w.Flush(), f.Close())
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (c *Concatenator) removeClips(clips []podcast.TrimmedClip) {
	for _, clip := range clips {
		removeQuiet(clip.Path)
	}
}

func removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove intermediate file", "path", path, "error", err)
	}
}
