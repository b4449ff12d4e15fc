package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	// SilenceThreshold is the level below which audio counts as silence.
	SilenceThreshold = "-60dB"

	// MinSilence is the shortest run, in seconds, reported as silence.
	MinSilence = 0.5

	// GuardPadding is kept next to every trimmed silence boundary, in seconds.
	GuardPadding = 0.2

	// minWindow is the shortest trim window that is still applied.
	minWindow = 0.01
)

var silenceLine = regexp.MustCompile(`silence_(start|end): (-?\d+(?:\.\d+)?)`)

// Silence holds the boundaries reported by ffmpeg's silencedetect filter, in seconds.
type Silence struct {
	Starts []float64
	Ends   []float64
}

// DetectSilence runs silencedetect over path, parsing ffmpeg's log as it streams.
func DetectSilence(ctx context.Context, r Runner, path string) (Silence, error) {
	pr, pw := io.Pipe()
	errc := make(chan error, 1)
	go func() {
		err := r.Run(ctx, Command{
			Name: "ffmpeg",
			Args: []string{
				"-hide_banner", "-nostats",
				"-i", path,
				"-af", fmt.Sprintf("silencedetect=n=%s:d=%s", SilenceThreshold, strconv.FormatFloat(MinSilence, 'f', -1, 64)),
				"-f", "null", "-",
			},
			Stderr: pw,
		})
		pw.CloseWithError(err)
		errc <- err
	}()

	var s Silence
	sc := bufio.NewScanner(pr)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		m := silenceLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if m[1] == "start" {
			s.Starts = append(s.Starts, v)
		} else {
			s.Ends = append(s.Ends, v)
		}
	}
	// Keep ffmpeg from blocking on a full pipe if the scanner gave up early.
	_, _ = io.Copy(io.Discard, pr)

	if err := <-errc; err != nil {
		return Silence{}, fmt.Errorf("detecting silence in %s: %w", path, err)
	}
	if err := sc.Err(); err != nil {
		return Silence{}, fmt.Errorf("reading silencedetect output: %w", err)
	}
	return s, nil
}

// Window is the region of a clip kept by trimming, in seconds.
type Window struct {
	Start float64
	End   float64
}

// Len returns the window length.
func (w Window) Len() float64 { return w.End - w.Start }

// TrimWindow computes the region to keep from a clip of the given duration.
// Leading silence (an interval starting at 0) is cut to GuardPadding before
// its end; trailing silence (an interval ending within MinSilence of the
// clip end) is cut to GuardPadding after its start.
func TrimWindow(duration float64, s Silence) Window {
	w := Window{Start: 0, End: duration}
	if len(s.Starts) == 0 || len(s.Ends) == 0 {
		return w
	}
	if s.Starts[0] <= 0 {
		w.Start = max(0, s.Ends[0]-GuardPadding)
	}
	if s.Ends[len(s.Ends)-1] >= duration-MinSilence {
		w.End = min(duration, s.Starts[len(s.Starts)-1]+GuardPadding)
	}
	return w
}

// Trimmer removes leading and trailing dead air from clips.
type Trimmer struct {
	runner Runner
}

// NewTrimmer creates a Trimmer that shells out through r.
func NewTrimmer(r Runner) *Trimmer {
	return &Trimmer{runner: r}
}

// TrimmedPath is where Trim writes the trimmed version of raw.
func TrimmedPath(raw string) string {
	return filepath.Join(filepath.Dir(raw), "trimmed_"+filepath.Base(raw))
}

// Trim writes a trimmed copy of raw next to it and returns its path. The
// raw clip is left in place. When disabled, or when trimming would be
// unsafe, the output is a byte-identical copy.
func (t *Trimmer) Trim(ctx context.Context, raw string, enabled bool) (string, error) {
	out := TrimmedPath(raw)
	log := slog.With("clip", filepath.Base(raw))

	if !enabled {
		return out, t.copy(raw, out)
	}

	dur, err := Duration(ctx, t.runner, raw)
	if err != nil {
		log.Warn("could not determine clip duration, copying without trim", "error", err)
		return out, t.copy(raw, out)
	}

	silence, err := DetectSilence(ctx, t.runner, raw)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Warn("silence detection failed, copying without trim", "error", err)
		return out, t.copy(raw, out)
	}

	w := TrimWindow(dur, silence)
	switch {
	case w.Len() <= minWindow:
		log.Info("trim window too short, copying original", "start", w.Start, "end", w.End)
		return out, t.copy(raw, out)
	case w.Start == 0 && w.End == dur:
		log.Debug("no leading or trailing silence")
		return out, t.copy(raw, out)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", formatSeconds(w.Start),
		"-i", raw,
		"-t", formatSeconds(w.Len()),
		"-avoid_negative_ts", "auto",
	}
	if strings.EqualFold(filepath.Ext(raw), ".mp3") {
		args = append(args, "-c:a", "libmp3lame", "-q:a", "2")
	}
	args = append(args, out)

	if err := t.runner.Run(ctx, Command{Name: "ffmpeg", Args: args}); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("trimming %s: %w", raw, err)
	}
	log.Debug("clip trimmed", "start", w.Start, "end", w.End, "original_duration", dur)
	return out, nil
}

func (t *Trimmer) copy(raw, out string) error {
	if err := copyFile(raw, out); err != nil {
		return fmt.Errorf("copying %s: %w", raw, err)
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
