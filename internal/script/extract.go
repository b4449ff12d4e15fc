// Package script recovers dialogue scripts from raw generator output.
//
// Language models rarely return bare JSON: the object is often wrapped in
// prose or markdown fences, sometimes preceded by unrelated JSON snippets.
// Extract scans the text for the first object carrying a
// "podcast_transcripts" key and applies a quality gate before accepting it.
package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nadzzz/podsynth/internal/podcast"
)

// TranscriptsKey is the top-level key of a podcast script object.
const TranscriptsKey = "podcast_transcripts"

var (
	// ErrNoScript is returned when no object with a podcast_transcripts key is found.
	ErrNoScript = errors.New("no podcast script object found")

	// ErrLowQuality is returned when a script object fails the quality gate.
	ErrLowQuality = errors.New("podcast script failed quality gate")
)

type rawTranscript struct {
	SpeakerID *json.Number `json:"speaker_id"`
	Dialog    *string      `json:"dialog"`
}

// Extract finds the first JSON object in raw that contains a
// podcast_transcripts key, validates it and returns the parsed script.
func Extract(raw string) (*podcast.PodcastScript, error) {
	obj, err := scan(raw)
	if err != nil {
		return nil, err
	}
	return validate(obj)
}

// scan walks raw left to right trying to decode a JSON value at each
// candidate position. Decodable values that are not script objects are
// skipped; on a decode failure the scan jumps to the next '{'.
func scan(raw string) (json.RawMessage, error) {
	idx := 0
	for idx < len(raw) {
		dec := json.NewDecoder(strings.NewReader(raw[idx:]))
		dec.UseNumber()

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			next := strings.IndexByte(raw[idx+1:], '{')
			if next == -1 {
				break
			}
			idx += next + 1
			continue
		}

		if isScriptObject(val) {
			return val, nil
		}

		end := int(dec.InputOffset())
		if end <= 0 {
			end = 1
		}
		idx += end
	}
	return nil, ErrNoScript
}

func isScriptObject(val json.RawMessage) bool {
	trimmed := bytes.TrimSpace(val)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return false
	}
	_, ok := fields[TranscriptsKey]
	return ok
}

// validate applies the quality gate: a non-empty transcripts array whose
// entries all carry a speaker_id and a non-blank dialog.
func validate(obj json.RawMessage) (*podcast.PodcastScript, error) {
	var doc struct {
		Transcripts []rawTranscript `json:"podcast_transcripts"`
	}
	dec := json.NewDecoder(bytes.NewReader(obj))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLowQuality, err)
	}
	if len(doc.Transcripts) == 0 {
		return nil, fmt.Errorf("%w: transcripts array is empty", ErrLowQuality)
	}

	script := &podcast.PodcastScript{
		Transcripts: make([]podcast.Utterance, 0, len(doc.Transcripts)),
	}
	for i, t := range doc.Transcripts {
		if t.SpeakerID == nil {
			return nil, fmt.Errorf("%w: entry %d has no speaker_id", ErrLowQuality, i)
		}
		speakerID, err := t.SpeakerID.Int64()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d has non-integer speaker_id %q", ErrLowQuality, i, t.SpeakerID.String())
		}
		if t.Dialog == nil || strings.TrimSpace(*t.Dialog) == "" {
			return nil, fmt.Errorf("%w: entry %d has empty dialog", ErrLowQuality, i)
		}
		script.Transcripts = append(script.Transcripts, podcast.Utterance{
			Index:     i,
			SpeakerID: int(speakerID),
			Dialog:    *t.Dialog,
		})
	}
	return script, nil
}
