// Package podcast defines the core data types flowing through the podsynth pipeline.
package podcast

import (
	"fmt"
	"regexp"
)

// Utterance is one line of dialogue attributed to a single speaker.
// It is immutable once extracted from a script.
type Utterance struct {
	// Index is the 0-based position of the line in the final recording.
	Index int `json:"-"`

	// SpeakerID is the ordinal of the speaker in the roster.
	SpeakerID int `json:"speaker_id"`

	// Dialog is the text to be spoken.
	Dialog string `json:"dialog"`
}

// dialogDisallowed matches everything outside the synthesis allow-list:
// Unicode word characters, whitespace, a fixed punctuation set and CJK ideographs.
var dialogDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s\-,，.。?？!！\x{4e00}-\x{9fa5}]`)

// SanitizedDialog returns the dialog with characters outside the allow-list removed.
func (u Utterance) SanitizedDialog() string {
	return dialogDisallowed.ReplaceAllString(u.Dialog, "")
}

// PodcastScript is the parsed and validated unit passed into synthesis.
type PodcastScript struct {
	Transcripts []Utterance `json:"podcast_transcripts"`
}

// Len returns the number of utterances in the script.
func (s *PodcastScript) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Transcripts)
}

// Speaker is one roster entry. Its position in the roster is its speaker ID.
type Speaker struct {
	// Code is the voice code, the join key into the voice catalog.
	Code string `json:"code" mapstructure:"code"`

	// Owner names the backend that synthesizes this speaker.
	Owner string `json:"owner,omitempty" mapstructure:"owner"`

	// Role is an optional description handed to the script generator.
	Role string `json:"role,omitempty" mapstructure:"role"`
}

// Voice is one entry of the voice catalog.
type Voice struct {
	Code             string  `json:"code" mapstructure:"code"`
	Name             string  `json:"name,omitempty" mapstructure:"name"`
	Alias            string  `json:"alias,omitempty" mapstructure:"alias"`
	UsedName         string  `json:"usedname,omitempty" mapstructure:"usedname"`
	VolumeAdjustment float64 `json:"volume_adjustment,omitempty" mapstructure:"volume_adjustment"`
	SpeedAdjustment  float64 `json:"speed_adjustment,omitempty" mapstructure:"speed_adjustment"`
}

// DisplayName returns the first non-empty of used name, alias and canonical name.
func (v Voice) DisplayName() string {
	switch {
	case v.UsedName != "":
		return v.UsedName
	case v.Alias != "":
		return v.Alias
	default:
		return v.Name
	}
}

// VoiceProfile is a speaker resolved to a concrete voice and backend.
type VoiceProfile struct {
	SpeakerID        int
	VoiceCode        string
	DisplayName      string
	Role             string
	BackendName      string
	VolumeAdjustment float64
	SpeedAdjustment  float64
}

// SynthesisResult is the untrimmed clip produced for one utterance.
// The trimming stage owns RawClipPath and deletes it once trimmed.
type SynthesisResult struct {
	Index       int
	RawClipPath string
}

// TrimmedClip is the final per-utterance audio.
type TrimmedClip struct {
	Index int
	Path  string
}

// String implements fmt.Stringer for log output.
func (c TrimmedClip) String() string {
	return fmt.Sprintf("#%d %s", c.Index, c.Path)
}

// Overview is the freeform summary generated ahead of the script.
type Overview struct {
	Title   string `json:"title"`
	Tags    string `json:"tags"`
	Content string `json:"overview_content"`
}

// Request is one podcast generation request.
type Request struct {
	// ID is a unique identifier for this run (UUID).
	ID string `json:"id,omitempty"`

	// Input is the source material the podcast is about. It may carry a
	// ```custom-begin ... ```custom-end block with extra generator instructions.
	Input string `json:"input"`

	// Speakers overrides the configured roster when non-empty.
	Speakers []Speaker `json:"pod_users,omitempty"`

	// OutputLanguage overrides the configured output language.
	OutputLanguage string `json:"output_language,omitempty"`

	// Usetime is the target running time handed to the generator (e.g. "5-6 minutes").
	Usetime string `json:"usetime,omitempty"`

	// Story switches to the story prompt set.
	Story bool `json:"story,omitempty"`
}

// Result is the outcome of one successful pipeline run.
type Result struct {
	// RequestID is the originating request ID.
	RequestID string `json:"request_id,omitempty"`

	// OutputPath is the finished audio file.
	OutputPath string `json:"output_audio_filepath"`

	// Duration is the audio length formatted as MM:SS.
	Duration string `json:"audio_duration"`

	Title    string         `json:"title"`
	Tags     string         `json:"tags"`
	Overview string         `json:"overview_content,omitempty"`
	Script   *PodcastScript `json:"podcast_script"`
	Speakers []Speaker      `json:"pod_users"`
}
