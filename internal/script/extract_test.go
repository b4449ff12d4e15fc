package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/podsynth/internal/podcast"
)

const twoLines = `{"podcast_transcripts":[{"speaker_id":0,"dialog":"Hello"},{"speaker_id":1,"dialog":"Hi there"}]}`

func TestExtract_PlainObject(t *testing.T) {
	s, err := Extract(twoLines)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, podcast.Utterance{Index: 0, SpeakerID: 0, Dialog: "Hello"}, s.Transcripts[0])
	assert.Equal(t, podcast.Utterance{Index: 1, SpeakerID: 1, Dialog: "Hi there"}, s.Transcripts[1])
}

func TestExtract_ToleratesNoise(t *testing.T) {
	want, err := Extract(twoLines)
	require.NoError(t, err)

	cases := map[string]string{
		"prose prefix":          "Sure! Here is your script:\n" + twoLines,
		"markdown fence":        "```json\n" + twoLines + "\n```\nEnjoy.",
		"irrelevant json first": `{"note": "draft"} and then ` + twoLines,
		"array first":           `[1, 2, 3] ` + twoLines,
		"broken object first":   `{"podcast_transcripts": [ oops } ` + twoLines,
		"stray braces":          "a { b { c " + twoLines + " } trailing {",
		"long noise":            strings.Repeat("lorem ipsum { ", 200) + twoLines + strings.Repeat(" }", 50),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := Extract(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestExtract_NoScript(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json here",
		`{"other": 1}`,
		`{"podcast_transcripts": [`,
		`{ { {`,
	} {
		_, err := Extract(raw)
		assert.ErrorIs(t, err, ErrNoScript, "input %q", raw)
	}
}

func TestExtract_QualityGate(t *testing.T) {
	cases := map[string]string{
		"empty array":      `{"podcast_transcripts": []}`,
		"null array":       `{"podcast_transcripts": null}`,
		"missing speaker":  `{"podcast_transcripts": [{"dialog": "hi"}]}`,
		"missing dialog":   `{"podcast_transcripts": [{"speaker_id": 0}]}`,
		"blank dialog":     `{"podcast_transcripts": [{"speaker_id": 0, "dialog": "   "}]}`,
		"float speaker id": `{"podcast_transcripts": [{"speaker_id": 0.5, "dialog": "hi"}]}`,
		"one bad entry":    `{"podcast_transcripts": [{"speaker_id": 0, "dialog": "hi"}, {"speaker_id": 1, "dialog": ""}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Extract("prefix " + raw)
			assert.ErrorIs(t, err, ErrLowQuality)
		})
	}
}

func TestExtract_FirstScriptObjectWins(t *testing.T) {
	raw := `{"podcast_transcripts":[{"speaker_id":1,"dialog":"first"}]} {"podcast_transcripts":[{"speaker_id":0,"dialog":"second"}]}`
	s, err := Extract(raw)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "first", s.Transcripts[0].Dialog)
}
