package podcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizedDialog(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello, world.", "Hello, world."},
		{"strips symbols", "Hi *there* (friend) #1 :)", "Hi there friend 1 "},
		{"keeps cjk punctuation", "你好，世界！今天怎么样？", "你好，世界！今天怎么样？"},
		{"strips quotes and emoji", `"Wow" 🎉 ok`, "Wow  ok"},
		{"keeps hyphen", "state-of-the-art", "state-of-the-art"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Utterance{Dialog: tt.in}.SanitizedDialog())
		})
	}
}

func TestVoiceDisplayName(t *testing.T) {
	assert.Equal(t, "Used", Voice{UsedName: "Used", Alias: "Alias", Name: "Name"}.DisplayName())
	assert.Equal(t, "Alias", Voice{Alias: "Alias", Name: "Name"}.DisplayName())
	assert.Equal(t, "Name", Voice{Name: "Name"}.DisplayName())
	assert.Empty(t, Voice{Code: "x"}.DisplayName())
}

func TestPodcastScriptLen(t *testing.T) {
	var s *PodcastScript
	assert.Equal(t, 0, s.Len())
	s = &PodcastScript{Transcripts: []Utterance{{Dialog: "a"}, {Dialog: "b"}}}
	assert.Equal(t, 2, s.Len())
}
