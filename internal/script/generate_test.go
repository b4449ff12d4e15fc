package script

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator replays a fixed sequence of responses.
type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (g *scriptedGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	i := g.calls
	g.calls++
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", errors.New("no more responses")
}

func newTestFetcher(gen Generator, slept *[]time.Duration) *Fetcher {
	f := NewFetcher(gen, 3, time.Second)
	f.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return f
}

func TestFetcherScript_RetriesStructuralFailuresWithoutDelay(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"I cannot do that.",
		`{"podcast_transcripts": []}`,
		"```json\n" + twoLines + "\n```",
	}}
	var slept []time.Duration

	s, err := newTestFetcher(gen, &slept).Script(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, gen.calls)
	assert.Empty(t, slept)
}

func TestFetcherScript_TransportFailuresBackOff(t *testing.T) {
	boom := errors.New("connection reset")
	gen := &scriptedGenerator{
		errs:      []error{boom, boom},
		responses: []string{"", "", twoLines},
	}
	var slept []time.Duration

	s, err := newTestFetcher(gen, &slept).Script(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, slept)
}

func TestFetcherScript_ExhaustedNamesRawContent(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"nope", "still nope", "never json"}}
	var slept []time.Duration

	_, err := newTestFetcher(gen, &slept).Script(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoScript)
	assert.Contains(t, err.Error(), "never json")
	assert.Equal(t, 3, gen.calls)
}

func TestFetcherOverview(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"T",
		"Deep Sea Robots\n\n  robots, ocean, science \nThis episode explores how autonomous robots map the deep sea floor.",
	}}
	var slept []time.Duration

	ov, err := newTestFetcher(gen, &slept).Overview(context.Background(), "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "Deep Sea Robots", ov.Title)
	assert.Equal(t, "robots, ocean, science", ov.Tags)
	assert.Equal(t, "This episode explores how autonomous robots map the deep sea floor.", ov.Content)
	assert.Equal(t, 2, gen.calls)
}

func TestParseOverview(t *testing.T) {
	tests := []struct {
		name              string
		raw               string
		title, tags, body string
	}{
		{"compact", "Title\ntags\nbody one\nbody two", "Title", "tags", "body one\nbody two"},
		{"blank lines before tags", "Title\n\n\ntags\nbody", "Title", "tags", "body"},
		{"no tags in window", "Title\n\n\n\nlate tags\nbody", "Title", "", "late tags\nbody"},
		{"title only", "  Title  ", "Title", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ov := ParseOverview(tt.raw)
			assert.Equal(t, tt.title, ov.Title)
			assert.Equal(t, tt.tags, ov.Tags)
			assert.Equal(t, tt.body, ov.Content)
		})
	}
}
