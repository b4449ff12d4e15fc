package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSynth struct{ closed bool }

func (s *nopSynth) Synthesize(context.Context, Request) (string, error) { return "", nil }
func (s *nopSynth) Close() error                                       { s.closed = true; return nil }

func TestErrorKinds(t *testing.T) {
	base := errors.New("socket closed")

	tr := Transient(base)
	assert.True(t, IsTransient(tr))
	assert.True(t, IsBackendError(tr))
	assert.ErrorIs(t, tr, base)
	assert.Equal(t, "socket closed", tr.Error())

	fa := Fatal(base)
	assert.False(t, IsTransient(fa))
	assert.True(t, IsBackendError(fa))
	assert.ErrorIs(t, fa, ErrFatal)

	assert.False(t, IsBackendError(base))
	assert.Nil(t, Transient(nil))
	assert.Nil(t, Fatal(nil))
}

func TestStatusError(t *testing.T) {
	for status, transient := range map[int]bool{
		400: false, 401: false, 404: false,
		408: true, 429: true, 500: true, 503: true,
	} {
		err := StatusError("edge-tts", status, []byte("body"))
		assert.Equal(t, transient, IsTransient(err), "status %d", status)
		assert.Contains(t, err.Error(), "body")
	}
}

func TestRegistry(t *testing.T) {
	a, b := &nopSynth{}, &nopSynth{}
	r := NewRegistry(map[string]Synthesizer{"edge-tts": a, "piper": b, "nil": nil})

	assert.Equal(t, []string{"edge-tts", "piper"}, r.Names())

	got, err := r.Get("piper")
	require.NoError(t, err)
	assert.Same(t, b, got)

	_, err = r.Get("minimax")
	assert.ErrorIs(t, err, ErrUnsupportedBackend)

	assert.NoError(t, r.Require("edge-tts", "piper"))
	assert.ErrorIs(t, r.Require("edge-tts", "minimax"), ErrUnsupportedBackend)

	require.NoError(t, r.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestWriteClip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	path, n, err := WriteClip(dir, ".mp3", strings.NewReader("audio-bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, ".mp3", filepath.Ext(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))

	_, _, err = WriteClip(dir, "mp3", strings.NewReader(""))
	assert.True(t, IsTransient(err))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "empty clip must be removed")
}
