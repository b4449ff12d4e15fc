package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/podsynth/internal/podcast"
	"github.com/nadzzz/podsynth/internal/voice"
)

func TestCreatePodcast(t *testing.T) {
	dir := t.TempDir()
	tr := New(0, dir)

	var got *podcast.Request
	srv := httptest.NewServer(tr.Handler(func(_ context.Context, req *podcast.Request) (*podcast.Result, error) {
		got = req
		return &podcast.Result{
			RequestID:  "r1",
			OutputPath: filepath.Join(dir, "abc.mp3"),
			Duration:   "01:02",
			Title:      "Coffee",
			Script:     &podcast.PodcastScript{Transcripts: []podcast.Utterance{{SpeakerID: 0, Dialog: "Hello"}}},
		}, nil
	}))
	defer srv.Close()

	body := `{"input": "The history of coffee", "pod_users": [{"code": "v1", "owner": "edge-tts"}], "story": true}`
	resp, err := http.Post(srv.URL+"/podcasts", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/podcasts/abc.mp3", resp.Header.Get("Location"))

	var res map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "01:02", res["audio_duration"])
	assert.Equal(t, "Coffee", res["title"])
	assert.Contains(t, res, "podcast_script")

	require.NotNil(t, got)
	assert.Equal(t, "The history of coffee", got.Input)
	assert.True(t, got.Story)
	require.Len(t, got.Speakers, 1)
	assert.Equal(t, "edge-tts", got.Speakers[0].Owner)
}

func TestCreatePodcast_BadRequests(t *testing.T) {
	tr := New(0, t.TempDir())
	srv := httptest.NewServer(tr.Handler(func(context.Context, *podcast.Request) (*podcast.Result, error) {
		t.Fatal("handler must not be called")
		return nil, nil
	}))
	defer srv.Close()

	for _, body := range []string{`not json`, `{"input": "   "}`} {
		resp, err := http.Post(srv.URL+"/podcasts", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestCreatePodcast_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("speaker resolution: %w", voice.ErrMissingVoice), http.StatusUnprocessableEntity},
		{errors.New("ffmpeg exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		tr := New(0, t.TempDir())
		srv := httptest.NewServer(tr.Handler(func(context.Context, *podcast.Request) (*podcast.Result, error) {
			return nil, tt.err
		}))
		resp, err := http.Post(srv.URL+"/podcasts", "application/json", bytes.NewBufferString(`{"input": "x"}`))
		require.NoError(t, err)
		resp.Body.Close()
		srv.Close()
		assert.Equal(t, tt.want, resp.StatusCode)
	}
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.mp3"), []byte("ID3 audio"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file_list_x.txt"), []byte("secret"), 0o644))

	srv := httptest.NewServer(New(0, dir).Handler(nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/podcasts/abc.mp3")
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ID3 audio", string(data))

	for _, path := range []string{"/podcasts/file_list_x.txt", "/podcasts/missing.mp3", "/podcasts/..%2Fabc.mp3"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}
