package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) (int, readiness) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body readiness
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestReadiness(t *testing.T) {
	s := New(0)
	h := s.Handler()

	code, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	code, body = get(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body.Status)

	s.SetReady(true)
	code, body = get(t, h, "/readyz")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body.Checks)
}

func TestReadiness_FailingCheck(t *testing.T) {
	s := New(0)
	s.SetReady(true)
	s.AddCheck("output_dir", func(context.Context) error { return nil })
	s.AddCheck("ffmpeg", func(context.Context) error { return errors.New("ffmpeg not found on PATH") })

	code, body := get(t, s.Handler(), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["output_dir"])
	assert.Equal(t, "ffmpeg not found on PATH", body.Checks["ffmpeg"])

	s.AddCheck("ffmpeg", func(context.Context) error { return nil })
	code, _ = get(t, s.Handler(), "/readyz")
	assert.Equal(t, http.StatusOK, code)
}

func TestWritableDirCheck(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WritableDirCheck(dir)(context.Background()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Error(t, WritableDirCheck(filepath.Join(dir, "missing"))(context.Background()))
}

func TestBinaryCheck(t *testing.T) {
	assert.Error(t, BinaryCheck("podsynth-no-such-binary")(context.Background()))
}
