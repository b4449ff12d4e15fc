package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
pipeline:
  output_dir: /tmp/podsynth-out
  concurrency: 4
  trim_silence: false
llm:
  api_key: ${PODSYNTH_TEST_LLM_KEY}
  model: gpt-4o-mini
podcast:
  speakers:
    - code: zh-CN-XiaoxiaoNeural
      owner: edge-tts
      role: host
    - code: af_nova
      owner: kokoro
  voices:
    - code: zh-CN-XiaoxiaoNeural
      name: Xiaoxiao
      usedname: Lily
      volume_adjustment: 1.5
    - code: af_nova
      alias: Nova
      speed_adjustment: -0.1
backends:
  edge-tts:
    type: http
    url_template: "http://localhost:5050/tts?t={{text}}&v={{voiceCode}}"
    rate_limit: 2
    timeout: 30s
  kokoro:
    type: openai
    endpoint: http://localhost:8880/v1
    api_key: ${PODSYNTH_TEST_TTS_KEY}
    model: kokoro
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "podsynth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_File(t *testing.T) {
	t.Setenv("PODSYNTH_TEST_LLM_KEY", "sk-llm")
	t.Setenv("PODSYNTH_TEST_TTS_KEY", "sk-tts")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/podsynth-out", cfg.Pipeline.OutputDir)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
	assert.False(t, cfg.Pipeline.TrimSilence)
	assert.Equal(t, 3, cfg.Pipeline.MaxRetries)
	assert.Equal(t, time.Second, cfg.Pipeline.RetryBaseDelay)
	assert.Equal(t, "sk-llm", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)

	require.Len(t, cfg.Podcast.Speakers, 2)
	assert.Equal(t, "kokoro", cfg.Podcast.Speakers[1].Owner)
	require.Len(t, cfg.Podcast.Voices, 2)
	assert.Equal(t, "Lily", cfg.Podcast.Voices[0].UsedName)
	assert.Equal(t, 1.5, cfg.Podcast.Voices[0].VolumeAdjustment)
	assert.Equal(t, -0.1, cfg.Podcast.Voices[1].SpeedAdjustment)

	edge := cfg.Backends["edge-tts"]
	assert.Equal(t, "http", edge.Type)
	assert.Equal(t, 2.0, edge.RateLimit)
	assert.Equal(t, 30*time.Second, edge.Timeout)
	assert.Equal(t, "sk-tts", cfg.Backends["kokoro"].APIKey)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "output", cfg.Pipeline.OutputDir)
	assert.Equal(t, 1, cfg.Pipeline.Concurrency)
	assert.True(t, cfg.Pipeline.TrimSilence)
	assert.Equal(t, 3, cfg.Pipeline.ScriptAttempts)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PODSYNTH_PIPELINE_CONCURRENCY", "8")
	cfg, err := Load(writeConfig(t, "pipeline:\n  concurrency: 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Pipeline.Concurrency)
}

func TestLoad_InvalidBackendType(t *testing.T) {
	_, err := Load(writeConfig(t, "backends:\n  foo:\n    type: carrier-pigeon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backends.foo")
}

func TestLoad_InvalidConcurrency(t *testing.T) {
	_, err := Load(writeConfig(t, "pipeline:\n  concurrency: 0\n"))
	assert.Error(t, err)
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("PODSYNTH_TEST_REF", "value")
	assert.Equal(t, "value", resolveEnvRef("${PODSYNTH_TEST_REF}"))
	assert.Equal(t, "${PODSYNTH_TEST_UNSET}", resolveEnvRef("${PODSYNTH_TEST_UNSET}"))
	assert.Equal(t, "plain", resolveEnvRef("plain"))
}
