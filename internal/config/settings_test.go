package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		require.Equal(t, DefaultSettings(), s)
	})

	t.Run("partial file keeps defaults for the rest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "casetriage.yaml")
		content := "ollama_host: http://gpu-box:11434\nmax_attempts: 5\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		s, err := LoadSettings(path)
		require.NoError(t, err)
		require.Equal(t, "http://gpu-box:11434", s.OllamaHost)
		require.Equal(t, 5, s.MaxAttempts)
		require.Equal(t, 120, s.TimeoutSeconds)
		require.Equal(t, "output/prompts", s.Paths.PromptsDir)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "casetriage.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_attempts: 0\n"), 0644))

		_, err := LoadSettings(path)
		require.Error(t, err)
		require.Contains(t, err.Error(), "max_attempts")
	})

	t.Run("malformed yaml errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "casetriage.yaml")
		require.NoError(t, os.WriteFile(path, []byte("::\n  - ["), 0644))

		_, err := LoadSettings(path)
		require.Error(t, err)
	})
}

func TestSettings_Durations(t *testing.T) {
	s := &Settings{TimeoutSeconds: 90, DelaySeconds: 1.5, BackoffSeconds: 0.5}
	require.Equal(t, 90*time.Second, s.Timeout())
	require.Equal(t, 1500*time.Millisecond, s.Delay())
	require.Equal(t, 500*time.Millisecond, s.Backoff())
}

func TestSettings_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casetriage.yaml")

	s := DefaultSettings()
	s.OllamaHost = "http://localhost:9999"
	s.DelaySeconds = 0.25
	require.NoError(t, s.Save(path))

	loaded, err := LoadSettings(path)
	require.NoError(t, err)
	require.Equal(t, s, loaded)
}
