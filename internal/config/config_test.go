package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, "text", cfg.Dump.Format)
	assert.Equal(t, "-", cfg.Dump.Input)
	assert.Equal(t, uint32(8216), cfg.Dump.MaxMsize)
	assert.Equal(t, 3, cfg.Dial.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Dial.InitialBackoff)
	assert.Equal(t, 5*time.Second, cfg.Dial.MaxBackoff)
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
dump:
  format: YAML
  input: trace.bin
  max_msize: 64KiB
dial:
  initial_backoff: 250ms
  max_backoff: 2s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "yaml", cfg.Dump.Format)
	assert.Equal(t, "trace.bin", cfg.Dump.Input)
	assert.Equal(t, uint32(65536), cfg.Dump.MaxMsize)
	assert.Equal(t, 250*time.Millisecond, cfg.Dial.InitialBackoff)
	assert.Equal(t, 2*time.Second, cfg.Dial.MaxBackoff)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("NINEP_DUMP_FORMAT", "json")
	t.Setenv("NINEP_DIAL_MAX_RETRIES", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Dump.Format)
	assert.Equal(t, 7, cfg.Dial.MaxRetries)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"format":  "dump:\n  format: xml\n",
		"level":   "logging:\n  level: loud\n",
		"msize":   "dump:\n  max_msize: 3\n",
		"backoff": "dial:\n  initial_backoff: 2s\n  max_backoff: 1s\n",
		"size":    "dump:\n  max_msize: lots\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
