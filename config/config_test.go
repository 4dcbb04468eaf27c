package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("COLORIFY_CONFIG", "")
	t.Setenv("COLORIFY_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7860", cfg.Addr)
	require.Equal(t, DefaultModelID, cfg.Model.ID)
	require.Equal(t, DefaultTask, cfg.Model.Task)
	require.Equal(t, 512, cfg.Model.InputSize)
	require.Equal(t, "models", filepath.Base(cfg.Model.CacheDir))
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colorify.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
model:
  id: acme/ddcolor-tiny
  input_size: 256
  timeout: 30s
log:
  level: debug
`), 0o644))

	t.Setenv("COLORIFY_CONFIG", path)
	t.Setenv("COLORIFY_ADDR", ":9100")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9100", cfg.Addr)
	require.Equal(t, "acme/ddcolor-tiny", cfg.Model.ID)
	require.Equal(t, 256, cfg.Model.InputSize)
	require.Equal(t, 30*time.Second, cfg.Model.Timeout)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "123:abc", cfg.TelegramToken)
}

func TestLoad_BadInputSize(t *testing.T) {
	t.Setenv("COLORIFY_CONFIG", "")
	t.Setenv("COLORIFY_INPUT_SIZE", "500")

	_, err := Load()
	require.ErrorContains(t, err, "multiple of 32")

	t.Setenv("COLORIFY_INPUT_SIZE", "big")
	_, err = Load()
	require.Error(t, err)
}

func TestPrepareCache_PublishesEnv(t *testing.T) {
	cfg := Default()
	cfg.Model.CacheDir = filepath.Join(t.TempDir(), "cache")
	t.Setenv(CacheEnv, "")

	require.NoError(t, cfg.PrepareCache())
	require.DirExists(t, cfg.Model.CacheDir)
	require.Equal(t, cfg.Model.CacheDir, os.Getenv(CacheEnv))
}

func TestLoad_URLTemplateFromEnv(t *testing.T) {
	t.Setenv("COLORIFY_CONFIG", "")
	t.Setenv("COLORIFY_MODEL_URL_TEMPLATE", "https://mirror.local/{model}/{file}")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://mirror.local/{model}/{file}", cfg.Model.URLTemplate)
}
