package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, cfg.Refresh.Interval)
	require.Equal(t, 100, cfg.API.PreviewLength)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, "lrms.db", cfg.DB.Path)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lrms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://file.example
  timeout: 3s
refresh:
  interval: 30s
log:
  level: debug
`), 0o644))

	t.Setenv("LRMS_CONFIG_PATH", path)
	t.Setenv("LRMS_API_BASE_URL", "https://env.example")
	t.Setenv("LRMS_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://env.example", cfg.API.BaseURL)
	require.Equal(t, 3*time.Second, cfg.API.Timeout)
	require.Equal(t, 30*time.Second, cfg.Refresh.Interval)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("LRMS_SERVER_PORT", "not-a-port")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Transport.Mode = "grpc"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Auth.Enabled = true
	require.Error(t, cfg.Validate())

	cfg.Auth.Token = "secret"
	require.NoError(t, cfg.Validate())
}
