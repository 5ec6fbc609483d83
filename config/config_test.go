package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/obs-ipc/errors"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "osn", cfg.Name)
	assert.Equal(t, 5*time.Second, cfg.CallTimeout)
	assert.Equal(t, "en-US", cfg.Engine.Locale)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := write(t, "osnctl.yaml", `
name: studio
call_timeout: 2s
engine:
  locale: de-DE
  volmeter_interval: 20ms
  module_paths:
    - bin: /opt/obs/plugins
      data: /opt/obs/data/%module%
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "studio", cfg.Name)
	assert.Equal(t, "osnctl", cfg.Client)
	assert.Equal(t, 2*time.Second, cfg.CallTimeout)
	assert.Equal(t, 20*time.Millisecond, cfg.Engine.VolmeterInterval)
	require.Len(t, cfg.Engine.ModulePaths, 1)
	assert.Equal(t, "/opt/obs/data/%module%", cfg.Engine.ModulePaths[0].Data)

	opts := cfg.SessionOptions()
	assert.Equal(t, 20*time.Millisecond, opts.Engine.VolmeterInterval)
	assert.Equal(t, 2*time.Second, opts.CallTimeout)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("STUDIO_DATA", "/srv/obs")
	path := write(t, "osnctl.yaml", "engine:\n  data_path: ${STUDIO_DATA}/data\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/obs/data", cfg.Engine.DataPath)
}

func TestLoad_NameFromEnvironment(t *testing.T) {
	t.Setenv("OSN_NAME", "ws://127.0.0.1:4455")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:4455", cfg.Name)
}

func TestLoadEnv(t *testing.T) {
	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := write(t, ".env", "OSN_TEST_DOTENV=yes\n")
	t.Cleanup(func() { _ = os.Unsetenv("OSN_TEST_DOTENV") })
	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "yes", os.Getenv("OSN_TEST_DOTENV"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Name = "" }},
		{"negative depth", func(c *Config) { c.LossyDepth = -1 }},
		{"short interval", func(c *Config) { c.Engine.VolmeterInterval = time.Microsecond }},
		{"module without bin", func(c *Config) { c.Engine.ModulePaths = []ModulePath{{Data: "x"}} }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.KindInvalidArgument, errors.KindOf(err))
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(write(t, "bad.yaml", "name: [unterminated\n"))
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Development = true
	l, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, l)
}
