package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/subgraph-runtime/errors"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func load(t *testing.T, fs *pflag.FlagSet) (Config, error) {
	t.Helper()
	v, err := NewViper(fs)
	require.NoError(t, err)
	return Load(v)
}

func TestDefaults(t *testing.T) {
	cfg, err := load(t, newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, "wazero", cfg.Engine.Backend)
	assert.Equal(t, uint32(0), cfg.Engine.MemoryLimitPages)
	assert.Equal(t, 64, cfg.Bridge.MaxDepth)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Development)

	cfg, err = load(t, nil)
	require.NoError(t, err)
	assert.Equal(t, "wazero", cfg.Engine.Backend)
}

func TestFlags(t *testing.T) {
	cfg, err := load(t, newFlags(t,
		"--backend", "wasmtime",
		"--memory-limit-pages", "256",
		"--max-depth", "8",
		"--log-level", "debug",
		"--log-development"))
	require.NoError(t, err)
	assert.Equal(t, "wasmtime", cfg.Engine.Backend)
	assert.Equal(t, uint32(256), cfg.Engine.MemoryLimitPages)
	assert.Equal(t, 8, cfg.Bridge.MaxDepth)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
}

func TestEnv(t *testing.T) {
	t.Setenv("SUBGRAPH_ENGINE_MEMORY_LIMIT_PAGES", "16")
	t.Setenv("SUBGRAPH_BRIDGE_MAX_DEPTH", "4")

	cfg, err := load(t, newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, uint32(16), cfg.Engine.MemoryLimitPages)
	assert.Equal(t, 4, cfg.Bridge.MaxDepth)

	// Flags win over the environment.
	cfg, err = load(t, newFlags(t, "--max-depth", "9"))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Bridge.MaxDepth)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subgraph.yaml")
	doc := "engine:\n  backend: wasmtime\n  memory-limit-pages: 32\nbridge:\n  max-depth: 12\nlog:\n  level: warn\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := load(t, newFlags(t, "--config", path))
	require.NoError(t, err)
	assert.Equal(t, "wasmtime", cfg.Engine.Backend)
	assert.Equal(t, uint32(32), cfg.Engine.MemoryLimitPages)
	assert.Equal(t, 12, cfg.Bridge.MaxDepth)
	assert.Equal(t, "warn", cfg.Log.Level)

	_, err = NewViper(newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.True(t, errors.IsKind(err, errors.KindInvalidData), "%v", err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Engine: EngineConfig{Backend: "wazero"},
		Bridge: BridgeConfig{MaxDepth: 64},
		Log:    LogConfig{Level: "info"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"backend", func(c *Config) { c.Engine.Backend = "v8" }, EngineBackendKey},
		{"depth", func(c *Config) { c.Bridge.MaxDepth = 0 }, BridgeMaxDepthKey},
		{"level", func(c *Config) { c.Log.Level = "loud" }, LogLevelKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var e *errors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, errors.PhaseConfig, e.Phase)
			assert.Equal(t, []string{tt.key}, e.Path)
		})
	}

	_, err := load(t, newFlags(t, "--backend", "v8"))
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestLoggerAndOptions(t *testing.T) {
	cfg := Config{
		Engine: EngineConfig{Backend: "wazero", MemoryLimitPages: 8},
		Bridge: BridgeConfig{MaxDepth: 3},
		Log:    LogConfig{Level: "debug", Development: true},
	}
	logger, err := cfg.Logger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	cfg.Log.Development = false
	cfg.Log.Level = "error"
	logger, err = cfg.Logger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0))

	assert.Len(t, cfg.RuntimeOptions(logger), 4)
}
