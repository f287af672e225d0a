// Package config loads runtime settings from flags, SUBGRAPH_* environment
// variables and an optional config file, in that order of precedence.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/subgraph-runtime/convert"
	"github.com/wippyai/subgraph-runtime/engine"
	"github.com/wippyai/subgraph-runtime/errors"
	"github.com/wippyai/subgraph-runtime/runtime"
)

const EnvPrefix = "SUBGRAPH"

// Config keys, as used in config files. Environment variables take the
// upper-cased key with '.' and '-' replaced by '_', e.g. SUBGRAPH_BRIDGE_MAX_DEPTH.
const (
	ConfigFileKey     = "config"
	EngineBackendKey  = "engine.backend"
	EngineMemoryKey   = "engine.memory-limit-pages"
	BridgeMaxDepthKey = "bridge.max-depth"
	LogLevelKey       = "log.level"
	LogDevelopmentKey = "log.development"
)

const (
	defaultBackend     = string(engine.BackendWazero)
	defaultMemoryLimit = uint32(0)
	defaultMaxDepth    = convert.DefaultMaxDepth
	defaultLogLevel    = "info"
)

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"config":             ConfigFileKey,
	"backend":            EngineBackendKey,
	"memory-limit-pages": EngineMemoryKey,
	"max-depth":          BridgeMaxDepthKey,
	"log-level":          LogLevelKey,
	"log-development":    LogDevelopmentKey,
}

type Config struct {
	Engine EngineConfig `mapstructure:"engine"`
	Bridge BridgeConfig `mapstructure:"bridge"`
	Log    LogConfig    `mapstructure:"log"`
}

type EngineConfig struct {
	Backend          string `mapstructure:"backend"`
	MemoryLimitPages uint32 `mapstructure:"memory-limit-pages"`
}

type BridgeConfig struct {
	MaxDepth int `mapstructure:"max-depth"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// AddFlags registers the config flags on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (YAML, TOML or JSON)")
	fs.String("backend", defaultBackend, "WebAssembly engine: wazero or wasmtime")
	fs.Uint32("memory-limit-pages", defaultMemoryLimit, "Per-instance memory limit in 64KB pages (0 = engine default)")
	fs.Int("max-depth", defaultMaxDepth, "Maximum nesting of tokens and values crossing the bridge")
	fs.String("log-level", defaultLogLevel, "Log level: debug, info, warn, error")
	fs.Bool("log-development", false, "Human-readable development logging")
}

// NewViper returns a viper bound to fs (which may be nil), the environment
// and the config file named by --config or SUBGRAPH_CONFIG.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(ConfigFileKey, "")
	v.SetDefault(EngineBackendKey, defaultBackend)
	v.SetDefault(EngineMemoryKey, defaultMemoryLimit)
	v.SetDefault(BridgeMaxDepthKey, defaultMaxDepth)
	v.SetDefault(LogLevelKey, defaultLogLevel)
	v.SetDefault(LogDevelopmentKey, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "bind flag "+name)
			}
		}
	}

	if path := v.GetString(ConfigFileKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "read config file "+path)
		}
	}
	return v, nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch engine.Backend(c.Engine.Backend) {
	case engine.BackendWazero, engine.BackendWasmtime:
	default:
		return invalid(EngineBackendKey, "unknown backend %q", c.Engine.Backend)
	}
	if c.Bridge.MaxDepth <= 0 {
		return invalid(BridgeMaxDepthKey, "must be positive, got %d", c.Bridge.MaxDepth)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid(LogLevelKey, "unknown level %q", c.Log.Level)
	}
	return nil
}

func invalid(key, format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(key).
		Detail(format, args...).
		Build()
}

// Logger builds the zap logger described by c.Log.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, invalid(LogLevelKey, "unknown level %q", c.Log.Level)
	}
	zcfg := zap.NewProductionConfig()
	if c.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// RuntimeOptions translates c into runtime options.
func (c Config) RuntimeOptions(logger *zap.Logger) []runtime.Option {
	return []runtime.Option{
		runtime.WithBackend(engine.Backend(c.Engine.Backend)),
		runtime.WithMemoryLimitPages(c.Engine.MemoryLimitPages),
		runtime.WithMaxDepth(c.Bridge.MaxDepth),
		runtime.WithLogger(logger),
	}
}
