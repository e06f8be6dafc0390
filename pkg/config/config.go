// Package config builds the hook's configuration once per process from the
// environment (and an optional YAML file) and hands it to the pipeline as a
// plain value.
package config

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// DefaultMaxResults is used when the request names no usable result limit.
	DefaultMaxResults = 20
	// DefaultTimeout bounds a single mgrep run.
	DefaultTimeout = 25 * time.Second
	// DefaultLogFileName is created under os.TempDir when MGREP_HOOK_LOG is unset.
	DefaultLogFileName = "mgrep-hook.log"
)

// Viper keys and the environment variables bound to them.
const (
	KeyLogFile        = "log_file"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyMaxResults     = "max_results"
	KeyTimeout        = "timeout"
	KeyDisable        = "disable"
	KeyBin            = "bin"
	KeyStore          = "store"
	KeyPluginRoot     = "plugin_root"
	KeyTracingEnabled = "tracing.enabled"
	KeyTracingSampler = "tracing.sampler"
	KeyTracingRatio   = "tracing.ratio"
)

var envBindings = map[string]string{
	KeyLogFile:        "MGREP_HOOK_LOG",
	KeyLogLevel:       "MGREP_HOOK_LOG_LEVEL",
	KeyLogFormat:      "MGREP_HOOK_LOG_FORMAT",
	KeyMaxResults:     "MGREP_HOOK_MAX_RESULTS",
	KeyTimeout:        "MGREP_HOOK_CMD_TIMEOUT",
	KeyDisable:        "MGREP_HOOK_DISABLE",
	KeyBin:            "MGREP_BIN",
	KeyStore:          "MGREP_STORE",
	KeyPluginRoot:     "CLAUDE_PLUGIN_ROOT",
	KeyTracingEnabled: "MGREP_HOOK_TRACING",
	KeyTracingSampler: "MGREP_HOOK_TRACING_SAMPLER",
	KeyTracingRatio:   "MGREP_HOOK_TRACING_RATIO",
}

// TracingConfig controls the optional OTLP exporter.
type TracingConfig struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Sampler string  `json:"sampler" yaml:"sampler"`
	Ratio   float64 `json:"ratio" yaml:"ratio"`
}

// Config is the resolved configuration for one hook invocation.
type Config struct {
	LogFile    string        `json:"log_file" yaml:"log_file"`
	LogLevel   string        `json:"log_level" yaml:"log_level"`
	LogFormat  string        `json:"log_format" yaml:"log_format"`
	MaxResults int           `json:"max_results" yaml:"max_results"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout"`
	Disabled   bool          `json:"disabled" yaml:"disabled"`
	Bin        string        `json:"bin,omitempty" yaml:"bin,omitempty"`
	Store      string        `json:"store,omitempty" yaml:"store,omitempty"`
	PluginRoot string        `json:"plugin_root,omitempty" yaml:"plugin_root,omitempty"`
	// TokenFile must exist for the hook to do anything. Its content is never read.
	TokenFile string        `json:"token_file" yaml:"token_file"`
	Tracing   TracingConfig `json:"tracing" yaml:"tracing"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		LogFile:    filepath.Join(os.TempDir(), DefaultLogFileName),
		LogLevel:   "info",
		LogFormat:  "fmt",
		MaxResults: DefaultMaxResults,
		Timeout:    DefaultTimeout,
		TokenFile:  DefaultTokenFile(),
		Tracing: TracingConfig{
			Sampler: "always",
			Ratio:   1,
		},
	}
}

// DefaultTokenFile returns ~/.mgrep/token.json, or "" when the home
// directory cannot be determined.
func DefaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mgrep", "token.json")
}

// NewViper returns a viper instance with every recognised environment
// variable bound to its key.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, env := range envBindings {
		// BindEnv only fails without arguments.
		_ = v.BindEnv(key, env)
	}
	return v
}

// ReadFile merges an optional YAML config file into v. Environment
// variables keep precedence. A missing file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	return nil
}

// DefaultFilePath is the optional per-user config file, ~/.mgrep/hook.yaml.
func DefaultFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mgrep", "hook.yaml")
}

// Load resolves the configuration from v. The returned Config is always
// usable: values that fail to parse fall back to their defaults, and each
// fallback is reported in the returned error.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	var result *multierror.Error

	if s := strings.TrimSpace(v.GetString(KeyLogFile)); s != "" {
		cfg.LogFile = s
	}
	if s := strings.TrimSpace(v.GetString(KeyLogLevel)); s != "" {
		cfg.LogLevel = s
	}
	if s := strings.TrimSpace(v.GetString(KeyLogFormat)); s != "" {
		cfg.LogFormat = s
	}

	if s := v.GetString(KeyMaxResults); s != "" {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			result = multierror.Append(result, errors.Errorf("invalid %s %q, using %d", envBindings[KeyMaxResults], s, cfg.MaxResults))
		} else {
			cfg.MaxResults = n
		}
	}

	if s := v.GetString(KeyTimeout); s != "" {
		timeout, err := parseSeconds(s)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "invalid %s %q, using %s", envBindings[KeyTimeout], s, cfg.Timeout))
		} else {
			cfg.Timeout = timeout
		}
	}

	cfg.Disabled = IsTruthy(v.GetString(KeyDisable))
	cfg.Bin = v.GetString(KeyBin)
	cfg.Store = v.GetString(KeyStore)
	cfg.PluginRoot = v.GetString(KeyPluginRoot)

	cfg.Tracing.Enabled = IsTruthy(v.GetString(KeyTracingEnabled))
	if s := strings.TrimSpace(v.GetString(KeyTracingSampler)); s != "" {
		cfg.Tracing.Sampler = s
	}
	if s := v.GetString(KeyTracingRatio); s != "" {
		ratio, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || ratio < 0 || ratio > 1 {
			result = multierror.Append(result, errors.Errorf("invalid %s %q, using %g", envBindings[KeyTracingRatio], s, cfg.Tracing.Ratio))
		} else {
			cfg.Tracing.Ratio = ratio
		}
	}

	return cfg, result.ErrorOrNil()
}

// IsTruthy reports whether s is one of 1, true, yes, on (case-insensitive).
func IsTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parseSeconds(s string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		return 0, errors.New("timeout must be a positive number of seconds")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// EnvVar returns the environment variable bound to key, or "".
func EnvVar(key string) string {
	return envBindings[key]
}
