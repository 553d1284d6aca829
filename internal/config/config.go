package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config wraps a viper instance and provides typed accessors for every
// configuration key. Create one via New().
type Config struct {
	v *viper.Viper
}

// New initialises a Config by loading values from environment
// variables, the config file, and compiled defaults (in that priority
// order; CLI flags, bound later via BindFlags, take highest priority).
func New() (*Config, error) {
	v := viper.New()

	for _, o := range Options {
		v.SetDefault(o.Key, o.Default)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/flutter-mcp/")

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !(errors.As(err, &notFoundErr) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables use their exact spec §6 names, no prefix
	// (spec §4.M); unknown environment variables are simply ignored
	// since viper only reads keys it was told to look for.
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return &Config{v: v}, nil
}

// BindFlags registers CLI flags for every known option and binds them
// to the underlying viper keys so that flag values override file and
// environment sources.
func (c *Config) BindFlags(fs *pflag.FlagSet) error {
	for _, o := range Options {
		switch v := o.Default.(type) {
		case string:
			fs.String(o.Flag, v, o.Description)
		case int:
			fs.Int(o.Flag, v, o.Description)
		case bool:
			fs.Bool(o.Flag, v, o.Description)
		case float64:
			fs.Float64(o.Flag, v, o.Description)
		case []string:
			fs.StringSlice(o.Flag, v, o.Description)
		case time.Duration:
			fs.Duration(o.Flag, v, o.Description)
		default:
			return fmt.Errorf("unsupported flag type for key: %s", o.Key)
		}

		if err := c.v.BindPFlag(o.Key, fs.Lookup(o.Flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.Flag, err)
		}
	}

	return nil
}

// CacheDir returns the configured cache directory override, or "" to
// use the OS-default cache directory (spec §6).
func (c *Config) CacheDir() string { return c.v.GetString(keyCacheDir) }

// Debug reports whether verbose logging is enabled.
func (c *Config) Debug() bool { return c.v.GetBool(keyDebug) }

// MaxRetries returns the configured retry count (spec §4.C).
func (c *Config) MaxRetries() int { return c.v.GetInt(keyMaxRetries) }

// BaseRetryDelay returns the initial backoff delay (spec §4.C).
func (c *Config) BaseRetryDelay() time.Duration { return c.v.GetDuration(keyBaseRetryDelay) }

// MaxRetryDelay returns the backoff ceiling (spec §4.C).
func (c *Config) MaxRetryDelay() time.Duration { return c.v.GetDuration(keyMaxRetryDelay) }

// RequestsPerSecond returns the configured per-host rate limit refill
// rate (spec §4.A).
func (c *Config) RequestsPerSecond() float64 { return c.v.GetFloat64(keyRequestsPerSecond) }

// FailureThreshold returns the consecutive-failure count that trips a
// circuit (spec §4.B).
func (c *Config) FailureThreshold() int { return c.v.GetInt(keyFailureThreshold) }

// RecoveryTimeout returns how long a tripped circuit waits before
// probing again (spec §4.B).
func (c *Config) RecoveryTimeout() time.Duration { return c.v.GetDuration(keyRecoveryTimeout) }
