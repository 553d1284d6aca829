package config

import (
	"strings"
	"time"
)

// Option describes a single configuration entry: its viper key, the
// corresponding CLI flag name, the compiled default, and a
// human-readable description shown in --help output.
type Option struct {
	Key         string
	Flag        string
	Default     any
	Description string
}

// Options defines every configuration entry the server accepts. Each
// entry is registered as a viper default and a CLI flag, and can be
// overridden by the identically-named environment variable in spec §6.
var Options = []Option{
	{Key: keyCacheDir, Flag: toFlag(keyCacheDir), Default: "", Description: "Override the cache directory (default: OS cache dir)"},
	{Key: keyDebug, Flag: toFlag(keyDebug), Default: false, Description: "Enable verbose logging"},
	{Key: keyMaxRetries, Flag: toFlag(keyMaxRetries), Default: 3, Description: "Maximum retry attempts per upstream request"},
	{Key: keyBaseRetryDelay, Flag: toFlag(keyBaseRetryDelay), Default: time.Second, Description: "Initial retry backoff delay"},
	{Key: keyMaxRetryDelay, Flag: toFlag(keyMaxRetryDelay), Default: 16 * time.Second, Description: "Maximum retry backoff delay"},
	{Key: keyRequestsPerSecond, Flag: toFlag(keyRequestsPerSecond), Default: 2.0, Description: "Per-host rate limit refill rate"},
	{Key: keyFailureThreshold, Flag: toFlag(keyFailureThreshold), Default: 5, Description: "Consecutive failures before a circuit trips"},
	{Key: keyRecoveryTimeout, Flag: toFlag(keyRecoveryTimeout), Default: 60 * time.Second, Description: "Time a tripped circuit waits before probing again"},
}

// toFlag converts a viper key like "base_retry_delay" into a CLI flag
// like "base-retry-delay" by replacing underscores with hyphens.
func toFlag(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}
