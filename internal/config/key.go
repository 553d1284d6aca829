// Package config provides unified configuration loading from files,
// environment variables, and CLI flags using viper and pflag.
//
// Resolution order (highest wins):
//  1. CLI flags
//  2. Environment variables (exact names, no prefix — spec §6/§4.M)
//  3. Config file (config.yaml in . or /etc/flutter-mcp/)
//  4. Compiled defaults
package config

// Viper keys. Each maps 1:1 to the environment variable name named in
// spec §6, left un-prefixed per §4.M.
const (
	keyCacheDir          = "cache_dir"
	keyDebug             = "debug"
	keyMaxRetries        = "max_retries"
	keyBaseRetryDelay    = "base_retry_delay"
	keyMaxRetryDelay     = "max_retry_delay"
	keyRequestsPerSecond = "requests_per_second"
	keyFailureThreshold  = "failure_threshold"
	keyRecoveryTimeout   = "recovery_timeout"
)
