package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable the application reads.
const EnvPrefix = "HTMLDAMMIT_"

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	applyEnv(cfg, false)
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when they are set. Used to let env take precedence over a config file while
// flags remain highest.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	applyEnv(cfg, true)
}

func applyEnv(cfg *Config, force bool) {
	setString := func(dst *string, key, def string) {
		if v := getenv(key); v != "" && (force || *dst == "" || *dst == def) {
			*dst = v
		}
	}
	setInt := func(dst *int, key string, def int) {
		if v := getenv(key); v != "" && (force || *dst == 0 || *dst == def) {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				*dst = n
			}
		}
	}
	setInt64 := func(dst *int64, key string) {
		if v := getenv(key); v != "" && (force || *dst == 0) {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
				*dst = n
			}
		}
	}
	setDuration := func(dst *time.Duration, key string, def time.Duration) {
		if v := getenv(key); v != "" && (force || *dst == 0 || *dst == def) {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	setBool := func(dst *bool, key string) {
		s := strings.ToLower(getenv(key))
		switch s {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			if force {
				*dst = false
			}
		}
	}

	// HTMLDAMMIT_INPUTS is a comma separated list.
	if v := getenv("INPUTS"); v != "" && (force || len(cfg.Inputs) == 0) {
		cfg.Inputs = splitList(v)
	}
	setString(&cfg.OutputPath, "OUTPUT", "")
	setString(&cfg.Mode, "MODE", DefaultMode)
	setString(&cfg.SmartQuotes, "SMART_QUOTES", DefaultSmartQuotes)
	setString(&cfg.ContentType, "CONTENT_TYPE", "")
	setString(&cfg.UserAgent, "UA", DefaultUserAgent)
	setDuration(&cfg.Timeout, "TIMEOUT", DefaultTimeout)
	setInt(&cfg.MaxAttempts, "ATTEMPTS", DefaultAttempts)
	setInt(&cfg.Concurrency, "CONCURRENCY", DefaultConcurrency)
	setInt(&cfg.MaxRedirects, "MAX_REDIRECTS", DefaultRedirects)
	setInt64(&cfg.MaxBodyBytes, "MAX_BODY_BYTES")
	setBool(&cfg.AnyContentType, "ANY_CONTENT_TYPE")

	setString(&cfg.CacheDir, "CACHE_DIR", "")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE", 0)
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setInt64(&cfg.CacheMaxBytes, "CACHE_MAX_BYTES")
	setInt(&cfg.CacheMaxEntries, "CACHE_MAX_ENTRIES", 0)

	setBool(&cfg.Verbose, "VERBOSE")
	setString(&cfg.LogFile, "LOG_FILE", "")
	setInt(&cfg.LogMaxSizeMB, "LOG_MAX_SIZE_MB", DefaultLogMaxSize)
	setInt(&cfg.LogMaxBackups, "LOG_MAX_BACKUPS", 0)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
