package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ApplyEnvToConfig populates unset fields of cfg from IRCOLORS_* environment
// variables. Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    setString := func(dst *string, envKey string) {
        if *dst == "" {
            *dst = strings.TrimSpace(os.Getenv(envKey))
        }
    }
    // A source set by flag blocks both source variables.
    if trim(cfg.URL) == "" && trim(cfg.InputPath) == "" {
        setString(&cfg.URL, "IRCOLORS_URL")
        setString(&cfg.InputPath, "IRCOLORS_INPUT")
    }
    setString(&cfg.Format, "IRCOLORS_FORMAT")
    setString(&cfg.UserAgent, "IRCOLORS_USER_AGENT")
    setString(&cfg.CacheDir, "IRCOLORS_CACHE_DIR")

    setDuration := func(dst *time.Duration, envKey string) {
        if *dst != 0 { return }
        if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
            if d, err := time.ParseDuration(s); err == nil {
                *dst = d
            }
        }
    }
    setDuration(&cfg.Timeout, "IRCOLORS_TIMEOUT")
    setDuration(&cfg.CacheMaxAge, "IRCOLORS_CACHE_MAX_AGE")

    if cfg.MaxAttempts == 0 {
        if s := strings.TrimSpace(os.Getenv("IRCOLORS_RETRIES")); s != "" {
            if n, err := strconv.Atoi(s); err == nil && n >= 0 {
                cfg.MaxAttempts = n + 1
            }
        }
    }

    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
            if s == "1" || s == "true" || s == "yes" || s == "on" {
                *dst = true
            }
        }
    }
    setBool(&cfg.CacheClear, "IRCOLORS_CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "IRCOLORS_CACHE_STRICT_PERMS")
    setBool(&cfg.Verbose, "IRCOLORS_VERBOSE")
}
