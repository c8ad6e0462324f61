package app

import (
    "errors"
    "fmt"
    "net/url"
    "strings"
    "time"

    "github.com/hyperifyio/ircolors/internal/extract"
    "github.com/hyperifyio/ircolors/internal/render"
)

const (
    // DefaultURL is the IRC formatting documentation page carrying the color table.
    DefaultURL       = "https://modern.ircdocs.horse/formatting.html"
    DefaultUserAgent = "ircolors/1.0 (+https://github.com/hyperifyio/ircolors)"
)

// ErrNoSource is returned when neither a URL nor an input file is configured.
var ErrNoSource = errors.New("config: no page source (set -url or -input)")

// Config holds runtime configuration for the application.
type Config struct {
    // Source: InputPath wins over URL when both are set.
    URL       string
    InputPath string

    // Output
    Format string

    // HTTP
    UserAgent   string
    Timeout     time.Duration
    MaxAttempts int

    // Cache
    CacheDir         string
    CacheMaxAge      time.Duration
    CacheClear       bool
    CacheStrictPerms bool

    // Markup
    TableClass string
    HexClass   string
    CodeClass  string

    Verbose bool
}

// WithDefaults fills unset fields with the built-in defaults.
func (c Config) WithDefaults() Config {
    if trim(c.URL) == "" && trim(c.InputPath) == "" {
        c.URL = DefaultURL
    }
    if trim(c.Format) == "" {
        c.Format = string(render.FormatRust)
    }
    if c.UserAgent == "" {
        c.UserAgent = DefaultUserAgent
    }
    if c.MaxAttempts == 0 {
        c.MaxAttempts = 1
    }
    if c.TableClass == "" {
        c.TableClass = extract.DefaultTableClass
    }
    if c.HexClass == "" {
        c.HexClass = extract.DefaultHexClass
    }
    if c.CodeClass == "" {
        c.CodeClass = extract.DefaultCodeClass
    }
    return c
}

// ValidateConfig checks a fully layered config before any I/O happens.
func ValidateConfig(cfg Config) error {
    if trim(cfg.URL) == "" && trim(cfg.InputPath) == "" {
        return ErrNoSource
    }
    if trim(cfg.InputPath) == "" {
        u, err := url.Parse(trim(cfg.URL))
        if err != nil {
            return fmt.Errorf("config: invalid url: %w", err)
        }
        if s := strings.ToLower(u.Scheme); (s != "http" && s != "https") || u.Host == "" {
            return fmt.Errorf("config: url must be absolute http(s), got %q", cfg.URL)
        }
    }
    if _, err := render.ParseFormat(cfg.Format); err != nil {
        return fmt.Errorf("config: %w", err)
    }
    if cfg.MaxAttempts < 0 || cfg.Timeout < 0 || cfg.CacheMaxAge < 0 {
        return errors.New("config: negative limits are not allowed")
    }
    return nil
}

func trim(s string) string { return strings.TrimSpace(s) }
