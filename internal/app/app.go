package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ircolors/internal/cache"
	"github.com/hyperifyio/ircolors/internal/extract"
	"github.com/hyperifyio/ircolors/internal/fetch"
	"github.com/hyperifyio/ircolors/internal/render"
)

// App runs the load, extract, render pipeline once per Run call.
type App struct {
	cfg       Config
	format    render.Format
	client    *fetch.Client
	extractor extract.Extractor
	httpCache *cache.HTTPCache
}

// New validates cfg and prepares the HTTP client and optional cache.
func New(cfg Config) (*App, error) {
	cfg = cfg.WithDefaults()
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		format: format,
		extractor: extract.TableExtractor{
			TableClass: cfg.TableClass,
			HexClass:   cfg.HexClass,
			CodeClass:  cfg.CodeClass,
		},
	}
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeHTTPCacheByAge(cfg.CacheDir, cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged expired cache entries")
			}
		}
		a.httpCache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	a.client = &fetch.Client{
		HTTPClient:        newHTTPClient(),
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.MaxAttempts,
		PerRequestTimeout: cfg.Timeout,
		Cache:             a.httpCache,
	}
	return a, nil
}

// Config returns the effective configuration after defaults.
func (a *App) Config() Config { return a.cfg }

// Run loads the page, extracts the color table and writes it to w. Output is
// rendered fully before the first byte reaches w, so a failure anywhere
// leaves w untouched.
func (a *App) Run(ctx context.Context, w io.Writer) error {
	start := time.Now()
	page, source, err := a.load(ctx)
	if err != nil {
		return err
	}
	entries, err := a.extractor.Extract(bytes.NewReader(page))
	if err != nil {
		return fmt.Errorf("extract %s: %w", source, err)
	}
	var buf bytes.Buffer
	if err := render.Write(&buf, a.format, entries); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().
		Str("source", source).
		Int("entries", len(entries)).
		Str("format", string(a.format)).
		Dur("elapsed", time.Since(start)).
		Msg("color table extracted")
	return nil
}

func (a *App) load(ctx context.Context) ([]byte, string, error) {
	if p := strings.TrimSpace(a.cfg.InputPath); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, p, fmt.Errorf("read input: %w", err)
		}
		log.Debug().Str("path", p).Int("bytes", len(b)).Msg("loaded page from file")
		return b, p, nil
	}
	u := strings.TrimSpace(a.cfg.URL)
	body, ct, err := a.client.Get(ctx, u)
	if err != nil {
		return nil, u, fmt.Errorf("fetch %s: %w", u, err)
	}
	log.Debug().Str("url", u).Str("content_type", ct).Int("bytes", len(body)).Msg("loaded page")
	return body, u, nil
}
