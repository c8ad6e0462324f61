package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/hyperifyio/ircolors/internal/cache"
)

// DefaultMaxBodyBytes is the largest page accepted. Bigger pages fail the
// fetch rather than being truncated.
const DefaultMaxBodyBytes = 8 << 20

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.StatusCode >= 500 {
		return fmt.Sprintf("server error: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

// Client wraps http.Client and provides timeouts and optional bounded retry
// on transient errors. The zero value issues exactly one request.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request. Zero means no extra deadline.
	PerRequestTimeout time.Duration
	// Optional on-disk cache used for conditional revalidation.
	Cache *cache.HTTPCache
	// RedirectMaxHops caps redirect following. Zero means default (10).
	RedirectMaxHops int
	// MaxBodyBytes caps the body size; larger bodies are an error. Zero means
	// DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

type response struct {
	body        []byte
	contentType string
	etag        string
	lastMod     string
	status      int
}

// Get fetches rawURL and returns the body decoded to UTF-8 along with the
// response content type.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var etag, lastMod string
	if c.Cache != nil {
		etag, lastMod = c.revalidators(ctx, rawURL)
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			return c.finish(ctx, rawURL, resp)
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		backoff := time.Duration(i+1) * 200 * time.Millisecond
		log.Debug().Err(err).Str("url", rawURL).Int("attempt", i+1).Dur("backoff", backoff).Msg("retrying fetch")
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, "", lastErr
}

// revalidators returns the conditional headers for rawURL, or empty strings
// when the cached body is missing and a 304 could not be served.
func (c *Client) revalidators(ctx context.Context, rawURL string) (string, string) {
	meta, err := c.Cache.LoadMeta(ctx, rawURL)
	if err != nil || meta == nil {
		return "", ""
	}
	if _, err := c.Cache.LoadBody(ctx, rawURL); err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("cached body unreadable; fetching without revalidation")
		return "", ""
	}
	return meta.ETag, meta.LastModified
}

func (c *Client) finish(ctx context.Context, rawURL string, resp response) ([]byte, string, error) {
	if resp.status == http.StatusNotModified && c.Cache != nil {
		cached, err := c.Cache.LoadBody(ctx, rawURL)
		if err != nil {
			return nil, "", fmt.Errorf("load cached body: %w", err)
		}
		ct := resp.contentType
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta.ContentType != "" {
			ct = meta.ContentType
		}
		log.Debug().Str("url", rawURL).Msg("not modified; serving cached page")
		return cached, ct, nil
	}
	if c.Cache != nil {
		if err := c.Cache.Save(ctx, rawURL, resp.contentType, resp.etag, resp.lastMod, resp.body); err != nil {
			log.Warn().Err(err).Str("url", rawURL).Msg("cache save failed")
		}
	}
	return resp.body, resp.contentType, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, etag string, lastMod string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return response{}, fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	start := time.Now()
	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()
	log.Debug().Str("url", rawURL).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("fetched")

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusNotModified && c.Cache != nil {
		return response{contentType: contentType, status: resp.StatusCode}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response{}, &StatusError{StatusCode: resp.StatusCode}
	}
	if !isAllowedHTMLContentType(contentType) {
		return response{}, fmt.Errorf("unsupported content type: %s", contentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return response{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > limit {
		return response{}, fmt.Errorf("body exceeds %d bytes", limit)
	}
	body, err := toUTF8(raw, contentType)
	if err != nil {
		return response{}, err
	}
	return response{
		body:        body,
		contentType: contentType,
		etag:        resp.Header.Get("ETag"),
		lastMod:     resp.Header.Get("Last-Modified"),
		status:      resp.StatusCode,
	}, nil
}

// toUTF8 decodes raw using the charset from the Content-Type header, a
// <meta> declaration, or content sniffing, in that order.
func toUTF8(raw []byte, contentType string) ([]byte, error) {
	enc, name, _ := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" {
		return raw, nil
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return out, nil
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 500
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 10
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// servers that omit the header still get parsed
	return ct == "" || strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
