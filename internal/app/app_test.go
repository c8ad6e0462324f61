package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/hyperifyio/ircolors/internal/extract"
)

const formattingPage = `<!doctype html>
<html><head><title>Formatting</title></head><body>
<table class="rgb-table">
  <tr><th>Code</th><th>RGB</th></tr>
  <tr>
    <td><span class="colorcode">0</span><span class="hexcode">FFFFFF</span></td>
    <td><span class="colorcode">1</span><span class="hexcode">000000</span></td>
  </tr>
  <tr>
    <td><span class="hexcode">123456</span></td>
    <td><span class="colorcode">5</span><span class="hexcode">1A2B3C</span></td>
  </tr>
</table>
</body></html>`

const wantRust = "(Rgb::from_hex(0xFFFFFF), 0),\n(Rgb::from_hex(0x000000), 1),\n(Rgb::from_hex(0x1A2B3C), 5),\n"

func serve(t *testing.T, page string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("ETag", `"page-v1"`)
		if r.Header.Get("If-None-Match") == `"page-v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRun_FetchAndPrint(t *testing.T) {
	srv, calls := serve(t, formattingPage)
	a, err := New(Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var out bytes.Buffer
	if err := a.Run(context.Background(), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != wantRust {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Fatalf("expected a single request, got %d", n)
	}
}

func TestRun_Idempotent(t *testing.T) {
	srv, _ := serve(t, formattingPage)
	a, err := New(Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var first, second bytes.Buffer
	if err := a.Run(context.Background(), &first); err != nil {
		t.Fatalf("run 1: %v", err)
	}
	if err := a.Run(context.Background(), &second); err != nil {
		t.Fatalf("run 2: %v", err)
	}
	if first.String() != second.String() {
		t.Fatalf("outputs differ:\n%s\n---\n%s", first.String(), second.String())
	}
}

func TestRun_MissingTable_WritesNothing(t *testing.T) {
	srv, _ := serve(t, `<html><body><p>moved</p></body></html>`)
	a, err := New(Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var out bytes.Buffer
	err = a.Run(context.Background(), &out)
	if !errors.Is(err, extract.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}

func TestRun_EmptyTable(t *testing.T) {
	srv, _ := serve(t, `<table class="rgb-table"><tr><th>nothing</th></tr></table>`)
	a, err := New(Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var out bytes.Buffer
	if err := a.Run(context.Background(), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected empty output, got %q", out.String())
	}
}

func TestRun_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()
	a, err := New(Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var out bytes.Buffer
	if err := a.Run(context.Background(), &out); err == nil {
		t.Fatalf("expected error for 410")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output on failure")
	}
}

func TestRun_InputFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "formatting.html")
	if err := os.WriteFile(p, []byte(formattingPage), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	a, err := New(Config{InputPath: p, Format: "go"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var out bytes.Buffer
	if err := a.Run(context.Background(), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "{Hex: 0xFFFFFF, Code: 0},\n{Hex: 0x000000, Code: 1},\n{Hex: 0x1A2B3C, Code: 5},\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%s", out.String())
	}

	a, err = New(Config{InputPath: filepath.Join(t.TempDir(), "missing.html")})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(context.Background(), &out); err == nil {
		t.Fatalf("expected error for missing input file")
	}
}

func TestRun_CacheRevalidates(t *testing.T) {
	srv, calls := serve(t, formattingPage)
	dir := filepath.Join(t.TempDir(), "cache")
	cfg := Config{URL: srv.URL, CacheDir: dir}

	for i := 0; i < 2; i++ {
		a, err := New(cfg)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		var out bytes.Buffer
		if err := a.Run(context.Background(), &out); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if out.String() != wantRust {
			t.Fatalf("run %d: unexpected output:\n%s", i, out.String())
		}
	}
	if n := atomic.LoadInt32(calls); n != 2 {
		t.Fatalf("expected two requests (one conditional), got %d", n)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 2 {
		t.Fatalf("expected body+meta in cache, got %d entries (%v)", len(entries), err)
	}
}

func TestNew_RejectsBadConfig(t *testing.T) {
	if _, err := New(Config{URL: "https://modern.ircdocs.horse/formatting.html", Format: "toml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestRun_OversizedPage_WritesNothing(t *testing.T) {
	filler := "<td>" + strings.Repeat("x", 9<<20) + "</td>"
	srv, _ := serve(t, `<table class="rgb-table"><tr>
<td><span class="hexcode">FFFFFF</span><span class="colorcode">0</span></td>`+filler+`
<td><span class="hexcode">000000</span><span class="colorcode">1</span></td>
</tr></table>`)
	a, err := New(Config{URL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	var out bytes.Buffer
	if err := a.Run(context.Background(), &out); err == nil {
		t.Fatalf("expected error for page over the size cap")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output, got %q", out.String())
	}
}
