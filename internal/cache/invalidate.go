package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ClearDir empties the cache directory and recreates it.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeHTTPCacheByAge removes entries whose SavedAt is older than maxAge and
// returns how many were removed. Unreadable or malformed meta files are
// skipped. A missing directory is not an error.
func PurgeHTTPCacheByAge(dir string, maxAge time.Duration) (int, error) {
	return purgeOlderThan(dir, maxAge, time.Now().UTC())
}

func purgeOlderThan(dir string, maxAge time.Duration, now time.Time) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".meta.json") {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var e HTTPEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return nil
		}
		if now.Sub(e.SavedAt) <= maxAge {
			return nil
		}
		removed++
		_ = os.Remove(path)
		_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
		return nil
	})
	return removed, err
}
