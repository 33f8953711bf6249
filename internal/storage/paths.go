package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/newsharvest/internal/types"
)

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// NextNumberedPath returns dir/<base><N><ext> for the first N >= 1 that
// does not exist yet.
func NextNumberedPath(dir, base, ext string) string {
	ext = dotted(ext)
	for n := 1; ; n++ {
		p := filepath.Join(dir, fmt.Sprintf("%s%d%s", base, n, ext))
		if !exists(p) {
			return p
		}
	}
}

// LatestNumberedPath returns the existing dir/<base><N><ext> with the
// highest N. ok is false when there is none.
func LatestNumberedPath(dir, base, ext string) (path string, ok bool) {
	ext = dotted(ext)
	matches, err := filepath.Glob(filepath.Join(dir, base+"*"+ext))
	if err != nil {
		return "", false
	}
	latest := 0
	for _, m := range matches {
		digits := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), base), ext)
		if digits == "" || strings.Trim(digits, "0123456789") != "" {
			continue
		}
		if n, err := strconv.Atoi(digits); err == nil && n > latest {
			path, latest = m, n
		}
	}
	return path, latest > 0
}

func dotted(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}

// TimestampedPath inserts _YYYYMMDD_HHMMSS before the extension of path.
// A _<counter> suffix is added while the candidate exists.
func TimestampedPath(path string, now time.Time) string {
	ext := filepath.Ext(path)
	name := strings.TrimSuffix(path, ext)
	stamp := now.Format("20060102_150405")

	candidate := fmt.Sprintf("%s_%s%s", name, stamp, ext)
	for counter := 1; exists(candidate); counter++ {
		candidate = fmt.Sprintf("%s_%s_%d%s", name, stamp, counter, ext)
	}
	return candidate
}

// LoadArticles reads a JSON array of articles. A missing file or invalid
// JSON is an error.
func LoadArticles(path string) ([]*types.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "json", Err: fmt.Errorf("read input: %w", err)}
	}

	var articles []*types.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, &types.StorageError{Backend: "json", Err: fmt.Errorf("decode %s: %w", path, err)}
	}

	out := articles[:0]
	for _, a := range articles {
		if a != nil {
			out = append(out, a)
		}
	}
	return out, nil
}
