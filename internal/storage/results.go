package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// StoredResult points at a generated image served by reference.
type StoredResult struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	MIMEType string `json:"mimeType"`
}

// ResultStore writes generated images and expires them after a TTL.
type ResultStore struct {
	files    *FileStore
	baseURL  string
	registry *cache.Cache
	ttl      time.Duration
	log      zerolog.Logger
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// NewResultStore returns a store whose results live for ttl. baseURL is the
// public prefix under which files are served.
func NewResultStore(files *FileStore, baseURL string, ttl time.Duration, log zerolog.Logger) *ResultStore {
	cleanup := ttl / 2
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	rs := &ResultStore{
		files:    files,
		baseURL:  strings.TrimRight(baseURL, "/"),
		registry: cache.New(ttl, cleanup),
		ttl:      ttl,
		log:      log,
	}
	rs.registry.OnEvicted(func(key string, _ interface{}) {
		if err := files.Delete(key); err != nil {
			rs.log.Warn().Err(err).Str("key", key).Msg("remove expired result")
			return
		}
		if p, err := files.Path(key); err == nil {
			rs.removeIfEmpty(filepath.Dir(p))
		}
		rs.log.Debug().Str("key", key).Msg("expired result removed")
	})
	return rs
}

// Sweep reconciles the registry with files already on disk, typically
// left by a previous process. Files older than the TTL are deleted, younger
// ones are registered for their remaining lifetime, and empty request
// directories are removed. It returns the number of deleted files.
func (r *ResultStore) Sweep(now time.Time) (int, error) {
	root := r.files.BasePath()
	removed := 0
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root {
				dirs = append(dirs, p)
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		age := now.Sub(info.ModTime())
		if r.ttl > 0 && age >= r.ttl {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("storage: remove stale result: %w", err)
			}
			removed++
			return nil
		}
		if _, ok := r.registry.Get(key); ok {
			return nil
		}
		lifetime := cache.NoExpiration
		if r.ttl > 0 {
			lifetime = r.ttl - age
		}
		r.registry.Set(key, StoredResult{Key: key, URL: r.baseURL + "/" + key, MIMEType: mimeForExtension(path.Ext(key))}, lifetime)
		return nil
	})
	if err != nil {
		return removed, err
	}
	// Deepest first so nested empty directories collapse.
	for i := len(dirs) - 1; i >= 0; i-- {
		r.removeIfEmpty(dirs[i])
	}
	return removed, nil
}

// removeIfEmpty deletes dir when it has no entries. The store root is kept.
func (r *ResultStore) removeIfEmpty(dir string) {
	if filepath.Clean(dir) == filepath.Clean(r.files.BasePath()) {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.log.Debug().Err(err).Str("dir", dir).Msg("remove empty result directory")
	}
}

// Put stores one style's image and returns its public reference.
func (r *ResultStore) Put(ctx context.Context, requestID, styleID string, data []byte, mime string) (StoredResult, error) {
	if len(data) == 0 {
		return StoredResult{}, fmt.Errorf("storage: empty result for %s", styleID)
	}
	name := fmt.Sprintf("%s-%s%s", safeSegment(styleID), uuid.NewString()[:8], extensionFor(mime))
	key, err := r.files.Write(ctx, path.Join(safeSegment(requestID), name), data)
	if err != nil {
		return StoredResult{}, err
	}
	res := StoredResult{Key: key, URL: r.baseURL + "/" + key, MIMEType: mime}
	r.registry.SetDefault(key, res)
	return res, nil
}

// Lookup reports a still-live result.
func (r *ResultStore) Lookup(key string) (StoredResult, bool) {
	v, ok := r.registry.Get(key)
	if !ok {
		return StoredResult{}, false
	}
	return v.(StoredResult), true
}

// Load returns a live result and its bytes.
func (r *ResultStore) Load(ctx context.Context, key string) (StoredResult, []byte, error) {
	res, ok := r.Lookup(key)
	if !ok {
		return StoredResult{}, nil, fmt.Errorf("storage: result %q not found", key)
	}
	data, err := r.files.Read(ctx, key)
	if err != nil {
		return StoredResult{}, nil, err
	}
	return res, data, nil
}

// Root is the directory that holds result files.
func (r *ResultStore) Root() string { return r.files.BasePath() }

func safeSegment(s string) string {
	s = unsafeKeyChars.ReplaceAllString(strings.TrimSpace(s), "_")
	if s == "" {
		return "_"
	}
	return s
}
