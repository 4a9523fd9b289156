// Package cache memoises extraction results. Entries are JSON documents
// keyed by an xxhash of the source identity, so a file that changes on disk
// gets a fresh key.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	geometa "github.com/tingold/orb-geometa"
)

// Store holds encoded entries.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
	Close() error
}

// Counter receives lookup outcomes, typically a metrics provider.
type Counter interface {
	CacheHit()
	CacheMiss()
}

// Cache fronts a Store. A nil *Cache computes every value.
type Cache struct {
	store   Store
	counter Counter
	log     *slog.Logger
}

func New(store Store, counter Counter, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{store: store, counter: counter, log: log}
}

func (c *Cache) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *Cache) hit() {
	if c.counter != nil {
		c.counter.CacheHit()
	}
}

func (c *Cache) miss() {
	if c.counter != nil {
		c.counter.CacheMiss()
	}
}

// Fetch returns the cached value for key or computes and stores it. Store
// failures are logged and never fail the call; errors from fn are not
// cached.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	if c == nil || c.store == nil || key == "" {
		return fn(ctx)
	}

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("cache get", "key", key, "err", err)
	}
	if ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			c.hit()
			return v, nil
		}
		c.log.Warn("cache entry undecodable, recomputing", "key", key)
	}
	c.miss()

	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	data, err = json.Marshal(v)
	if err != nil {
		c.log.Warn("cache encode", "key", key, "err", err)
		return v, nil
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.log.Warn("cache set", "key", key, "err", err)
	}
	return v, nil
}

// Key derives the cache key of an operation on src. File sources include
// the size and modification time of the file and of every sibling sharing
// its stem (.prj, .dbf, .cpg, world files), so a changed sidecar gets a
// fresh key. A file that cannot be stated yields "" so the call bypasses
// the cache. Passwords never enter the key.
func Key(op string, src geometa.Source, extra ...string) string {
	h := xxhash.New()
	_, _ = h.WriteString(op)
	if src.Conn != nil {
		_, _ = h.WriteString("\x00" + src.Conn.String())
	} else {
		id, ok := fileIdentity(src.Path)
		if !ok {
			return ""
		}
		_, _ = h.WriteString("\x00" + id)
	}
	for _, e := range extra {
		_, _ = h.WriteString("\x00" + e)
	}
	return fmt.Sprintf("geometa:%s:%016x", op, h.Sum64())
}

func fileIdentity(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", false
	}
	var b strings.Builder
	b.WriteString(abs)
	stamp(&b, fi)

	dir, base := filepath.Split(abs)
	stem := strings.TrimSuffix(base, filepath.Ext(base)) + "."
	entries, err := os.ReadDir(dir)
	if err != nil {
		return b.String(), true
	}
	// ReadDir sorts by name, which keeps the identity stable.
	for _, e := range entries {
		name := e.Name()
		if name == base || len(name) <= len(stem) || !strings.EqualFold(name[:len(stem)], stem) {
			continue
		}
		sfi, err := e.Info()
		if err != nil || sfi.IsDir() {
			continue
		}
		b.WriteString("\x00" + name)
		stamp(&b, sfi)
	}
	return b.String(), true
}

func stamp(b *strings.Builder, fi os.FileInfo) {
	b.WriteString("\x00" + strconv.FormatInt(fi.Size(), 10))
	b.WriteString("\x00" + strconv.FormatInt(fi.ModTime().UnixNano(), 10))
}
