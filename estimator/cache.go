package estimator

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/KAIST-CryptLab/binfhe-params/internal/logutil"
)

// Cache memoises the estimates of another Estimator. Concurrent calls for
// the same query share a single underlying call. If Dir is not empty,
// estimates are also persisted there as one YAML file per query, so that
// runs of the lattice estimator survive across invocations. Errors are never
// cached.
type Cache struct {
	next Estimator
	dir  string
	log  logrus.FieldLogger

	mu    sync.Mutex
	mem   map[Query]Estimate
	group singleflight.Group

	hits, misses int
}

type cacheEntry struct {
	Query    Query    `yaml:"query"`
	Estimate Estimate `yaml:"estimate"`
}

// NewCache returns a Cache in front of next. dir may be empty.
func NewCache(next Estimator, dir string, log logrus.FieldLogger) *Cache {
	return &Cache{
		next: next,
		dir:  dir,
		log:  logutil.OrDiscard(log),
		mem:  map[Query]Estimate{},
	}
}

// Key returns the hex blake2b-256 digest identifying q.
func Key(q Query) (string, error) {
	b, err := yaml.Marshal(q)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func (c *Cache) Estimate(ctx context.Context, q Query) (Estimate, error) {

	c.mu.Lock()
	if est, ok := c.mem[q]; ok {
		c.hits++
		c.mu.Unlock()
		return est, nil
	}
	c.mu.Unlock()

	key, err := Key(q)
	if err != nil {
		return Estimate{}, fmt.Errorf("cache key: %w", err)
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {

		if est, ok := c.load(key, q); ok {
			c.store(q, est)
			return est, nil
		}

		est, err := c.next.Estimate(ctx, q)
		if err != nil {
			return Estimate{}, err
		}

		c.mu.Lock()
		c.misses++
		c.mu.Unlock()

		c.store(q, est)
		if err := c.save(key, q, est); err != nil {
			c.log.WithError(err).Warn("could not persist estimate")
		}
		return est, nil
	})

	if err != nil {
		return Estimate{}, err
	}
	return v.(Estimate), nil
}

// Stats returns the number of cache hits and of calls to the underlying
// estimator.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) store(q Query, est Estimate) {
	c.mu.Lock()
	c.mem[q] = est
	c.mu.Unlock()
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".yaml")
}

func (c *Cache) load(key string, q Query) (Estimate, bool) {

	if c.dir == "" {
		return Estimate{}, false
	}

	b, err := os.ReadFile(c.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.WithError(err).Warn("could not read cached estimate")
		}
		return Estimate{}, false
	}

	var entry cacheEntry
	if err := yaml.Unmarshal(b, &entry); err != nil || entry.Query != q {
		c.log.WithField("file", c.path(key)).Warn("ignoring corrupt cache entry")
		return Estimate{}, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()

	return entry.Estimate, true
}

func (c *Cache) save(key string, q Query, est Estimate) error {

	if c.dir == "" {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cacheEntry{Query: q, Estimate: est}); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}

	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path(key))
}
