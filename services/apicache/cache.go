package apicache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTLs are the per-prefix lifetimes for backend resources.
var DefaultTTLs = map[string]time.Duration{
	"/api/rooms":        5 * time.Minute,
	"/api/offers":       5 * time.Minute,
	"/api/gallery":      10 * time.Minute,
	"/api/availability": 30 * time.Second,
}

// Loader produces a fresh value on a miss.
type Loader func(ctx context.Context) ([]byte, error)

// Key identifies a cached response.
type Key struct {
	Method string
	Path   string
	Query  string // already sorted
	Scope  string
}

// NewKey builds a key. Query parameters are sorted so that their order does
// not matter; an empty token yields the public scope.
func NewKey(method, path string, query url.Values, token string) Key {
	k := Key{Method: strings.ToUpper(method), Path: path, Scope: "public"}
	if len(query) > 0 {
		names := make([]string, 0, len(query))
		for name := range query {
			names = append(names, name)
		}
		sort.Strings(names)
		var b strings.Builder
		for _, name := range names {
			values := append([]string(nil), query[name]...)
			sort.Strings(values)
			for _, v := range values {
				if b.Len() > 0 {
					b.WriteByte('&')
				}
				b.WriteString(url.QueryEscape(name))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
		k.Query = b.String()
	}
	if token != "" {
		sum := sha256.Sum256([]byte(token))
		k.Scope = "auth:" + hex.EncodeToString(sum[:])[:12]
	}
	return k
}

func (k Key) String() string {
	s := k.Method + " " + k.Path
	if k.Query != "" {
		s += "?" + k.Query
	}
	return s + "#" + k.Scope
}

// Options configures a Cache.
type Options struct {
	DefaultTTL      time.Duration
	TTLs            map[string]time.Duration
	MaxEntries      int
	JanitorInterval time.Duration
	L2              L2
	Logger          *zap.Logger
	Now             func() time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Coalesced uint64 `json:"coalesced"`
	L2Hits    uint64 `json:"l2Hits"`
	Entries   int    `json:"entries"`
}

type entry struct {
	path     string
	value    []byte
	storedAt time.Time
	expires  time.Time
}

// Cache is an in-memory TTL cache with request coalescing. Values returned
// by Do are shared between callers and must not be modified.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	generation uint64

	group      singleflight.Group
	defaultTTL time.Duration
	prefixes   []string
	ttls       map[string]time.Duration
	maxEntries int
	l2         L2
	logger     *zap.Logger
	now        func() time.Time

	hits, misses, coalesced, l2Hits atomic.Uint64

	stop      chan struct{}
	done      chan struct{}
	stopWatch context.CancelFunc
	watchDone chan struct{}
	closeOnce sync.Once
}

// New creates a Cache and starts its janitor.
func New(opts Options) *Cache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = time.Minute
	}
	if opts.JanitorInterval <= 0 {
		opts.JanitorInterval = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TTLs == nil {
		opts.TTLs = DefaultTTLs
	}
	c := &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: opts.DefaultTTL,
		ttls:       opts.TTLs,
		maxEntries: opts.MaxEntries,
		l2:         opts.L2,
		logger:     opts.Logger.Named("apicache"),
		now:        opts.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for p := range opts.TTLs {
		c.prefixes = append(c.prefixes, p)
	}
	// Longest prefix first.
	sort.Slice(c.prefixes, func(i, j int) bool { return len(c.prefixes[i]) > len(c.prefixes[j]) })

	go c.janitor(opts.JanitorInterval)
	if w, ok := opts.L2.(Watcher); ok {
		ctx, cancel := context.WithCancel(context.Background())
		c.stopWatch = cancel
		c.watchDone = make(chan struct{})
		go c.watch(ctx, w)
	}
	return c
}

// TTLFor returns the lifetime for path.
func (c *Cache) TTLFor(path string) time.Duration {
	for _, p := range c.prefixes {
		if strings.HasPrefix(path, p) {
			return c.ttls[p]
		}
	}
	return c.defaultTTL
}

// Do returns the cached value for key or calls load once for all concurrent
// callers of the same key. Failed loads are not cached.
func (c *Cache) Do(ctx context.Context, key Key, load Loader) ([]byte, error) {
	id := key.String()
	if v, ok := c.lookup(id); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	leader := false
	v, err, shared := c.group.Do(id, func() (any, error) {
		leader = true
		c.mu.Lock()
		gen := c.generation
		c.mu.Unlock()

		ttl := c.TTLFor(key.Path)
		if c.l2 != nil {
			if raw, remaining, ok, err := c.l2.Get(ctx, id); err != nil {
				c.logger.Warn("L2 read failed", zap.String("key", id), zap.Error(err))
			} else if ok {
				c.l2Hits.Add(1)
				if remaining > 0 && remaining < ttl {
					ttl = remaining
				}
				c.store(id, key.Path, raw, ttl, gen)
				return raw, nil
			}
		}

		// Shared by every waiter, so detached from this caller's cancellation.
		raw, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if c.store(id, key.Path, raw, ttl, gen) && c.l2 != nil {
			if err := c.l2.Set(ctx, id, raw, ttl); err != nil {
				c.logger.Warn("L2 write failed", zap.String("key", id), zap.Error(err))
			}
		}
		return raw, nil
	})
	if shared && !leader {
		c.coalesced.Add(1)
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) lookup(id string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, id)
		return nil, false
	}
	return e.value, true
}

// store keeps value unless an invalidation happened since the load began.
func (c *Cache) store(id, path string, value []byte, ttl time.Duration, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	if _, exists := c.entries[id]; !exists && c.maxEntries > 0 {
		for len(c.entries) >= c.maxEntries {
			c.evictOldest()
		}
	}
	now := c.now()
	c.entries[id] = &entry{path: path, value: value, storedAt: now, expires: now.Add(ttl)}
	return true
}

func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Invalidate drops every entry whose path starts with prefix, in memory and
// in the shared layer.
func (c *Cache) Invalidate(ctx context.Context, prefix string) {
	removed := c.dropLocal(prefix)

	if c.l2 != nil {
		if err := c.l2.DeletePrefix(ctx, prefix); err != nil {
			c.logger.Warn("L2 invalidation failed", zap.String("prefix", prefix), zap.Error(err))
		}
	}
	c.logger.Debug("invalidated", zap.String("prefix", prefix), zap.Int("entries", removed))
}

// dropLocal removes matching in-memory entries and discards loads in flight.
func (c *Cache) dropLocal(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	removed := 0
	for k, e := range c.entries {
		if strings.HasPrefix(e.path, prefix) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// watch applies invalidations made by other instances until Close.
func (c *Cache) watch(ctx context.Context, w Watcher) {
	defer close(c.watchDone)
	for {
		err := w.Watch(ctx, func(prefix string) { c.dropLocal(prefix) })
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("L2 invalidation feed lost", zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Coalesced: c.coalesced.Load(),
		L2Hits:    c.l2Hits.Load(),
		Entries:   n,
	}
}

func (c *Cache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *Cache) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := c.sweep(); n > 0 {
				c.logger.Debug("swept expired entries", zap.Int("count", n))
			}
		case <-c.stop:
			return
		}
	}
}

// Close stops the janitor and the invalidation feed. It is safe to call
// more than once.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		<-c.done
		if c.stopWatch != nil {
			c.stopWatch()
			<-c.watchDone
		}
	})
}
