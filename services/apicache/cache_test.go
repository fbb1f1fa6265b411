package apicache

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCache(t *testing.T, opts Options) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	opts.Now = clock.Now
	c := New(opts)
	t.Cleanup(c.Close)
	return c, clock
}

func staticLoader(calls *int32, body string) Loader {
	return func(context.Context) ([]byte, error) {
		atomic.AddInt32(calls, 1)
		return []byte(body), nil
	}
}

func TestNewKey(t *testing.T) {
	a := NewKey("get", "/api/rooms", url.Values{"b": {"2"}, "a": {"1"}}, "")
	b := NewKey("GET", "/api/rooms", url.Values{"a": {"1"}, "b": {"2"}}, "")
	assert.Equal(t, a, b)
	assert.Equal(t, "GET /api/rooms?a=1&b=2#public", a.String())

	authed := NewKey("GET", "/api/rooms", nil, "token-1")
	assert.True(t, strings.HasPrefix(authed.Scope, "auth:"))
	assert.Len(t, authed.Scope, len("auth:")+12)
	assert.NotEqual(t, authed, NewKey("GET", "/api/rooms", nil, "token-2"))
	assert.Equal(t, "GET /api/rooms#"+authed.Scope, authed.String())
}

func TestDoCachesUntilExpiry(t *testing.T) {
	c, clock := newTestCache(t, Options{})
	ctx := context.Background()
	key := NewKey("GET", "/api/availability", url.Values{"roomId": {"r1"}}, "")

	var calls int32
	for i := 0; i < 3; i++ {
		v, err := c.Do(ctx, key, staticLoader(&calls, "ok"))
		require.NoError(t, err)
		assert.Equal(t, "ok", string(v))
	}
	assert.EqualValues(t, 1, calls)

	clock.Advance(31 * time.Second)
	_, err := c.Do(ctx, key, staticLoader(&calls, "ok"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls, "availability entries live 30s")

	s := c.Stats()
	assert.EqualValues(t, 2, s.Hits)
	assert.EqualValues(t, 2, s.Misses)
	assert.Equal(t, 1, s.Entries)
}

func TestTTLFor(t *testing.T) {
	c, _ := newTestCache(t, Options{DefaultTTL: 45 * time.Second})
	assert.Equal(t, 5*time.Minute, c.TTLFor("/api/rooms/r1"))
	assert.Equal(t, 10*time.Minute, c.TTLFor("/api/gallery"))
	assert.Equal(t, 30*time.Second, c.TTLFor("/api/availability"))
	assert.Equal(t, 45*time.Second, c.TTLFor("/api/guests"))
}

func TestDoDoesNotCacheErrors(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	key := NewKey("GET", "/api/rooms", nil, "")
	boom := errors.New("backend down")

	_, err := c.Do(context.Background(), key, func(context.Context) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	var calls int32
	v, err := c.Do(context.Background(), key, staticLoader(&calls, "rooms"))
	require.NoError(t, err)
	assert.Equal(t, "rooms", string(v))
	assert.EqualValues(t, 1, calls)
}

func TestDoCoalescesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	key := NewKey("GET", "/api/offers", nil, "")

	var calls int32
	release := make(chan struct{})
	load := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte("offers"), nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.Do(context.Background(), key, load)
			if err == nil {
				results[i] = string(v)
			}
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls)
	for _, r := range results {
		assert.Equal(t, "offers", r)
	}
	assert.EqualValues(t, len(results)-1, c.Stats().Coalesced, "the caller that loaded is not coalesced")
}

func TestSingleCallerIsNotCoalesced(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	var calls int32
	_, err := c.Do(context.Background(), NewKey("GET", "/api/offers", nil, ""), staticLoader(&calls, "x"))
	require.NoError(t, err)
	assert.Zero(t, c.Stats().Coalesced)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	ctx := context.Background()
	var calls int32

	rooms := NewKey("GET", "/api/rooms", nil, "")
	room := NewKey("GET", "/api/rooms/r1", nil, "")
	offers := NewKey("GET", "/api/offers", nil, "")
	for _, k := range []Key{rooms, room, offers} {
		_, err := c.Do(ctx, k, staticLoader(&calls, "x"))
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Stats().Entries)

	c.Invalidate(ctx, "/api/rooms")
	assert.Equal(t, 1, c.Stats().Entries)

	_, err := c.Do(ctx, offers, staticLoader(&calls, "x"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls, "offers untouched")
}

func TestInvalidateDuringLoadDiscardsResult(t *testing.T) {
	c, _ := newTestCache(t, Options{})
	ctx := context.Background()
	key := NewKey("GET", "/api/rooms", nil, "")

	_, err := c.Do(ctx, key, func(context.Context) ([]byte, error) {
		c.Invalidate(ctx, "/api/rooms")
		return []byte("stale"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestMaxEntriesEvictsOldest(t *testing.T) {
	c, clock := newTestCache(t, Options{MaxEntries: 2})
	ctx := context.Background()
	var calls int32

	for _, p := range []string{"/api/rooms/a", "/api/rooms/b", "/api/rooms/c"} {
		_, err := c.Do(ctx, NewKey("GET", p, nil, ""), staticLoader(&calls, p))
		require.NoError(t, err)
		clock.Advance(time.Second)
	}
	assert.Equal(t, 2, c.Stats().Entries)

	_, err := c.Do(ctx, NewKey("GET", "/api/rooms/a", nil, ""), staticLoader(&calls, "a"))
	require.NoError(t, err)
	assert.EqualValues(t, 4, calls, "oldest entry was evicted")
}

type memL2 struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newMemL2() *memL2 {
	return &memL2{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *memL2) Get(_ context.Context, key string) ([]byte, time.Duration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, m.ttl[key], ok, nil
}

func (m *memL2) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttl[key] = ttl
	return nil
}

func (m *memL2) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, "GET "+prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func TestSharedLayer(t *testing.T) {
	l2 := newMemL2()
	ctx := context.Background()
	key := NewKey("GET", "/api/gallery", nil, "")
	var calls int32

	first, _ := newTestCache(t, Options{L2: l2})
	_, err := first.Do(ctx, key, staticLoader(&calls, "gallery"))
	require.NoError(t, err)

	second, _ := newTestCache(t, Options{L2: l2})
	v, err := second.Do(ctx, key, staticLoader(&calls, "other"))
	require.NoError(t, err)
	assert.Equal(t, "gallery", string(v))
	assert.EqualValues(t, 1, calls)
	assert.EqualValues(t, 1, second.Stats().L2Hits)

	second.Invalidate(ctx, "/api/gallery")
	assert.Empty(t, l2.data)
}

func TestSharedLayerHitKeepsRemainingLifetime(t *testing.T) {
	l2 := newMemL2()
	ctx := context.Background()
	key := NewKey("GET", "/api/gallery", nil, "")
	l2.data[key.String()] = []byte("gallery")
	l2.ttl[key.String()] = 5 * time.Second

	c, clock := newTestCache(t, Options{L2: l2})
	var calls int32
	v, err := c.Do(ctx, key, staticLoader(&calls, "fresh"))
	require.NoError(t, err)
	assert.Equal(t, "gallery", string(v))

	clock.Advance(4 * time.Second)
	_, err = c.Do(ctx, key, staticLoader(&calls, "fresh"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.Stats().Hits)

	// Expired in the shared layer too.
	l2.mu.Lock()
	delete(l2.data, key.String())
	l2.mu.Unlock()
	clock.Advance(2 * time.Second)
	v, err = c.Do(ctx, key, staticLoader(&calls, "fresh"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(v))
	assert.EqualValues(t, 1, calls)
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(Options{JanitorInterval: time.Millisecond})
	time.Sleep(5 * time.Millisecond)
	c.Close()
	c.Close()
}

func TestGlobEscape(t *testing.T) {
	assert.Equal(t, `/api/rooms\?x\*`, globEscape("/api/rooms?x*"))
}
