package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

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
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestCache_FirstGetMissesAndStartsLifetime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](5*time.Minute, clock.Now)

	c.Put("a", "1")
	_, ok := c.Get("a")
	assert.False(t, ok, "a never-stamped cache is expired")

	c.Put("a", "1")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestCache_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[int](5*time.Minute, clock.Now)

	c.Get("warmup")
	c.Put("a", 1)
	c.Put("b", 2)

	clock.Advance(5 * time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok, "exactly ttl is still fresh")
	assert.Equal(t, 1, v)

	clock.Advance(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expiry clears every entry at once")

	c.Put("b", 3)
	v, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCache_PutDoesNotExtendLifetime(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[int](time.Minute, clock.Now)

	c.Get("warmup")
	clock.Advance(50 * time.Second)
	c.Put("late", 1)
	clock.Advance(20 * time.Second)

	_, ok := c.Get("late")
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[int](time.Minute, clock.Now)

	c.Get("warmup")
	c.Put("a", 1)
	c.Invalidate()

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Defaults(t *testing.T) {
	c := New[int](0, nil)
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.NotNil(t, c.now)
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int](time.Hour, nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Put("k", i)
			c.Get("k")
		}(i)
	}
	wg.Wait()
}
