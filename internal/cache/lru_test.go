package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time            { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLRU(capacity int, ttl time.Duration) (*LRU[string, int], *fakeClock) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[string, int](capacity, ttl)
	c.now = clk.Now
	return c, clk
}

func TestLRU_GetPut(t *testing.T) {
	c, _ := newTestLRU(2, time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Put("a", 2)
	v, _ = c.Get("a")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestLRU(2, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB, "b was least recently used")
	assert.True(t, okC)
}

func TestLRU_TTLExpiry(t *testing.T) {
	c, clk := newTestLRU(4, 60*time.Second)
	c.Put("cases:v1", 7)

	clk.Advance(59 * time.Second)
	_, ok := c.Get("cases:v1")
	assert.True(t, ok)

	clk.Advance(2 * time.Second)
	_, ok = c.Get("cases:v1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_DeleteAndPurge(t *testing.T) {
	c, _ := newTestLRU(4, time.Minute)
	c.Put("a", 1)
	c.Put("b", 2)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Stats(t *testing.T) {
	c, _ := newTestLRU(4, time.Minute)
	c.Put("a", 1)
	c.Get("a")
	c.Get("missing")

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[int, int](16, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Put(j%20, n)
				c.Get(j % 20)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}

func TestLRU_PutTTL(t *testing.T) {
	c, clk := newTestLRU(4, time.Minute)
	c.PutTTL("grade:bitcoin", 1, 5*time.Minute)
	c.Put("cases:v1", 2)

	clk.Advance(2 * time.Minute)
	_, okGrade := c.Get("grade:bitcoin")
	_, okCases := c.Get("cases:v1")
	assert.True(t, okGrade)
	assert.False(t, okCases)
}
