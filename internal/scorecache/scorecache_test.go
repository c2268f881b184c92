package scorecache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestLookupComputesOncePerDomain(t *testing.T) {
	var computes atomic.Int32
	c := New(func(_ context.Context, domain string) (string, error) {
		computes.Add(1)
		return "4.7", nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "4.7", c.Lookup(context.Background(), "apextraderfunding.com"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), computes.Load())
	assert.Equal(t, "4.7", c.Lookup(context.Background(), "apextraderfunding.com"))
	assert.Equal(t, int32(1), computes.Load())
}

func TestLookupSentinels(t *testing.T) {
	c := New(func(_ context.Context, domain string) (string, error) {
		switch domain {
		case "absent.com":
			return "", ErrNotFound
		case "broken.com":
			return "", eris.New("boom")
		}
		return "4.2", nil
	})

	assert.Equal(t, ScoreNotFound, c.Lookup(context.Background(), "absent.com"))
	assert.Equal(t, ScoreError, c.Lookup(context.Background(), "broken.com"))
	assert.Equal(t, ScoreNotFound, c.Lookup(context.Background(), ""))
}

func TestSeedSkipsErrors(t *testing.T) {
	var computes atomic.Int32
	c := New(func(_ context.Context, _ string) (string, error) {
		computes.Add(1)
		return "3.9", nil
	})

	c.Seed(map[string]string{
		"cached.com":   "4.5",
		"notfound.com": ScoreNotFound,
		"errored.com":  ScoreError,
	})

	assert.Equal(t, "4.5", c.Lookup(context.Background(), "cached.com"))
	assert.Equal(t, ScoreNotFound, c.Lookup(context.Background(), "notfound.com"))
	assert.Equal(t, int32(0), computes.Load())

	// Errors are not seeded; the next run retries them.
	assert.Equal(t, "3.9", c.Lookup(context.Background(), "errored.com"))
	assert.Equal(t, int32(1), computes.Load())
}

func TestSnapshot(t *testing.T) {
	c := New(func(_ context.Context, _ string) (string, error) { return "4.0", nil })
	c.Lookup(context.Background(), "a.com")
	c.Lookup(context.Background(), "b.com")

	snap := c.Snapshot()
	assert.Len(t, snap, 2)
	assert.Equal(t, "4.0", snap["a.com"])

	// The snapshot is a copy.
	snap["a.com"] = "changed"
	assert.Equal(t, "4.0", c.Lookup(context.Background(), "a.com"))
}
