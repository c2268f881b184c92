// Package scorecache memoizes one reputation-score lookup per domain per
// run. Concurrent workers resolving the same domain share a single compute.
package scorecache

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Sentinel scores. "Not found" means the lookup succeeded but the business
// has no profile; "Error" means the lookup itself failed. Kept distinct so
// a later run can retry errors without re-querying genuine absences.
const (
	ScoreNotFound = "Not found"
	ScoreError    = "Error"
)

// ErrNotFound is returned by a ComputeFunc when the business genuinely has
// no reputation profile.
var ErrNotFound = errors.New("scorecache: no profile found")

// ComputeFunc resolves a reputation score for a domain. Expensive; called
// at most once per domain per run.
type ComputeFunc func(ctx context.Context, domain string) (string, error)

// Cache is a process-scoped, single-flight score cache keyed by domain
// identity. Entries never expire within a run.
type Cache struct {
	compute ComputeFunc

	mu      sync.Mutex
	entries map[string]string
	group   singleflight.Group
}

// New creates a Cache around the given compute function.
func New(compute ComputeFunc) *Cache {
	return &Cache{
		compute: compute,
		entries: make(map[string]string),
	}
}

// Seed pre-populates entries, e.g. from a persisted score store. Sentinel
// values other than ScoreError are seeded as-is; errors are dropped so the
// run retries them.
func (c *Cache) Seed(scores map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for domain, score := range scores {
		if score == ScoreError || score == "" {
			continue
		}
		c.entries[domain] = score
	}
}

// Lookup returns the score for a domain, computing it on first use. All
// concurrent callers for the same domain wait on one compute and receive
// the same result. Failures are cached as ScoreError, absences as
// ScoreNotFound; Lookup itself never fails.
func (c *Cache) Lookup(ctx context.Context, domain string) string {
	if domain == "" {
		return ScoreNotFound
	}

	c.mu.Lock()
	if score, ok := c.entries[domain]; ok {
		c.mu.Unlock()
		return score
	}
	c.mu.Unlock()

	v, _, _ := c.group.Do(domain, func() (any, error) {
		score, err := c.compute(ctx, domain)
		switch {
		case errors.Is(err, ErrNotFound):
			score = ScoreNotFound
		case err != nil:
			zap.L().Warn("scorecache: compute failed",
				zap.String("domain", domain),
				zap.Error(err),
			)
			score = ScoreError
		}

		c.mu.Lock()
		c.entries[domain] = score
		c.mu.Unlock()
		return score, nil
	})

	return v.(string)
}

// Snapshot returns a copy of all resolved entries, for persistence by the
// caller.
func (c *Cache) Snapshot() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
