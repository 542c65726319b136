// Package register implements the client-side register-day workflow: the
// per-date status cache, the permission gate, the transaction recorders and
// the session that ties them to a view.
package register

import (
	"context"
	"sync"

	"caja/internal/api"
	"caja/internal/core"
)

// StatusFetcher is the slice of the backend client the cache needs. The
// ingresos endpoint doubles as a status source because some backend builds
// embed estado there.
type StatusFetcher interface {
	Meta(ctx context.Context, fecha string) (api.MetaResponse, error)
	Ingresos(ctx context.Context, fecha string) (api.IngresosResponse, error)
}

// StatusCache holds the last-known RegisterDay snapshot per date. Entries
// live for the session; there is no TTL. A snapshot is replaced wholesale on
// every successful query, including the StatusUnknown result of a failed one.
//
// Each date carries a monotonic request sequence: a fetch result is applied
// only if no newer fetch was issued for that date in the meantime, so a slow
// stale response cannot overwrite a fresher snapshot.
type StatusCache struct {
	mu      sync.Mutex
	fetcher StatusFetcher
	days    map[string]core.RegisterDay
	seq     map[string]uint64
}

func NewStatusCache(fetcher StatusFetcher) *StatusCache {
	return &StatusCache{
		fetcher: fetcher,
		days:    make(map[string]core.RegisterDay),
		seq:     make(map[string]uint64),
	}
}

// GetStatus returns the snapshot for a date, querying the backend when the
// date is not cached or force is set. Backend failures never propagate: the
// result is a StatusUnknown snapshot, stored like any other.
func (c *StatusCache) GetStatus(ctx context.Context, date string, force bool) core.RegisterDay {
	c.mu.Lock()
	if day, ok := c.days[date]; ok && !force {
		c.mu.Unlock()
		return day
	}
	c.seq[date]++
	token := c.seq[date]
	c.mu.Unlock()

	day := c.fetch(ctx, date)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq[date] != token {
		// A newer request was issued while this one was in flight; keep
		// whatever the newer one applies and serve the current entry.
		if cur, ok := c.days[date]; ok {
			return cur
		}
		return day
	}
	c.days[date] = day
	return day
}

// Peek returns the cached snapshot without touching the network.
func (c *StatusCache) Peek(date string) (core.RegisterDay, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	day, ok := c.days[date]
	return day, ok
}

// Put stores a snapshot directly, bumping the sequence so that responses of
// older in-flight fetches cannot clobber it. Used when a mutating call (the
// close response) already carries the authoritative status.
func (c *StatusCache) Put(date string, day core.RegisterDay) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[date]++
	c.days[date] = day
}

// Invalidate drops the snapshot for a date, forcing the next GetStatus to
// query the backend.
func (c *StatusCache) Invalidate(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[date]++
	delete(c.days, date)
}

// fetch resolves a date's status: meta endpoint first, ingresos fallback
// when meta fails or carries no estado, StatusUnknown when both fall short.
func (c *StatusCache) fetch(ctx context.Context, date string) core.RegisterDay {
	day := core.RegisterDay{Date: date, Status: core.StatusUnknown}

	meta, err := c.fetcher.Meta(ctx, date)
	if err == nil {
		if st := core.StatusFromWire(meta.Estado); st != core.StatusUnknown {
			day.Status = st
			day.ClosedAt = meta.ClosedAt()
			return day
		}
	}

	in, err := c.fetcher.Ingresos(ctx, date)
	if err == nil {
		if st := core.StatusFromWire(in.Estado); st != core.StatusUnknown {
			day.Status = st
			day.ClosedAt = in.ClosedAt()
			return day
		}
	}

	return day
}
