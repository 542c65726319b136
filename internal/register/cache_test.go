package register

import (
	"context"
	"errors"
	"testing"
	"time"

	"caja/internal/api"
	"caja/internal/core"
)

func TestStatusCacheReadThrough(t *testing.T) {
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	cache := NewStatusCache(backend)
	ctx := context.Background()

	day := cache.GetStatus(ctx, today, false)
	if day.Status != core.StatusOpen {
		t.Fatalf("expected open, got %q", day.Status)
	}
	if got := backend.callCount("meta"); got != 1 {
		t.Fatalf("expected 1 meta call, got %d", got)
	}

	// Second read without force serves the cache.
	cache.GetStatus(ctx, today, false)
	if got := backend.callCount("meta"); got != 1 {
		t.Fatalf("cached read hit the network, meta calls = %d", got)
	}

	// Force refresh queries again.
	cache.GetStatus(ctx, today, true)
	if got := backend.callCount("meta"); got != 2 {
		t.Fatalf("force refresh did not query, meta calls = %d", got)
	}
}

func TestStatusCacheIngresosFallback(t *testing.T) {
	t.Run("meta transport failure", func(t *testing.T) {
		backend := newFakeBackend()
		backend.metaErr = errors.New("connection refused")
		backend.ingresos = api.IngresosResponse{Estado: "CERRADA"}
		cache := NewStatusCache(backend)

		day := cache.GetStatus(context.Background(), today, false)
		if day.Status != core.StatusClosed {
			t.Fatalf("expected closed from fallback, got %q", day.Status)
		}
		if backend.callCount("ingresos") != 1 {
			t.Fatal("fallback endpoint not queried")
		}
	})

	t.Run("meta without estado field", func(t *testing.T) {
		backend := newFakeBackend()
		backend.meta = api.MetaResponse{}
		backend.ingresos = api.IngresosResponse{Estado: "ABIERTA"}
		cache := NewStatusCache(backend)

		day := cache.GetStatus(context.Background(), today, false)
		if day.Status != core.StatusOpen {
			t.Fatalf("expected open from fallback, got %q", day.Status)
		}
	})
}

func TestStatusCacheUnknownOnDoubleFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.metaErr = errors.New("boom")
	backend.ingresosErr = errors.New("boom")
	cache := NewStatusCache(backend)

	day := cache.GetStatus(context.Background(), today, false)
	if day.Status != core.StatusUnknown {
		t.Fatalf("expected unknown, got %q", day.Status)
	}

	// The unknown result is cached like any other snapshot.
	if cached, ok := cache.Peek(today); !ok || cached.Status != core.StatusUnknown {
		t.Fatalf("unknown snapshot not stored: %v %v", cached, ok)
	}
	cache.GetStatus(context.Background(), today, false)
	if got := backend.callCount("meta"); got != 1 {
		t.Fatalf("unknown entry re-queried without force, meta calls = %d", got)
	}
}

func TestStatusCacheForceRefreshIdempotent(t *testing.T) {
	closedAt := time.Date(2026, 3, 14, 21, 0, 0, 0, time.Local)
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "CERRADA", CerradaEn: &closedAt}
	cache := NewStatusCache(backend)
	ctx := context.Background()

	first := cache.GetStatus(ctx, today, true)
	second := cache.GetStatus(ctx, today, true)
	if first.Status != second.Status || first.Date != second.Date {
		t.Fatalf("snapshots differ: %+v vs %+v", first, second)
	}
	if first.ClosedAt == nil || second.ClosedAt == nil || !first.ClosedAt.Equal(*second.ClosedAt) {
		t.Fatalf("closedAt differs: %v vs %v", first.ClosedAt, second.ClosedAt)
	}
}

func TestStatusCachePerDateEntries(t *testing.T) {
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	cache := NewStatusCache(backend)
	ctx := context.Background()

	cache.GetStatus(ctx, today, false)
	backend.mu.Lock()
	backend.meta = api.MetaResponse{Estado: "CERRADA"}
	backend.mu.Unlock()
	cache.GetStatus(ctx, yesterday, false)

	if day, _ := cache.Peek(today); day.Status != core.StatusOpen {
		t.Fatalf("today overwritten: %q", day.Status)
	}
	if day, _ := cache.Peek(yesterday); day.Status != core.StatusClosed {
		t.Fatalf("yesterday not stored: %q", day.Status)
	}
}

func TestStatusCacheStaleResponseFenced(t *testing.T) {
	// A slow in-flight refresh must not overwrite a snapshot applied by a
	// newer request (here: the close response stored via Put).
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	gate := make(chan struct{})
	backend.metaGate = gate
	cache := NewStatusCache(backend)

	done := make(chan core.RegisterDay)
	go func() {
		done <- cache.GetStatus(context.Background(), today, true)
	}()

	// Wait until the refresh is actually stuck on the wire, then the close
	// lands while it hangs.
	for backend.callCount("meta") == 0 {
		time.Sleep(time.Millisecond)
	}
	closed := core.RegisterDay{Date: today, Status: core.StatusClosed}
	cache.Put(today, closed)

	close(gate)
	stale := <-done

	if stale.Status != core.StatusClosed {
		t.Fatalf("stale fetch returned %q, want the fenced closed snapshot", stale.Status)
	}
	if day, _ := cache.Peek(today); day.Status != core.StatusClosed {
		t.Fatalf("stale response overwrote the cache: %q", day.Status)
	}
}

func TestStatusCacheInvalidate(t *testing.T) {
	backend := newFakeBackend()
	backend.meta = api.MetaResponse{Estado: "ABIERTA"}
	cache := NewStatusCache(backend)
	ctx := context.Background()

	cache.GetStatus(ctx, today, false)
	cache.Invalidate(today)
	if _, ok := cache.Peek(today); ok {
		t.Fatal("entry survived invalidation")
	}
	cache.GetStatus(ctx, today, false)
	if got := backend.callCount("meta"); got != 2 {
		t.Fatalf("invalidated entry not re-fetched, meta calls = %d", got)
	}
}
