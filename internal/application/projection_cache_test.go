package application

import (
	"testing"
	"time"

	"github.com/example/cleanops-scheduler/internal/availability"
)

func sampleDay(date time.Time) availability.DayAvailability {
	return availability.DayAvailability{
		Date: date,
		HourlyBlocks: []availability.Block{{
			Window:    availability.TimeRange{Start: availability.MustTimeOfDay("09:00"), End: availability.MustTimeOfDay("10:00")},
			Reason:    "Doctor",
			Source:    availability.BlockSourceAbsence,
			ColorHint: availability.AbsenceTypePersonal.ColorHint(),
		}},
	}
}

func TestProjectionCacheStoresAndReturnsCopies(t *testing.T) {
	date := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	current := date
	cache := NewProjectionCache(time.Minute, 4, func() time.Time { return current })

	original := sampleDay(date)
	cache.Store("worker-1", original)

	// Mutating the original slice should not affect the cached copy.
	original.HourlyBlocks[0].Reason = "mutated"

	cached, ok := cache.Get("worker-1", date)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if cached.HourlyBlocks[0].Reason != "Doctor" {
		t.Fatalf("expected cached reason to remain unchanged, got %s", cached.HourlyBlocks[0].Reason)
	}

	// Mutating the returned slice should not be visible on subsequent reads.
	cached.HourlyBlocks[0].Reason = "changed"
	cachedAgain, ok := cache.Get("worker-1", date)
	if !ok {
		t.Fatalf("expected cache hit on second read")
	}
	if cachedAgain.HourlyBlocks[0].Reason != "Doctor" {
		t.Fatalf("expected cache to return independent copy, got %s", cachedAgain.HourlyBlocks[0].Reason)
	}

	if _, ok := cache.Get("worker-2", date); ok {
		t.Fatalf("expected miss for another worker")
	}
}

func TestProjectionCacheExpiresEntries(t *testing.T) {
	date := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	current := date
	cache := NewProjectionCache(time.Second, 4, func() time.Time { return current })

	cache.Store("worker-1", sampleDay(date))
	if _, ok := cache.Get("worker-1", date); !ok {
		t.Fatalf("expected cache hit before expiry")
	}

	current = current.Add(2 * time.Second)
	if _, ok := cache.Get("worker-1", date); ok {
		t.Fatalf("expected cache entry to expire")
	}
}

func TestProjectionCacheInvalidateWorker(t *testing.T) {
	date := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	cache := NewProjectionCache(time.Minute, 8, time.Now)
	cache.Store("worker-1", sampleDay(date))
	cache.Store("worker-1", sampleDay(date.AddDate(0, 0, 1)))
	cache.Store("worker-2", sampleDay(date))

	cache.InvalidateWorker("worker-1")
	if _, ok := cache.Get("worker-1", date); ok {
		t.Fatalf("expected worker-1 entries to be dropped")
	}
	if _, ok := cache.Get("worker-1", date.AddDate(0, 0, 1)); ok {
		t.Fatalf("expected every worker-1 date to be dropped")
	}
	if _, ok := cache.Get("worker-2", date); !ok {
		t.Fatalf("expected worker-2 entry to survive")
	}

	cache.Invalidate()
	if _, ok := cache.Get("worker-2", date); ok {
		t.Fatalf("expected cache to be empty after invalidation")
	}
}

func TestProjectionCacheEvictsAtCapacity(t *testing.T) {
	date := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	cache := NewProjectionCache(time.Minute, 2, time.Now)
	for i := 0; i < 5; i++ {
		cache.Store("worker-1", sampleDay(date.AddDate(0, 0, i)))
	}
	if got := len(cache.entries); got > 2 {
		t.Fatalf("expected at most 2 entries, got %d", got)
	}
}

func TestProjectionCacheNilSafe(t *testing.T) {
	var cache *ProjectionCache
	cache.Store("worker-1", sampleDay(time.Now()))
	cache.InvalidateWorker("worker-1")
	cache.Invalidate()
	if _, ok := cache.Get("worker-1", time.Now()); ok {
		t.Fatalf("expected nil cache to miss")
	}
}

func TestProjectionCacheStoreIfCurrentSkipsAfterInvalidation(t *testing.T) {
	date := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	cache := NewProjectionCache(time.Minute, 4, nil)

	generation := cache.Generation("worker-1")
	cache.InvalidateWorker("worker-1")
	if cache.StoreIfCurrent("worker-1", generation, sampleDay(date)) {
		t.Fatalf("expected store to be skipped after worker invalidation")
	}

	generation = cache.Generation("worker-1")
	cache.InvalidateWorker("worker-2")
	if !cache.StoreIfCurrent("worker-1", generation, sampleDay(date)) {
		t.Fatalf("expected invalidating another worker to leave worker-1 current")
	}
	if _, ok := cache.Get("worker-1", date); !ok {
		t.Fatalf("expected stored projection to be served")
	}

	generation = cache.Generation("worker-1")
	cache.Invalidate()
	if cache.StoreIfCurrent("worker-1", generation, sampleDay(date)) {
		t.Fatalf("expected store to be skipped after a full invalidation")
	}
}
