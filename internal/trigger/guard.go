// Package trigger runs batch passes of the recurring task processor behind a
// single active run guard, either on a cron schedule or on demand.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/cleanops-scheduler/internal/persistence"
)

// ErrRunInProgress is returned when another pass holds the run guard.
var ErrRunInProgress = errors.New("trigger: run already in progress")

// DefaultLeaseName names the lease guarding batch passes.
const DefaultLeaseName = "recurring-task-processor"

// Guard admits at most one batch pass at a time. Acquire returns a release
// function when the caller may run, or ErrRunInProgress.
type Guard interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// LocalGuard serialises passes within one process.
type LocalGuard struct {
	mu sync.Mutex
}

// NewLocalGuard constructs an in-process guard.
func NewLocalGuard() *LocalGuard {
	return &LocalGuard{}
}

// Acquire implements Guard.
func (g *LocalGuard) Acquire(ctx context.Context) (func(), error) {
	if !g.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	return g.mu.Unlock, nil
}

// LeaseGuard serialises passes across processes sharing a database by
// holding a named, expiring lease.
type LeaseGuard struct {
	leases persistence.LeaseRepository
	name   string
	holder string
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewLeaseGuard constructs a lease guard with a random holder identity. A
// non-positive ttl defaults to ten minutes.
func NewLeaseGuard(leases persistence.LeaseRepository, name string, ttl time.Duration, now func() time.Time) *LeaseGuard {
	return NewLeaseGuardWithLogger(leases, name, ttl, now, nil)
}

// NewLeaseGuardWithLogger constructs a lease guard that reports release
// failures to logger.
func NewLeaseGuardWithLogger(leases persistence.LeaseRepository, name string, ttl time.Duration, now func() time.Time, logger *slog.Logger) *LeaseGuard {
	if logger == nil {
		logger = slog.Default()
	}
	if name == "" {
		name = DefaultLeaseName
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &LeaseGuard{leases: leases, name: name, holder: uuid.NewString(), ttl: ttl, now: now, logger: logger}
}

// Holder returns the identity this guard acquires the lease under.
func (g *LeaseGuard) Holder() string {
	return g.holder
}

// Acquire implements Guard. The returned release frees the lease with a
// fresh context so cancellation of ctx does not strand it. A failed release
// is logged; the lease then blocks other holders until it expires.
func (g *LeaseGuard) Acquire(ctx context.Context) (func(), error) {
	acquired, err := g.leases.AcquireLease(ctx, g.name, g.holder, g.now(), g.ttl)
	if err != nil {
		return nil, fmt.Errorf("trigger: acquire lease %s: %w", g.name, err)
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := g.leases.ReleaseLease(releaseCtx, g.name, g.holder); err != nil {
			g.logger.ErrorContext(releaseCtx, "failed to release run lease",
				"lease", g.name,
				"holder", g.holder,
				"expires_in", g.ttl,
				"error", err,
			)
		}
	}, nil
}

// ChainGuard acquires every guard in order and releases them in reverse.
type ChainGuard []Guard

// Acquire implements Guard.
func (c ChainGuard) Acquire(ctx context.Context) (func(), error) {
	releases := make([]func(), 0, len(c))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, guard := range c {
		release, err := guard.Acquire(ctx)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}
