package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/cleanops-scheduler/internal/persistence"
)

// LeaseRepository implements persistence.LeaseRepository using SQLite
type LeaseRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewLeaseRepository creates a new SQLite lease repository
func NewLeaseRepository(pool *ConnectionPool) *LeaseRepository {
	return &LeaseRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// AcquireLease claims name for holder until now+ttl when the lease is free,
// expired, or already held by holder. Contention on the database is retried.
func (r *LeaseRepository) AcquireLease(ctx context.Context, name, holder string, now time.Time, ttl time.Duration) (bool, error) {
	if name == "" || holder == "" {
		return false, persistence.ErrConstraintViolation
	}

	acquired := false
	err := r.retry.WithRetry(ctx, func() error {
		acquired = false
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			var currentHolder, expiresAt string
			err := r.helper.QueryRowTx(ctx, tx, `SELECT holder, expires_at FROM run_leases WHERE name = ?`, name).
				Scan(&currentHolder, &expiresAt)
			switch {
			case errors.Is(err, sql.ErrNoRows):
			case err != nil:
				return err
			default:
				expiry, perr := parseTimestamp(expiresAt)
				if perr != nil {
					return perr
				}
				if currentHolder != holder && now.Before(expiry) {
					return nil
				}
			}

			query := `
				INSERT INTO run_leases (name, holder, expires_at) VALUES (?, ?, ?)
				ON CONFLICT (name) DO UPDATE SET holder = excluded.holder, expires_at = excluded.expires_at`
			if _, err := r.helper.ExecTx(ctx, tx, query, name, holder, formatTimestamp(now.Add(ttl))); err != nil {
				return err
			}
			acquired = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}
	return acquired, nil
}

// ReleaseLease frees name if holder still owns it
func (r *LeaseRepository) ReleaseLease(ctx context.Context, name, holder string) error {
	if _, err := r.helper.Exec(ctx, `DELETE FROM run_leases WHERE name = ? AND holder = ?`, name, holder); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}
