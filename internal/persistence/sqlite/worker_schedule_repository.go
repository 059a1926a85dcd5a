package sqlite

import (
	"context"
	"time"

	"github.com/example/cleanops-scheduler/internal/persistence"
)

// WorkerScheduleRepository implements persistence.WorkerScheduleRepository using SQLite
type WorkerScheduleRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewWorkerScheduleRepository creates a new SQLite worker schedule repository
func NewWorkerScheduleRepository(pool *ConnectionPool) *WorkerScheduleRepository {
	return &WorkerScheduleRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertFixedDayOff creates or updates a fixed day off, keeping the original created_at
func (r *WorkerScheduleRepository) UpsertFixedDayOff(ctx context.Context, dayOff persistence.FixedDayOff) error {
	if dayOff.ID == "" || dayOff.DayOfWeek < time.Sunday || dayOff.DayOfWeek > time.Saturday {
		return persistence.ErrConstraintViolation
	}

	now := formatTimestamp(timestampOrNow(dayOff.UpdatedAt))
	query := `
		INSERT INTO worker_fixed_days_off (id, worker_id, day_of_week, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			worker_id = excluded.worker_id,
			day_of_week = excluded.day_of_week,
			active = excluded.active,
			updated_at = excluded.updated_at`

	_, err := r.helper.Exec(ctx, query,
		dayOff.ID,
		dayOff.WorkerID,
		int(dayOff.DayOfWeek),
		boolToInt(dayOff.Active),
		formatTimestamp(timestampOrNow(dayOff.CreatedAt)),
		now,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListFixedDaysOff lists the worker's fixed days off ordered by weekday
func (r *WorkerScheduleRepository) ListFixedDaysOff(ctx context.Context, workerID string) ([]persistence.FixedDayOff, error) {
	query := `
		SELECT id, worker_id, day_of_week, active, created_at, updated_at
		FROM worker_fixed_days_off
		WHERE worker_id = ?
		ORDER BY day_of_week ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, workerID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	days := make([]persistence.FixedDayOff, 0)
	for rows.Next() {
		var (
			day                  persistence.FixedDayOff
			weekday, active      int
			createdAt, updatedAt string
		)
		if err := rows.Scan(&day.ID, &day.WorkerID, &weekday, &active, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		day.DayOfWeek = time.Weekday(weekday)
		day.Active = active == 1
		if day.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		if day.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return days, nil
}

// UpsertMaintenanceBlock creates or updates a maintenance block, keeping the original created_at
func (r *WorkerScheduleRepository) UpsertMaintenanceBlock(ctx context.Context, block persistence.MaintenanceBlock) error {
	if block.ID == "" || block.StartTime >= block.EndTime {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO worker_maintenance_blocks (id, worker_id, days_of_week, start_time, end_time, location, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			worker_id = excluded.worker_id,
			days_of_week = excluded.days_of_week,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			location = excluded.location,
			active = excluded.active,
			updated_at = excluded.updated_at`

	_, err := r.helper.Exec(ctx, query,
		block.ID,
		block.WorkerID,
		encodeWeekdays(block.DaysOfWeek),
		block.StartTime,
		block.EndTime,
		block.Location,
		boolToInt(block.Active),
		formatTimestamp(timestampOrNow(block.CreatedAt)),
		formatTimestamp(timestampOrNow(block.UpdatedAt)),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListMaintenanceBlocks lists the worker's maintenance blocks ordered by start time
func (r *WorkerScheduleRepository) ListMaintenanceBlocks(ctx context.Context, workerID string) ([]persistence.MaintenanceBlock, error) {
	query := `
		SELECT id, worker_id, days_of_week, start_time, end_time, location, active, created_at, updated_at
		FROM worker_maintenance_blocks
		WHERE worker_id = ?
		ORDER BY start_time ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, workerID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	blocks := make([]persistence.MaintenanceBlock, 0)
	for rows.Next() {
		var (
			block                persistence.MaintenanceBlock
			mask                 int64
			active               int
			createdAt, updatedAt string
		)
		if err := rows.Scan(&block.ID, &block.WorkerID, &mask, &block.StartTime, &block.EndTime, &block.Location, &active, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		block.DaysOfWeek = decodeWeekdays(mask)
		block.Active = active == 1
		if block.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		if block.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return blocks, nil
}
