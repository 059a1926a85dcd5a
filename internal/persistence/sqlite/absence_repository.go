package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/cleanops-scheduler/internal/persistence"
)

// AbsenceRepository implements persistence.AbsenceRepository using SQLite
type AbsenceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAbsenceRepository creates a new SQLite absence repository
func NewAbsenceRepository(pool *ConnectionPool) *AbsenceRepository {
	return &AbsenceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const absenceColumns = `id, worker_id, start_date, end_date, start_time, end_time, absence_type, location, reason, created_at, updated_at`

// CreateAbsence inserts a new absence
func (r *AbsenceRepository) CreateAbsence(ctx context.Context, absence persistence.Absence) error {
	if absence.ID == "" || absence.EndDate.Before(absence.StartDate) {
		return persistence.ErrConstraintViolation
	}
	if (absence.StartTime == nil) != (absence.EndTime == nil) {
		return persistence.ErrConstraintViolation
	}

	createdAt := timestampOrNow(absence.CreatedAt)
	updatedAt := absence.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	query := `INSERT INTO worker_absences (` + absenceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		absence.ID,
		absence.WorkerID,
		formatDate(absence.StartDate),
		formatDate(absence.EndDate),
		nullString(absence.StartTime),
		nullString(absence.EndTime),
		absence.AbsenceType,
		nullString(absence.Location),
		nullString(absence.Reason),
		formatTimestamp(createdAt),
		formatTimestamp(updatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetAbsence retrieves an absence by ID
func (r *AbsenceRepository) GetAbsence(ctx context.Context, id string) (persistence.Absence, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+absenceColumns+` FROM worker_absences WHERE id = ?`, id)
	absence, err := scanAbsence(row)
	if err != nil {
		return persistence.Absence{}, r.mapper.MapError(err)
	}
	return absence, nil
}

// DeleteAbsence deletes an absence by ID
func (r *AbsenceRepository) DeleteAbsence(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM worker_absences WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListAbsences lists the worker's absences intersecting [from, to]
func (r *AbsenceRepository) ListAbsences(ctx context.Context, workerID string, from, to time.Time) ([]persistence.Absence, error) {
	query := `SELECT ` + absenceColumns + `
		FROM worker_absences
		WHERE worker_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY start_date ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, workerID, formatDate(to), formatDate(from))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	absences := make([]persistence.Absence, 0)
	for rows.Next() {
		absence, err := scanAbsence(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		absences = append(absences, absence)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return absences, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAbsence(row rowScanner) (persistence.Absence, error) {
	var (
		absence              persistence.Absence
		startDate, endDate   string
		startTime, endTime   sql.NullString
		location, reason     sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&absence.ID,
		&absence.WorkerID,
		&startDate,
		&endDate,
		&startTime,
		&endTime,
		&absence.AbsenceType,
		&location,
		&reason,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Absence{}, err
	}

	var err error
	if absence.StartDate, err = parseDate(startDate); err != nil {
		return persistence.Absence{}, err
	}
	if absence.EndDate, err = parseDate(endDate); err != nil {
		return persistence.Absence{}, err
	}
	if absence.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.Absence{}, err
	}
	if absence.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.Absence{}, err
	}
	absence.StartTime = stringPtr(startTime)
	absence.EndTime = stringPtr(endTime)
	absence.Location = stringPtr(location)
	absence.Reason = stringPtr(reason)
	return absence, nil
}
