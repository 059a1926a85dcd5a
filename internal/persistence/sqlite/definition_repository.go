package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/cleanops-scheduler/internal/persistence"
)

// DefinitionRepository implements persistence.RecurringDefinitionRepository using SQLite
type DefinitionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewDefinitionRepository creates a new SQLite recurring definition repository
func NewDefinitionRepository(pool *ConnectionPool) *DefinitionRepository {
	return &DefinitionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const definitionColumns = `id, name, property_id, client_id, task_type, description, estimated_minutes, cost_cents,
	assigned_worker_id, frequency, interval_value, days_of_week, day_of_month, start_date, end_date, active,
	next_execution, last_execution, created_at, updated_at`

// CreateDefinition inserts a new recurring task definition
func (r *DefinitionRepository) CreateDefinition(ctx context.Context, def persistence.RecurringTaskDefinition) error {
	if def.ID == "" || def.Interval < 1 {
		return persistence.ErrConstraintViolation
	}
	if def.EndDate != nil && def.EndDate.Before(def.StartDate) {
		return persistence.ErrConstraintViolation
	}

	createdAt := timestampOrNow(def.CreatedAt)
	updatedAt := def.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	var dayOfMonth sql.NullInt64
	if def.DayOfMonth != nil {
		dayOfMonth = sql.NullInt64{Int64: int64(*def.DayOfMonth), Valid: true}
	}

	query := `INSERT INTO recurring_task_definitions (` + definitionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		def.ID,
		def.Name,
		def.Template.PropertyID,
		def.Template.ClientID,
		def.Template.TaskType,
		def.Template.Description,
		def.Template.EstimatedMinutes,
		def.Template.CostCents,
		nullString(def.Template.AssignedWorkerID),
		def.Frequency,
		def.Interval,
		encodeWeekdays(def.DaysOfWeek),
		dayOfMonth,
		formatDate(def.StartDate),
		nullDate(def.EndDate),
		boolToInt(def.Active),
		nullTimestamp(def.NextExecution),
		nullTimestamp(def.LastExecution),
		formatTimestamp(createdAt),
		formatTimestamp(updatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetDefinition retrieves a definition by ID
func (r *DefinitionRepository) GetDefinition(ctx context.Context, id string) (persistence.RecurringTaskDefinition, error) {
	row := r.helper.QueryRow(ctx, `SELECT `+definitionColumns+` FROM recurring_task_definitions WHERE id = ?`, id)
	def, err := scanDefinition(row)
	if err != nil {
		return persistence.RecurringTaskDefinition{}, r.mapper.MapError(err)
	}
	return def, nil
}

// ListDueDefinitions lists active definitions due at or before now ordered by next execution
func (r *DefinitionRepository) ListDueDefinitions(ctx context.Context, now time.Time) ([]persistence.RecurringTaskDefinition, error) {
	query := `SELECT ` + definitionColumns + `
		FROM recurring_task_definitions
		WHERE active = 1 AND next_execution IS NOT NULL AND next_execution <= ?
		ORDER BY next_execution ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, formatTimestamp(now))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	due := make([]persistence.RecurringTaskDefinition, 0)
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		due = append(due, def)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return due, nil
}

// UpdateDefinitionSchedule rewrites last and next execution and the active flag
func (r *DefinitionRepository) UpdateDefinitionSchedule(ctx context.Context, id string, update persistence.DefinitionScheduleUpdate) error {
	query := `
		UPDATE recurring_task_definitions
		SET last_execution = ?, next_execution = ?, active = ?, updated_at = ?
		WHERE id = ?`

	last := update.LastExecution
	result, err := r.helper.Exec(ctx, query,
		formatTimestamp(last),
		nullTimestamp(update.NextExecution),
		boolToInt(update.Active),
		formatTimestamp(timestampOrNow(last)),
		id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return r.mapper.MapError(err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanDefinition(row rowScanner) (persistence.RecurringTaskDefinition, error) {
	var (
		def                  persistence.RecurringTaskDefinition
		assignedWorker       sql.NullString
		mask                 int64
		dayOfMonth           sql.NullInt64
		startDate            string
		endDate              sql.NullString
		active               int
		nextExec, lastExec   sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&def.ID,
		&def.Name,
		&def.Template.PropertyID,
		&def.Template.ClientID,
		&def.Template.TaskType,
		&def.Template.Description,
		&def.Template.EstimatedMinutes,
		&def.Template.CostCents,
		&assignedWorker,
		&def.Frequency,
		&def.Interval,
		&mask,
		&dayOfMonth,
		&startDate,
		&endDate,
		&active,
		&nextExec,
		&lastExec,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.RecurringTaskDefinition{}, err
	}

	var err error
	def.Template.AssignedWorkerID = stringPtr(assignedWorker)
	def.DaysOfWeek = decodeWeekdays(mask)
	if dayOfMonth.Valid {
		day := int(dayOfMonth.Int64)
		def.DayOfMonth = &day
	}
	def.Active = active == 1
	if def.StartDate, err = parseDate(startDate); err != nil {
		return persistence.RecurringTaskDefinition{}, err
	}
	if def.EndDate, err = parseNullDate(endDate); err != nil {
		return persistence.RecurringTaskDefinition{}, err
	}
	if def.NextExecution, err = parseNullTimestamp(nextExec); err != nil {
		return persistence.RecurringTaskDefinition{}, err
	}
	if def.LastExecution, err = parseNullTimestamp(lastExec); err != nil {
		return persistence.RecurringTaskDefinition{}, err
	}
	if def.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return persistence.RecurringTaskDefinition{}, err
	}
	if def.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return persistence.RecurringTaskDefinition{}, err
	}
	return def, nil
}
