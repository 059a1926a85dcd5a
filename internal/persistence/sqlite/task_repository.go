package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/cleanops-scheduler/internal/persistence"
)

// TaskRepository implements persistence.TaskRepository using SQLite
type TaskRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTaskRepository creates a new SQLite task repository
func NewTaskRepository(pool *ConnectionPool) *TaskRepository {
	return &TaskRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const taskColumns = `id, definition_id, name, property_id, client_id, task_type, description, estimated_minutes,
	cost_cents, assigned_worker_id, scheduled_for, status, created_at`

// CreateTask inserts a new task
func (r *TaskRepository) CreateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.helper.Exec(ctx, query,
		task.ID,
		nullString(task.DefinitionID),
		task.Name,
		task.Template.PropertyID,
		task.Template.ClientID,
		task.Template.TaskType,
		task.Template.Description,
		task.Template.EstimatedMinutes,
		task.Template.CostCents,
		nullString(task.Template.AssignedWorkerID),
		formatTimestamp(task.ScheduledFor),
		task.Status,
		formatTimestamp(timestampOrNow(task.CreatedAt)),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// ListTasksForDefinition lists tasks generated from a definition ordered by schedule time
func (r *TaskRepository) ListTasksForDefinition(ctx context.Context, definitionID string) ([]persistence.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE definition_id = ?
		ORDER BY scheduled_for ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, definitionID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	tasks := make([]persistence.Task, 0)
	for rows.Next() {
		var (
			task                    persistence.Task
			definition, assigned    sql.NullString
			scheduledFor, createdAt string
		)
		if err := rows.Scan(
			&task.ID,
			&definition,
			&task.Name,
			&task.Template.PropertyID,
			&task.Template.ClientID,
			&task.Template.TaskType,
			&task.Template.Description,
			&task.Template.EstimatedMinutes,
			&task.Template.CostCents,
			&assigned,
			&scheduledFor,
			&task.Status,
			&createdAt,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}

		task.DefinitionID = stringPtr(definition)
		task.Template.AssignedWorkerID = stringPtr(assigned)
		if task.ScheduledFor, err = parseTimestamp(scheduledFor); err != nil {
			return nil, err
		}
		if task.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return tasks, nil
}
