package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/example/cleanops-scheduler/internal/persistence"
)

// Storage provides an in-memory persistence layer implementation.
type Storage struct {
	mu          sync.RWMutex
	absences    map[string]persistence.Absence
	daysOff     map[string]persistence.FixedDayOff
	maintenance map[string]persistence.MaintenanceBlock
	definitions map[string]persistence.RecurringTaskDefinition
	tasks       map[string]persistence.Task
	leases      map[string]lease
}

type lease struct {
	holder    string
	expiresAt time.Time
}

// Open returns a new, empty Storage instance.
func Open() *Storage {
	return &Storage{
		absences:    make(map[string]persistence.Absence),
		daysOff:     make(map[string]persistence.FixedDayOff),
		maintenance: make(map[string]persistence.MaintenanceBlock),
		definitions: make(map[string]persistence.RecurringTaskDefinition),
		tasks:       make(map[string]persistence.Task),
		leases:      make(map[string]lease),
	}
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// --- AbsenceRepository implementation ---

// CreateAbsence stores a new absence.
func (s *Storage) CreateAbsence(ctx context.Context, absence persistence.Absence) error {
	if absence.ID == "" || absence.EndDate.Before(absence.StartDate) {
		return persistence.ErrConstraintViolation
	}
	if (absence.StartTime == nil) != (absence.EndTime == nil) {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.absences[absence.ID]; ok {
		return fmt.Errorf("memory: absence %s: %w", absence.ID, persistence.ErrDuplicate)
	}

	s.absences[absence.ID] = cloneAbsence(absence)
	return nil
}

// GetAbsence retrieves an absence by ID.
func (s *Storage) GetAbsence(ctx context.Context, id string) (persistence.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	absence, ok := s.absences[id]
	if !ok {
		return persistence.Absence{}, persistence.ErrNotFound
	}
	return cloneAbsence(absence), nil
}

// DeleteAbsence removes an absence by ID.
func (s *Storage) DeleteAbsence(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.absences[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.absences, id)
	return nil
}

// ListAbsences returns the worker's absences intersecting [from, to] ordered by start date.
func (s *Storage) ListAbsences(ctx context.Context, workerID string, from, to time.Time) ([]persistence.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fromDay, toDay := dateKey(from), dateKey(to)
	absences := make([]persistence.Absence, 0)
	for _, absence := range s.absences {
		if absence.WorkerID != workerID {
			continue
		}
		if dateKey(absence.StartDate) > toDay || dateKey(absence.EndDate) < fromDay {
			continue
		}
		absences = append(absences, cloneAbsence(absence))
	}

	sort.Slice(absences, func(i, j int) bool {
		if absences[i].StartDate.Equal(absences[j].StartDate) {
			return absences[i].ID < absences[j].ID
		}
		return absences[i].StartDate.Before(absences[j].StartDate)
	})

	return absences, nil
}

// --- WorkerScheduleRepository implementation ---

// UpsertFixedDayOff creates or replaces a fixed day off.
func (s *Storage) UpsertFixedDayOff(ctx context.Context, dayOff persistence.FixedDayOff) error {
	if dayOff.ID == "" || dayOff.DayOfWeek < time.Sunday || dayOff.DayOfWeek > time.Saturday {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.daysOff[dayOff.ID]; ok {
		dayOff.CreatedAt = existing.CreatedAt
	}
	s.daysOff[dayOff.ID] = dayOff
	return nil
}

// ListFixedDaysOff returns the worker's fixed days off ordered by weekday.
func (s *Storage) ListFixedDaysOff(ctx context.Context, workerID string) ([]persistence.FixedDayOff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	days := make([]persistence.FixedDayOff, 0)
	for _, day := range s.daysOff {
		if day.WorkerID == workerID {
			days = append(days, day)
		}
	}

	sort.Slice(days, func(i, j int) bool {
		if days[i].DayOfWeek == days[j].DayOfWeek {
			return days[i].ID < days[j].ID
		}
		return days[i].DayOfWeek < days[j].DayOfWeek
	})

	return days, nil
}

// UpsertMaintenanceBlock creates or replaces a maintenance block.
func (s *Storage) UpsertMaintenanceBlock(ctx context.Context, block persistence.MaintenanceBlock) error {
	if block.ID == "" || block.StartTime >= block.EndTime {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	block.DaysOfWeek = uniqueWeekdays(block.DaysOfWeek)
	if existing, ok := s.maintenance[block.ID]; ok {
		block.CreatedAt = existing.CreatedAt
	}
	s.maintenance[block.ID] = cloneMaintenance(block)
	return nil
}

// ListMaintenanceBlocks returns the worker's maintenance blocks ordered by start time.
func (s *Storage) ListMaintenanceBlocks(ctx context.Context, workerID string) ([]persistence.MaintenanceBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocks := make([]persistence.MaintenanceBlock, 0)
	for _, block := range s.maintenance {
		if block.WorkerID == workerID {
			blocks = append(blocks, cloneMaintenance(block))
		}
	}

	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].StartTime == blocks[j].StartTime {
			return blocks[i].ID < blocks[j].ID
		}
		return blocks[i].StartTime < blocks[j].StartTime
	})

	return blocks, nil
}

// --- RecurringDefinitionRepository implementation ---

// CreateDefinition stores a new recurring task definition.
func (s *Storage) CreateDefinition(ctx context.Context, def persistence.RecurringTaskDefinition) error {
	if def.ID == "" || def.Interval < 1 {
		return persistence.ErrConstraintViolation
	}
	if def.EndDate != nil && def.EndDate.Before(def.StartDate) {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.definitions[def.ID]; ok {
		return fmt.Errorf("memory: definition %s: %w", def.ID, persistence.ErrDuplicate)
	}
	def.DaysOfWeek = uniqueWeekdays(def.DaysOfWeek)
	s.definitions[def.ID] = cloneDefinition(def)
	return nil
}

// GetDefinition retrieves a definition by ID.
func (s *Storage) GetDefinition(ctx context.Context, id string) (persistence.RecurringTaskDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[id]
	if !ok {
		return persistence.RecurringTaskDefinition{}, persistence.ErrNotFound
	}
	return cloneDefinition(def), nil
}

// ListDueDefinitions returns active definitions due at or before now.
func (s *Storage) ListDueDefinitions(ctx context.Context, now time.Time) ([]persistence.RecurringTaskDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	due := make([]persistence.RecurringTaskDefinition, 0)
	for _, def := range s.definitions {
		if !def.Active || def.NextExecution == nil || def.NextExecution.After(now) {
			continue
		}
		due = append(due, cloneDefinition(def))
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].NextExecution.Equal(*due[j].NextExecution) {
			return due[i].ID < due[j].ID
		}
		return due[i].NextExecution.Before(*due[j].NextExecution)
	})

	return due, nil
}

// UpdateDefinitionSchedule rewrites the execution bookkeeping of a definition.
func (s *Storage) UpdateDefinitionSchedule(ctx context.Context, id string, update persistence.DefinitionScheduleUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.definitions[id]
	if !ok {
		return persistence.ErrNotFound
	}

	last := update.LastExecution
	def.LastExecution = &last
	def.NextExecution = cloneTimePtr(update.NextExecution)
	def.Active = update.Active
	def.UpdatedAt = update.LastExecution
	s.definitions[id] = def
	return nil
}

// --- TaskRepository implementation ---

// CreateTask stores a new task.
func (s *Storage) CreateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" {
		return persistence.ErrConstraintViolation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; ok {
		return fmt.Errorf("memory: task %s: %w", task.ID, persistence.ErrDuplicate)
	}
	if task.DefinitionID != nil {
		if _, ok := s.definitions[*task.DefinitionID]; !ok {
			return persistence.ErrForeignKeyViolation
		}
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

// ListTasksForDefinition returns tasks generated from a definition ordered by schedule time.
func (s *Storage) ListTasksForDefinition(ctx context.Context, definitionID string) ([]persistence.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]persistence.Task, 0)
	for _, task := range s.tasks {
		if task.DefinitionID != nil && *task.DefinitionID == definitionID {
			tasks = append(tasks, cloneTask(task))
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].ScheduledFor.Equal(tasks[j].ScheduledFor) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].ScheduledFor.Before(tasks[j].ScheduledFor)
	})

	return tasks, nil
}

// --- LeaseRepository implementation ---

// AcquireLease claims name for holder when it is free, expired, or already held by holder.
func (s *Storage) AcquireLease(ctx context.Context, name, holder string, now time.Time, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.leases[name]; ok && current.holder != holder && now.Before(current.expiresAt) {
		return false, nil
	}
	s.leases[name] = lease{holder: holder, expiresAt: now.Add(ttl)}
	return true, nil
}

// ReleaseLease frees name if holder still owns it.
func (s *Storage) ReleaseLease(ctx context.Context, name, holder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.leases[name]; ok && current.holder == holder {
		delete(s.leases, name)
	}
	return nil
}

// --- Helpers ---

func dateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}

func cloneTimePtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copy := *value
	return &copy
}

func cloneWeekdays(days []time.Weekday) []time.Weekday {
	out := make([]time.Weekday, len(days))
	copy(out, days)
	return out
}

func cloneAbsence(absence persistence.Absence) persistence.Absence {
	absence.StartTime = cloneStringPtr(absence.StartTime)
	absence.EndTime = cloneStringPtr(absence.EndTime)
	absence.Location = cloneStringPtr(absence.Location)
	absence.Reason = cloneStringPtr(absence.Reason)
	return absence
}

func cloneMaintenance(block persistence.MaintenanceBlock) persistence.MaintenanceBlock {
	block.DaysOfWeek = cloneWeekdays(block.DaysOfWeek)
	return block
}

func cloneTemplate(template persistence.TaskTemplate) persistence.TaskTemplate {
	template.AssignedWorkerID = cloneStringPtr(template.AssignedWorkerID)
	return template
}

func cloneDefinition(def persistence.RecurringTaskDefinition) persistence.RecurringTaskDefinition {
	def.Template = cloneTemplate(def.Template)
	def.DaysOfWeek = cloneWeekdays(def.DaysOfWeek)
	if def.DayOfMonth != nil {
		day := *def.DayOfMonth
		def.DayOfMonth = &day
	}
	def.EndDate = cloneTimePtr(def.EndDate)
	def.NextExecution = cloneTimePtr(def.NextExecution)
	def.LastExecution = cloneTimePtr(def.LastExecution)
	return def
}

func cloneTask(task persistence.Task) persistence.Task {
	task.DefinitionID = cloneStringPtr(task.DefinitionID)
	task.Template = cloneTemplate(task.Template)
	return task
}

func uniqueWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	result := make([]time.Weekday, 0, len(days))
	for _, day := range days {
		if day < time.Sunday || day > time.Saturday {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		result = append(result, day)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})

	return result
}
