package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/cleanops-scheduler/internal/availability"
	"github.com/example/cleanops-scheduler/internal/persistence"
	"github.com/example/cleanops-scheduler/internal/recurrence"
)

// DefaultPreviewLimit is the number of upcoming executions returned with a new definition.
const DefaultPreviewLimit = 5

// RecurringTaskService creates recurring task definitions and turns due
// definitions into concrete tasks.
type RecurringTaskService struct {
	definitions persistence.RecurringDefinitionRepository
	tasks       persistence.TaskRepository
	engine      *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	workers     int
	logger      *slog.Logger
}

// NewRecurringTaskService constructs a recurring task service with the provided dependencies.
func NewRecurringTaskService(definitions persistence.RecurringDefinitionRepository, tasks persistence.TaskRepository, engine *recurrence.Engine, idGenerator func() string, now func() time.Time) *RecurringTaskService {
	return NewRecurringTaskServiceWithLogger(definitions, tasks, engine, idGenerator, now, nil)
}

// NewRecurringTaskServiceWithLogger constructs a recurring task service with a specified logger.
func NewRecurringTaskServiceWithLogger(definitions persistence.RecurringDefinitionRepository, tasks persistence.TaskRepository, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RecurringTaskService {
	if engine == nil {
		engine = recurrence.NewEngine(time.UTC)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RecurringTaskService{
		definitions: definitions,
		tasks:       tasks,
		engine:      engine,
		idGenerator: idGenerator,
		now:         now,
		workers:     1,
		logger:      defaultLogger(logger),
	}
}

// SetWorkers bounds how many definitions a pass processes concurrently.
// Values below one are treated as one.
func (s *RecurringTaskService) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	s.workers = n
}

func (s *RecurringTaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RecurringTaskService", operation, attrs...)
}

// CreateDefinition validates and stores a recurring task definition whose
// first execution is its start date at the requested time of day, and
// returns it with a preview of upcoming executions.
func (s *RecurringTaskService) CreateDefinition(ctx context.Context, input DefinitionInput) (created CreatedDefinition, err error) {
	if s == nil {
		err = fmt.Errorf("RecurringTaskService is nil")
		return
	}
	if s.definitions == nil {
		err = fmt.Errorf("recurring definition repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateDefinition",
		"frequency", input.Frequency,
		"property_id", input.Template.PropertyID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create recurring definition", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("definition_id", created.Definition.ID).InfoContext(ctx, "recurring definition created")
	}()

	var def persistence.RecurringTaskDefinition
	def, err = s.buildDefinition(input)
	if err != nil {
		return
	}

	if err = s.definitions.CreateDefinition(ctx, def); err != nil {
		err = mapRepoError(err, "definition")
		return
	}

	limit := input.PreviewLimit
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	var domain recurrence.Definition
	domain, err = toRecurrenceDefinition(def)
	if err != nil {
		return
	}
	var preview []time.Time
	preview, err = s.engine.Preview(domain, recurrence.PreviewOptions{Limit: limit})
	if err != nil {
		return
	}

	created = CreatedDefinition{Definition: def, Preview: preview}
	return
}

func (s *RecurringTaskService) buildDefinition(input DefinitionInput) (persistence.RecurringTaskDefinition, error) {
	vErr := &ValidationError{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Template.PropertyID) == "" {
		vErr.add("property_id", "property id is required")
	}
	if input.Template.EstimatedMinutes < 0 {
		vErr.add("estimated_minutes", "estimated minutes must not be negative")
	}
	if input.Template.CostCents < 0 {
		vErr.add("cost_cents", "cost must not be negative")
	}

	frequency, freqErr := recurrence.ParseFrequency(input.Frequency)
	if freqErr != nil {
		vErr.add("frequency", "frequency must be daily, weekly or monthly")
	}

	interval := input.Interval
	if interval == 0 {
		interval = 1
	}
	if interval < 1 {
		vErr.add("interval", "interval must be at least 1")
	}

	days := parseWeekdays("days_of_week", input.DaysOfWeek, vErr)
	if len(input.DaysOfWeek) > 0 && freqErr == nil && frequency != recurrence.FrequencyWeekly {
		vErr.add("days_of_week", "days of week apply to weekly definitions only")
	}

	var dayOfMonth *int
	if input.DayOfMonth != nil {
		switch {
		case *input.DayOfMonth < 1 || *input.DayOfMonth > 31:
			vErr.add("day_of_month", "day of month must be between 1 and 31")
		case freqErr == nil && frequency != recurrence.FrequencyMonthly:
			vErr.add("day_of_month", "day of month applies to monthly definitions only")
		default:
			day := *input.DayOfMonth
			dayOfMonth = &day
		}
	}

	if input.StartDate.IsZero() {
		vErr.add("start_date", "start date is required")
	}
	var endDate *time.Time
	if input.EndDate != nil {
		end := dateOnly(*input.EndDate)
		if !input.StartDate.IsZero() && end.Before(dateOnly(input.StartDate)) {
			vErr.add("end_date", "end date must not be before start date")
		}
		endDate = &end
	}

	executionTime := strings.TrimSpace(input.ExecutionTime)
	if executionTime == "" {
		executionTime = "00:00"
	}
	timeOfDay, timeErr := availability.ParseTimeOfDay(executionTime)
	if timeErr != nil {
		vErr.add("execution_time", "execution time must be HH:MM")
	}

	if vErr.HasErrors() {
		return persistence.RecurringTaskDefinition{}, vErr
	}

	start := dateOnly(input.StartDate)
	y, m, d := start.Date()
	minutes := timeOfDay.Minutes()
	next := time.Date(y, m, d, minutes/60, minutes%60, 0, 0, s.engine.Location())

	template := input.Template
	template.PropertyID = strings.TrimSpace(template.PropertyID)
	template.AssignedWorkerID = normalizeOptionalString(template.AssignedWorkerID)

	now := s.now()
	return persistence.RecurringTaskDefinition{
		ID:            s.idGenerator(),
		Name:          name,
		Template:      template,
		Frequency:     frequency.String(),
		Interval:      interval,
		DaysOfWeek:    days,
		DayOfMonth:    dayOfMonth,
		StartDate:     start,
		EndDate:       endDate,
		Active:        true,
		NextExecution: &next,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ProcessDue materializes one task for every active definition due at or
// before now and advances or deactivates each definition. Definitions are
// processed independently: a failure is recorded in the result and never
// stops the others. The returned error is non-nil only when the due set
// cannot be read.
func (s *RecurringTaskService) ProcessDue(ctx context.Context, now time.Time) (result ProcessResult, err error) {
	if s == nil {
		err = fmt.Errorf("RecurringTaskService is nil")
		return
	}
	if s.definitions == nil || s.tasks == nil {
		err = fmt.Errorf("recurring task repositories not configured")
		return
	}

	logger := s.loggerWith(ctx, "ProcessDue", "now", now)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to process due definitions", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"materialized", len(result.Materialized),
			"advanced", len(result.Advanced),
			"deactivated", len(result.Deactivated),
			"failed", len(result.Failed),
		).InfoContext(ctx, "due definitions processed")
	}()

	var due []persistence.RecurringTaskDefinition
	due, err = s.definitions.ListDueDefinitions(ctx, now)
	if err != nil {
		err = mapRepoError(err, "definition")
		return
	}

	outcomes := make([]definitionOutcome, len(due))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for i := range due {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = s.processDefinition(ctx, logger, due[i], now)
		}(i)
	}
	wg.Wait()

	result = ProcessResult{
		Materialized: make([]persistence.Task, 0, len(due)),
		Advanced:     make([]string, 0, len(due)),
		Deactivated:  make([]string, 0),
		Failed:       make([]ProcessFailure, 0),
	}
	for i, outcome := range outcomes {
		id := due[i].ID
		if outcome.task != nil {
			result.Materialized = append(result.Materialized, *outcome.task)
		}
		switch {
		case outcome.failure != nil:
			result.Failed = append(result.Failed, ProcessFailure{DefinitionID: id, Err: outcome.failure})
			if outcome.deactivated {
				result.Deactivated = append(result.Deactivated, id)
			}
		case outcome.deactivated:
			result.Deactivated = append(result.Deactivated, id)
		case outcome.advanced:
			result.Advanced = append(result.Advanced, id)
		}
	}
	return
}

type definitionOutcome struct {
	task        *persistence.Task
	advanced    bool
	deactivated bool
	failure     error
}

func (s *RecurringTaskService) processDefinition(ctx context.Context, base *slog.Logger, def persistence.RecurringTaskDefinition, now time.Time) (outcome definitionOutcome) {
	logger := base.With("definition_id", def.ID)
	defer func() {
		if outcome.failure != nil {
			logger.ErrorContext(ctx, "failed to process definition", "error", outcome.failure, "error_kind", ErrorKind(outcome.failure))
		}
	}()

	if def.NextExecution == nil {
		outcome.failure = recurrence.ErrNoAnchor
		return
	}

	task := persistence.Task{
		ID:           s.idGenerator(),
		DefinitionID: &def.ID,
		Name:         def.Name,
		Template:     cloneTemplate(def.Template),
		ScheduledFor: *def.NextExecution,
		Status:       persistence.TaskStatusPending,
		CreatedAt:    now,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		outcome.failure = fmt.Errorf("materialize task: %w", err)
		return
	}
	outcome.task = &task
	logger.InfoContext(ctx, "task materialized", "task_id", task.ID, "scheduled_for", task.ScheduledFor)

	update := persistence.DefinitionScheduleUpdate{LastExecution: now, Active: true}

	// Advance from the occurrence that just fired, not from the previous pass
	// time, so the new next execution is always after the one materialized.
	domain, calcErr := toRecurrenceDefinition(def)
	var next time.Time
	if calcErr == nil {
		domain.LastExecution = def.NextExecution
		next, calcErr = s.engine.NextExecution(domain)
	}

	switch {
	case calcErr != nil:
		// A rule that cannot advance would fire on every pass.
		update.Active = false
		outcome.failure = fmt.Errorf("compute next execution: %w", calcErr)
	case s.engine.PastEnd(domain, next):
		update.Active = false
	default:
		update.NextExecution = &next
	}

	if err := s.definitions.UpdateDefinitionSchedule(ctx, def.ID, update); err != nil {
		outcome.failure = errors.Join(outcome.failure, fmt.Errorf("update definition: %w", err))
		return
	}

	if !update.Active {
		outcome.deactivated = true
		logger.InfoContext(ctx, "definition deactivated", "last_execution", now)
		return
	}
	outcome.advanced = true
	logger.InfoContext(ctx, "definition advanced", "next_execution", next)
	return
}

func toRecurrenceDefinition(def persistence.RecurringTaskDefinition) (recurrence.Definition, error) {
	frequency, err := recurrence.ParseFrequency(def.Frequency)
	if err != nil {
		return recurrence.Definition{}, err
	}
	rule := recurrence.Rule{
		Frequency: frequency,
		Interval:  def.Interval,
		Weekdays:  append([]time.Weekday(nil), def.DaysOfWeek...),
	}
	if def.DayOfMonth != nil {
		rule.DayOfMonth = *def.DayOfMonth
	}
	return recurrence.Definition{
		ID:            def.ID,
		Rule:          rule,
		StartsOn:      def.StartDate,
		EndsOn:        def.EndDate,
		NextExecution: def.NextExecution,
		LastExecution: def.LastExecution,
	}, nil
}

func cloneTemplate(template persistence.TaskTemplate) persistence.TaskTemplate {
	if template.AssignedWorkerID != nil {
		worker := *template.AssignedWorkerID
		template.AssignedWorkerID = &worker
	}
	return template
}
