package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/cleanops-scheduler/internal/application"
	"github.com/example/cleanops-scheduler/internal/persistence"
)

type recurringTaskService interface {
	CreateDefinition(ctx context.Context, input application.DefinitionInput) (application.CreatedDefinition, error)
}

type batchRunner interface {
	RunOnce(ctx context.Context) (application.ProcessResult, error)
}

// RecurringTaskHandler creates definitions and triggers batch passes.
type RecurringTaskHandler struct {
	service   recurringTaskService
	runner    batchRunner
	responder responder
	logger    *slog.Logger
}

// NewRecurringTaskHandler constructs the handler. runner may be nil when the
// manual trigger is disabled.
func NewRecurringTaskHandler(service recurringTaskService, runner batchRunner, logger *slog.Logger) *RecurringTaskHandler {
	base := defaultLogger(logger)
	return &RecurringTaskHandler{service: service, runner: runner, responder: newResponder(base), logger: base}
}

// TriggerEnabled reports whether Run has a runner to call.
func (h *RecurringTaskHandler) TriggerEnabled() bool {
	return h != nil && h.runner != nil
}

func (h *RecurringTaskHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RecurringTaskHandler", operation, attrs...)
}

func (h *RecurringTaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req definitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode definition request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "frequency", req.Frequency)
	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	created, err := h.service.CreateDefinition(r.Context(), input)
	if err != nil {
		logger.ErrorContext(r.Context(), "definition creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	preview := make([]string, 0, len(created.Preview))
	for _, at := range created.Preview {
		preview = append(preview, formatTimestamp(at))
	}
	logger.With("definition_id", created.Definition.ID).InfoContext(r.Context(), "definition created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, definitionResponse{
		Definition: toDefinitionDTO(created.Definition),
		Preview:    preview,
	})
}

// Run performs one batch pass immediately.
func (h *RecurringTaskHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.TriggerEnabled() {
		http.NotFound(w, r)
		return
	}

	logger := h.log(r.Context(), "Run")
	result, err := h.runner.RunOnce(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "manual batch pass failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRunResponse(result))
}

type definitionRequest struct {
	Name             string  `json:"name"`
	PropertyID       string  `json:"property_id"`
	ClientID         string  `json:"client_id"`
	TaskType         string  `json:"task_type"`
	Description      string  `json:"description"`
	EstimatedMinutes int     `json:"estimated_minutes"`
	CostCents        int64   `json:"cost_cents"`
	AssignedWorkerID *string `json:"assigned_worker_id"`
	Frequency        string  `json:"frequency"`
	Interval         int     `json:"interval"`
	DaysOfWeek       []int   `json:"days_of_week"`
	DayOfMonth       *int    `json:"day_of_month"`
	StartDate        string  `json:"start_date"`
	EndDate          *string `json:"end_date"`
	ExecutionTime    string  `json:"execution_time"`
	PreviewLimit     int     `json:"preview_limit"`
}

func (r definitionRequest) toInput() (application.DefinitionInput, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return application.DefinitionInput{}, err
	}
	end, err := parseOptionalDate("end_date", r.EndDate)
	if err != nil {
		return application.DefinitionInput{}, err
	}

	var assigned *string
	if r.AssignedWorkerID != nil {
		if trimmed := strings.TrimSpace(*r.AssignedWorkerID); trimmed != "" {
			assigned = &trimmed
		}
	}
	return application.DefinitionInput{
		Name: strings.TrimSpace(r.Name),
		Template: persistence.TaskTemplate{
			PropertyID:       strings.TrimSpace(r.PropertyID),
			ClientID:         strings.TrimSpace(r.ClientID),
			TaskType:         strings.TrimSpace(r.TaskType),
			Description:      r.Description,
			EstimatedMinutes: r.EstimatedMinutes,
			CostCents:        r.CostCents,
			AssignedWorkerID: assigned,
		},
		Frequency:     strings.TrimSpace(r.Frequency),
		Interval:      r.Interval,
		DaysOfWeek:    r.DaysOfWeek,
		DayOfMonth:    r.DayOfMonth,
		StartDate:     start,
		EndDate:       end,
		ExecutionTime: strings.TrimSpace(r.ExecutionTime),
		PreviewLimit:  r.PreviewLimit,
	}, nil
}

type definitionResponse struct {
	Definition definitionDTO `json:"definition"`
	Preview    []string      `json:"preview"`
}

type definitionDTO struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	PropertyID       string  `json:"property_id"`
	ClientID         string  `json:"client_id"`
	TaskType         string  `json:"task_type"`
	AssignedWorkerID *string `json:"assigned_worker_id,omitempty"`
	Frequency        string  `json:"frequency"`
	Interval         int     `json:"interval"`
	DaysOfWeek       []int   `json:"days_of_week,omitempty"`
	DayOfMonth       *int    `json:"day_of_month,omitempty"`
	StartDate        string  `json:"start_date"`
	EndDate          *string `json:"end_date,omitempty"`
	Active           bool    `json:"active"`
	NextExecution    *string `json:"next_execution,omitempty"`
	LastExecution    *string `json:"last_execution,omitempty"`
}

type runResponse struct {
	Materialized []taskDTO    `json:"materialized"`
	Advanced     []string     `json:"advanced"`
	Deactivated  []string     `json:"deactivated"`
	Failed       []failureDTO `json:"failed"`
}

type taskDTO struct {
	ID               string  `json:"id"`
	DefinitionID     *string `json:"definition_id,omitempty"`
	Name             string  `json:"name"`
	PropertyID       string  `json:"property_id"`
	TaskType         string  `json:"task_type"`
	AssignedWorkerID *string `json:"assigned_worker_id,omitempty"`
	ScheduledFor     string  `json:"scheduled_for"`
	Status           string  `json:"status"`
}

type failureDTO struct {
	DefinitionID string `json:"definition_id"`
	Error        string `json:"error"`
}

func toDefinitionDTO(def persistence.RecurringTaskDefinition) definitionDTO {
	dto := definitionDTO{
		ID:               def.ID,
		Name:             def.Name,
		PropertyID:       def.Template.PropertyID,
		ClientID:         def.Template.ClientID,
		TaskType:         def.Template.TaskType,
		AssignedWorkerID: def.Template.AssignedWorkerID,
		Frequency:        def.Frequency,
		Interval:         def.Interval,
		DayOfMonth:       def.DayOfMonth,
		StartDate:        formatDate(def.StartDate),
		Active:           def.Active,
		NextExecution:    optionalTimestamp(def.NextExecution),
		LastExecution:    optionalTimestamp(def.LastExecution),
	}
	for _, day := range def.DaysOfWeek {
		dto.DaysOfWeek = append(dto.DaysOfWeek, int(day))
	}
	if def.EndDate != nil {
		end := formatDate(*def.EndDate)
		dto.EndDate = &end
	}
	return dto
}

func toRunResponse(result application.ProcessResult) runResponse {
	resp := runResponse{
		Materialized: make([]taskDTO, 0, len(result.Materialized)),
		Advanced:     nonNil(result.Advanced),
		Deactivated:  nonNil(result.Deactivated),
		Failed:       make([]failureDTO, 0, len(result.Failed)),
	}
	for _, task := range result.Materialized {
		resp.Materialized = append(resp.Materialized, taskDTO{
			ID:               task.ID,
			DefinitionID:     task.DefinitionID,
			Name:             task.Name,
			PropertyID:       task.Template.PropertyID,
			TaskType:         task.Template.TaskType,
			AssignedWorkerID: task.Template.AssignedWorkerID,
			ScheduledFor:     formatTimestamp(task.ScheduledFor),
			Status:           task.Status,
		})
	}
	for _, failure := range result.Failed {
		message := ""
		if failure.Err != nil {
			message = failure.Err.Error()
		}
		resp.Failed = append(resp.Failed, failureDTO{DefinitionID: failure.DefinitionID, Error: message})
	}
	return resp
}

func optionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	value := formatTimestamp(*t)
	return &value
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
