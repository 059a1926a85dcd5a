package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/cleanops-scheduler/internal/application"
	"github.com/example/cleanops-scheduler/internal/availability"
)

type availabilityService interface {
	CheckAssignment(ctx context.Context, check application.AssignmentCheck) (application.AssignmentResult, error)
	ProjectDay(ctx context.Context, workerID string, date time.Time) (availability.DayAvailability, error)
	ProjectWeek(ctx context.Context, workerID string, weekStart time.Time) ([]availability.DayAvailability, error)
}

// AvailabilityHandler serves the assignment check and calendar projections.
type AvailabilityHandler struct {
	service   availabilityService
	responder responder
	logger    *slog.Logger
}

func NewAvailabilityHandler(service availabilityService, logger *slog.Logger) *AvailabilityHandler {
	base := defaultLogger(logger)
	return &AvailabilityHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AvailabilityHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AvailabilityHandler", operation, attrs...)
}

// Conflicts checks a candidate booking and reports conflicts with warning lines.
func (h *AvailabilityHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	workerID := r.PathValue("id")
	logger := h.log(r.Context(), "Conflicts", "worker_id", workerID)

	date, err := parseDateParam(r, "date")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	query := r.URL.Query()
	result, err := h.service.CheckAssignment(r.Context(), application.AssignmentCheck{
		WorkerID: workerID,
		Date:     date,
		Start:    strings.TrimSpace(query.Get("start")),
		End:      strings.TrimSpace(query.Get("end")),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "assignment check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("available", result.Available, "conflict_count", len(result.Conflicts)).InfoContext(r.Context(), "assignment checked")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toAssignmentResponse(result))
}

// Day returns the projection of a single calendar cell.
func (h *AvailabilityHandler) Day(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	workerID := r.PathValue("id")
	logger := h.log(r.Context(), "Day", "worker_id", workerID)

	date, err := parseDateParam(r, "date")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	day, err := h.service.ProjectDay(r.Context(), workerID, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "day projection failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dayResponse{Day: toDayDTO(day)})
}

// Week returns seven consecutive projections starting at the start parameter.
func (h *AvailabilityHandler) Week(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	workerID := r.PathValue("id")
	logger := h.log(r.Context(), "Week", "worker_id", workerID)

	start, err := parseDateParam(r, "start")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	days, err := h.service.ProjectWeek(r.Context(), workerID, start)
	if err != nil {
		logger.ErrorContext(r.Context(), "week projection failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]dayDTO, 0, len(days))
	for _, day := range days {
		out = append(out, toDayDTO(day))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, weekResponse{Days: out})
}

type assignmentResponse struct {
	WorkerID  string        `json:"worker_id"`
	Date      string        `json:"date"`
	Available bool          `json:"available"`
	Conflicts []conflictDTO `json:"conflicts"`
	Warnings  []string      `json:"warnings"`
}

type conflictDTO struct {
	Type        string `json:"type"`
	DayOfWeek   *int   `json:"day_of_week,omitempty"`
	AbsenceID   string `json:"absence_id,omitempty"`
	AbsenceType string `json:"absence_type,omitempty"`
	BlockID     string `json:"block_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Location    string `json:"location,omitempty"`
}

type dayResponse struct {
	Day dayDTO `json:"day"`
}

type weekResponse struct {
	Days []dayDTO `json:"days"`
}

type dayDTO struct {
	Date           string     `json:"date"`
	FullDayBlocked bool       `json:"full_day_blocked"`
	ReasonType     string     `json:"reason_type,omitempty"`
	ReasonLabel    string     `json:"reason_label,omitempty"`
	HourlyBlocks   []blockDTO `json:"hourly_blocks"`
}

type blockDTO struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Reason    string `json:"reason"`
	Source    string `json:"source"`
	ColorHint string `json:"color_hint,omitempty"`
}

func toAssignmentResponse(result application.AssignmentResult) assignmentResponse {
	conflicts := make([]conflictDTO, 0, len(result.Conflicts))
	for _, c := range result.Conflicts {
		conflicts = append(conflicts, toConflictDTO(c))
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return assignmentResponse{
		WorkerID:  result.WorkerID,
		Date:      formatDate(result.Date),
		Available: result.Available,
		Conflicts: conflicts,
		Warnings:  warnings,
	}
}

func toConflictDTO(c availability.Conflict) conflictDTO {
	dto := conflictDTO{Type: string(c.Type())}
	switch v := c.(type) {
	case availability.FixedDayOffConflict:
		day := int(v.DayOfWeek)
		dto.DayOfWeek = &day
	case availability.AbsenceConflict:
		dto.AbsenceID = v.AbsenceID
		dto.AbsenceType = string(v.AbsenceType)
		dto.Reason = v.Reason
		dto.Location = v.Location
		if v.Window != nil {
			dto.Start = v.Window.Start.String()
			dto.End = v.Window.End.String()
		}
	case availability.MaintenanceConflict:
		dto.BlockID = v.BlockID
		dto.Location = v.Location
		dto.Start = v.Window.Start.String()
		dto.End = v.Window.End.String()
	}
	return dto
}

func toDayDTO(day availability.DayAvailability) dayDTO {
	blocks := make([]blockDTO, 0, len(day.HourlyBlocks))
	for _, block := range day.HourlyBlocks {
		blocks = append(blocks, blockDTO{
			Start:     block.Window.Start.String(),
			End:       block.Window.End.String(),
			Reason:    block.Reason,
			Source:    string(block.Source),
			ColorHint: block.ColorHint,
		})
	}
	return dayDTO{
		Date:           formatDate(day.Date),
		FullDayBlocked: day.FullDayBlocked,
		ReasonType:     day.ReasonType,
		ReasonLabel:    day.ReasonLabel,
		HourlyBlocks:   blocks,
	}
}
