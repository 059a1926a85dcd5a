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

type calendarService interface {
	RecordAbsence(ctx context.Context, input application.RecordAbsenceInput) (persistence.Absence, error)
	CancelAbsence(ctx context.Context, absenceID string) error
	ListAbsences(ctx context.Context, workerID string, from, to time.Time) ([]persistence.Absence, error)
	SetFixedDayOff(ctx context.Context, input application.FixedDayOffInput) (persistence.FixedDayOff, error)
	SetMaintenanceBlock(ctx context.Context, input application.MaintenanceBlockInput) (persistence.MaintenanceBlock, error)
}

// CalendarHandler maintains absences, fixed days off and maintenance blocks.
type CalendarHandler struct {
	service   calendarService
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	return &CalendarHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CalendarHandler", operation, attrs...)
}

func (h *CalendarHandler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	workerID := r.PathValue("id")
	logger := h.log(r.Context(), "ListAbsences", "worker_id", workerID)

	from, err := parseDateParam(r, "from")
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	to := from
	if raw := r.URL.Query().Get("to"); strings.TrimSpace(raw) != "" {
		if to, err = parseDate("to", raw); err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
	}

	absences, err := h.service.ListAbsences(r.Context(), workerID, from, to)
	if err != nil {
		logger.ErrorContext(r.Context(), "absence list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]absenceDTO, 0, len(absences))
	for _, absence := range absences {
		out = append(out, toAbsenceDTO(absence))
	}
	logger.With("result_count", len(out)).InfoContext(r.Context(), "absences listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAbsencesResponse{Absences: out})
}

func (h *CalendarHandler) RecordAbsence(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	workerID := r.PathValue("id")
	var req absenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "RecordAbsence", "worker_id", workerID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode absence request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "RecordAbsence", "worker_id", workerID)
	input, err := req.toInput(workerID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	absence, err := h.service.RecordAbsence(r.Context(), input)
	if err != nil {
		logger.ErrorContext(r.Context(), "absence creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("absence_id", absence.ID).InfoContext(r.Context(), "absence created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, absenceResponse{Absence: toAbsenceDTO(absence)})
}

func (h *CalendarHandler) CancelAbsence(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	absenceID := r.PathValue("id")
	logger := h.log(r.Context(), "CancelAbsence", "absence_id", absenceID)
	if err := h.service.CancelAbsence(r.Context(), absenceID); err != nil {
		logger.ErrorContext(r.Context(), "absence cancel failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "absence cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *CalendarHandler) SetFixedDayOff(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	workerID := r.PathValue("id")
	var req fixedDayOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetFixedDayOff", "worker_id", workerID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode fixed day off request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetFixedDayOff", "worker_id", workerID, "day_of_week", req.DayOfWeek)
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	dayOff, err := h.service.SetFixedDayOff(r.Context(), application.FixedDayOffInput{
		WorkerID:  workerID,
		DayOfWeek: req.DayOfWeek,
		Active:    active,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "fixed day off update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "fixed day off updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, fixedDayOffResponse{FixedDayOff: toFixedDayOffDTO(dayOff)})
}

func (h *CalendarHandler) SetMaintenanceBlock(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	workerID := r.PathValue("id")
	var req maintenanceBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "SetMaintenanceBlock", "worker_id", workerID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode maintenance block request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetMaintenanceBlock", "worker_id", workerID)
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	block, err := h.service.SetMaintenanceBlock(r.Context(), application.MaintenanceBlockInput{
		ID:         strings.TrimSpace(req.ID),
		WorkerID:   workerID,
		DaysOfWeek: req.DaysOfWeek,
		StartTime:  strings.TrimSpace(req.StartTime),
		EndTime:    strings.TrimSpace(req.EndTime),
		Location:   strings.TrimSpace(req.Location),
		Active:     active,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "maintenance block update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("block_id", block.ID).InfoContext(r.Context(), "maintenance block updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, maintenanceBlockResponse{MaintenanceBlock: toMaintenanceBlockDTO(block)})
}

type absenceRequest struct {
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Type      string  `json:"type"`
	Location  *string `json:"location"`
	Reason    *string `json:"reason"`
}

func (r absenceRequest) toInput(workerID string) (application.RecordAbsenceInput, error) {
	start, err := parseDate("start_date", r.StartDate)
	if err != nil {
		return application.RecordAbsenceInput{}, err
	}
	end := start
	if strings.TrimSpace(r.EndDate) != "" {
		if end, err = parseDate("end_date", r.EndDate); err != nil {
			return application.RecordAbsenceInput{}, err
		}
	}
	return application.RecordAbsenceInput{
		WorkerID:  workerID,
		StartDate: start,
		EndDate:   end,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Type:      strings.TrimSpace(r.Type),
		Location:  r.Location,
		Reason:    r.Reason,
	}, nil
}

type fixedDayOffRequest struct {
	DayOfWeek int   `json:"day_of_week"`
	Active    *bool `json:"active"`
}

type maintenanceBlockRequest struct {
	ID         string `json:"id"`
	DaysOfWeek []int  `json:"days_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Location   string `json:"location"`
	Active     *bool  `json:"active"`
}

type absenceResponse struct {
	Absence absenceDTO `json:"absence"`
}

type listAbsencesResponse struct {
	Absences []absenceDTO `json:"absences"`
}

type fixedDayOffResponse struct {
	FixedDayOff fixedDayOffDTO `json:"fixed_day_off"`
}

type maintenanceBlockResponse struct {
	MaintenanceBlock maintenanceBlockDTO `json:"maintenance_block"`
}

type absenceDTO struct {
	ID        string  `json:"id"`
	WorkerID  string  `json:"worker_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Type      string  `json:"type"`
	Location  *string `json:"location,omitempty"`
	Reason    *string `json:"reason,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type fixedDayOffDTO struct {
	ID        string `json:"id"`
	WorkerID  string `json:"worker_id"`
	DayOfWeek int    `json:"day_of_week"`
	Active    bool   `json:"active"`
	UpdatedAt string `json:"updated_at"`
}

type maintenanceBlockDTO struct {
	ID         string `json:"id"`
	WorkerID   string `json:"worker_id"`
	DaysOfWeek []int  `json:"days_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Location   string `json:"location,omitempty"`
	Active     bool   `json:"active"`
	UpdatedAt  string `json:"updated_at"`
}

func toAbsenceDTO(absence persistence.Absence) absenceDTO {
	return absenceDTO{
		ID:        absence.ID,
		WorkerID:  absence.WorkerID,
		StartDate: formatDate(absence.StartDate),
		EndDate:   formatDate(absence.EndDate),
		StartTime: absence.StartTime,
		EndTime:   absence.EndTime,
		Type:      absence.AbsenceType,
		Location:  absence.Location,
		Reason:    absence.Reason,
		CreatedAt: formatTimestamp(absence.CreatedAt),
	}
}

func toFixedDayOffDTO(day persistence.FixedDayOff) fixedDayOffDTO {
	return fixedDayOffDTO{
		ID:        day.ID,
		WorkerID:  day.WorkerID,
		DayOfWeek: int(day.DayOfWeek),
		Active:    day.Active,
		UpdatedAt: formatTimestamp(day.UpdatedAt),
	}
}

func toMaintenanceBlockDTO(block persistence.MaintenanceBlock) maintenanceBlockDTO {
	days := make([]int, 0, len(block.DaysOfWeek))
	for _, day := range block.DaysOfWeek {
		days = append(days, int(day))
	}
	return maintenanceBlockDTO{
		ID:         block.ID,
		WorkerID:   block.WorkerID,
		DaysOfWeek: days,
		StartTime:  block.StartTime,
		EndTime:    block.EndTime,
		Location:   block.Location,
		Active:     block.Active,
		UpdatedAt:  formatTimestamp(block.UpdatedAt),
	}
}
