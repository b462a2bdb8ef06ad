package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"medication-service/internal/domain/entity"
	domainservice "medication-service/internal/domain/service"
	"medication-service/internal/service"
	"medication-service/internal/voice"
)

// ScheduleHandler handles schedule and adherence requests
type ScheduleHandler struct {
	schedule  domainservice.ScheduleService
	reminders *voice.Manager
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(schedule domainservice.ScheduleService, reminders *voice.Manager) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule, reminders: reminders}
}

type scheduleEntryView struct {
	Seq           int    `json:"seq"`
	MedicineID    string `json:"medicine_id"`
	Name          string `json:"name"`
	Dosage        string `json:"dosage"`
	ScheduledTime string `json:"scheduled_time"`
	Status        string `json:"status"`
}

func entryView(entry *entity.ScheduleEntry) scheduleEntryView {
	return scheduleEntryView{
		Seq:           entry.Seq,
		MedicineID:    entry.MedicineID.String(),
		Name:          entry.Name,
		Dosage:        entry.Dosage,
		ScheduledTime: entry.ScheduledTime,
		Status:        string(entry.Status),
	}
}

// GetSchedule builds today's schedule for the user, restoring statuses
// already logged today, and starts the user's reminder session
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	entries, err := h.schedule.LoadSchedule(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load schedule")
		return
	}

	// Loading the schedule is what opens a reminder session.
	h.reminders.Session(userID)

	views := make([]scheduleEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, entryView(entry))
	}

	metrics := h.schedule.Metrics(userID)
	resp := map[string]any{
		"schedule": views,
		"metrics": map[string]any{
			"done":             metrics.Done,
			"missed":           metrics.Missed,
			"total":            metrics.Total,
			"percent_complete": metrics.PercentComplete,
		},
	}
	if next := h.schedule.NextUpNext(userID); next != nil {
		resp["up_next"] = entryView(next)
	}

	respondJSON(w, http.StatusOK, resp)
}

type transitionRequest struct {
	UserID string `json:"user_id"`
	Seq    int    `json:"seq"`
}

// Take marks an entry taken, enforcing the confirmation window
func (h *ScheduleHandler) Take(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTransition(w, r)
	if !ok {
		return
	}

	entry, err := h.schedule.Take(r.Context(), req.UserID, req.Seq)
	writeTransitionResult(w, entry, err)
}

// Skip marks an entry skipped
func (h *ScheduleHandler) Skip(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTransition(w, r)
	if !ok {
		return
	}

	entry, err := h.schedule.Skip(r.Context(), req.UserID, req.Seq)
	writeTransitionResult(w, entry, err)
}

// NextUpNext returns the next upcoming pending entry
func (h *ScheduleHandler) NextUpNext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	next := h.schedule.NextUpNext(userID)
	if next == nil {
		respondJSON(w, http.StatusOK, map[string]any{"up_next": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"up_next": entryView(next)})
}

// Adherence returns the historical adherence percentage
func (h *ScheduleHandler) Adherence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	value, err := h.schedule.Adherence(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to calculate adherence")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"adherence": value})
}

// EndSession tears down the user's schedule session and reminder controller
func (h *ScheduleHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.reminders.End(req.UserID)
	h.schedule.Unload(req.UserID)

	respondJSON(w, http.StatusOK, map[string]string{"message": "session ended"})
}

func decodeTransition(w http.ResponseWriter, r *http.Request) (*transitionRequest, bool) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return nil, false
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return nil, false
	}
	return &req, true
}

func writeTransitionResult(w http.ResponseWriter, entry *entity.ScheduleEntry, err error) {
	var refusal *service.OutsideWindowError
	switch {
	case errors.As(err, &refusal):
		// A refusal is a normal outcome: the entry stays pending and the
		// client shows the warning.
		respondJSON(w, http.StatusConflict, map[string]any{
			"warning":        refusal.Error(),
			"scheduled_time": refusal.ScheduledTime,
			"current_time":   refusal.CurrentTime,
			"entry":          entryView(entry),
		})
	case errors.Is(err, service.ErrEntryNotFound):
		respondError(w, http.StatusNotFound, "Schedule entry not found")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "Failed to update schedule entry")
	default:
		respondJSON(w, http.StatusOK, map[string]any{"entry": entryView(entry)})
	}
}
