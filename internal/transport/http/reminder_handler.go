package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"medication-service/internal/voice"
)

// ReminderHandler exposes the voice reminder session: its current state, the
// spoken response path and the manual button fallbacks.
type ReminderHandler struct {
	reminders *voice.Manager
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminders *voice.Manager) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

type reminderSnapshotView struct {
	Phase      string             `json:"phase"`
	Active     *scheduleEntryView `json:"active,omitempty"`
	Transcript string             `json:"transcript,omitempty"`
	ResultText string             `json:"result_text,omitempty"`
	ResultKind string             `json:"result_kind,omitempty"`
}

func viewSnapshot(snap voice.Snapshot) reminderSnapshotView {
	view := reminderSnapshotView{
		Phase:      string(snap.Phase),
		Transcript: snap.Transcript,
		ResultText: snap.ResultText,
		ResultKind: string(snap.ResultKind),
	}
	if snap.Active != nil {
		e := entryView(snap.Active)
		view.Active = &e
	}
	return view
}

// Status returns the reminder session snapshot, idle if none exists.
func (h *ReminderHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	controller, ok := h.reminders.Active(userID)
	if !ok {
		respondJSON(w, http.StatusOK, reminderSnapshotView{Phase: string(voice.PhaseIdle)})
		return
	}

	respondJSON(w, http.StatusOK, viewSnapshot(controller.Snapshot()))
}

func (h *ReminderHandler) controllerFor(w http.ResponseWriter, userID string) (*voice.Controller, bool) {
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return nil, false
	}
	controller, ok := h.reminders.Active(userID)
	if !ok {
		respondError(w, http.StatusNotFound, "No reminder session")
		return nil, false
	}
	return controller, true
}

func writeReminderResult(w http.ResponseWriter, controller *voice.Controller, err error) {
	switch {
	case errors.Is(err, voice.ErrNoActiveReminder):
		respondError(w, http.StatusNotFound, "No active reminder")
	case errors.Is(err, voice.ErrSpeaking):
		respondError(w, http.StatusConflict, "Reminder is still speaking")
	case err != nil:
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":    err.Error(),
			"reminder": viewSnapshot(controller.Snapshot()),
		})
	default:
		respondJSON(w, http.StatusOK, map[string]any{
			"reminder": viewSnapshot(controller.Snapshot()),
		})
	}
}

// Respond feeds a transcript into the active reminder.
func (h *ReminderHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		UserID     string `json:"user_id"`
		Transcript string `json:"transcript"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Transcript == "" {
		respondError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	controller, ok := h.controllerFor(w, req.UserID)
	if !ok {
		return
	}

	writeReminderResult(w, controller, controller.Respond(req.Transcript))
}

func (h *ReminderHandler) decodeUser(w http.ResponseWriter, r *http.Request) (*voice.Controller, bool) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return nil, false
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	return h.controllerFor(w, req.UserID)
}

// Taken is the manual "taken" button on the reminder overlay.
func (h *ReminderHandler) Taken(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	writeReminderResult(w, controller, controller.ConfirmTaken(r.Context()))
}

// Skip is the manual "skip" button on the reminder overlay.
func (h *ReminderHandler) Skip(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	writeReminderResult(w, controller, controller.ConfirmSkipped(r.Context()))
}

// Snooze is the manual "remind me later" button on the reminder overlay.
func (h *ReminderHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	writeReminderResult(w, controller, controller.ConfirmSnooze())
}

// Listen restarts speech recognition after a failed attempt.
func (h *ReminderHandler) Listen(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	controller.StartListening()
	respondJSON(w, http.StatusOK, map[string]any{
		"reminder": viewSnapshot(controller.Snapshot()),
	})
}

// Dismiss closes the reminder without recording an outcome.
func (h *ReminderHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	controller, ok := h.decodeUser(w, r)
	if !ok {
		return
	}
	controller.Dismiss()
	respondJSON(w, http.StatusOK, map[string]string{"message": "Reminder dismissed"})
}
