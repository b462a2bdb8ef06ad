package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"medication-service/internal/domain/entity"
	domainservice "medication-service/internal/domain/service"

	"github.com/google/uuid"
)

// MedicineHandler handles medicine record requests
type MedicineHandler struct {
	medicines domainservice.MedicineService
}

// NewMedicineHandler creates a new medicine handler
func NewMedicineHandler(medicines domainservice.MedicineService) *MedicineHandler {
	return &MedicineHandler{medicines: medicines}
}

type medicineView struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	Name           string            `json:"name"`
	Dosage         string            `json:"dosage"`
	Timing         []string          `json:"timing"`
	ScheduledTimes map[string]string `json:"scheduled_times,omitempty"`
	IsActive       bool              `json:"is_active"`
}

func viewMedicine(m *entity.Medicine) medicineView {
	view := medicineView{
		ID:       m.ID.String(),
		UserID:   m.UserID,
		Name:     m.Name,
		Dosage:   m.Dosage,
		Timing:   make([]string, 0, len(m.Timing)),
		IsActive: m.IsActive,
	}
	for _, label := range m.Timing {
		view.Timing = append(view.Timing, string(label))
	}
	if len(m.ScheduledTimes) > 0 {
		view.ScheduledTimes = make(map[string]string, len(m.ScheduledTimes))
		for label, clock := range m.ScheduledTimes {
			view.ScheduledTimes[string(label)] = clock
		}
	}
	return view
}

func parseTiming(timing []string) []entity.TimingLabel {
	if timing == nil {
		return nil
	}
	labels := make([]entity.TimingLabel, 0, len(timing))
	for _, t := range timing {
		labels = append(labels, entity.TimingLabel(t))
	}
	return labels
}

func parseScheduledTimes(times map[string]string) map[entity.TimingLabel]string {
	if times == nil {
		return nil
	}
	parsed := make(map[entity.TimingLabel]string, len(times))
	for label, clock := range times {
		parsed[entity.TimingLabel(label)] = clock
	}
	return parsed
}

// List returns a user's medicines
func (h *MedicineHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	activeOnly := true
	if val := r.URL.Query().Get("active_only"); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid active_only value")
			return
		}
		activeOnly = parsed
	}

	medicines, err := h.medicines.ListMedicines(r.Context(), userID, activeOnly)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list medicines")
		return
	}

	views := make([]medicineView, 0, len(medicines))
	for _, m := range medicines {
		views = append(views, viewMedicine(m))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"medicines": views,
		"total":     len(views),
	})
}

// Create creates a medicine record
func (h *MedicineHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		UserID         string            `json:"user_id"`
		Name           string            `json:"name"`
		Dosage         string            `json:"dosage"`
		Timing         []string          `json:"timing"`
		ScheduledTimes map[string]string `json:"scheduled_times"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	medicine, err := h.medicines.CreateMedicine(r.Context(), req.UserID, req.Name, req.Dosage,
		parseTiming(req.Timing), parseScheduledTimes(req.ScheduledTimes))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":  "Medicine created",
		"medicine": viewMedicine(medicine),
	})
}

// Update updates a medicine record
func (h *MedicineHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		MedicineID     string            `json:"medicine_id"`
		Name           *string           `json:"name"`
		Dosage         *string           `json:"dosage"`
		Timing         []string          `json:"timing"`
		ScheduledTimes map[string]string `json:"scheduled_times"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	medicineID, err := uuid.Parse(req.MedicineID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid medicine_id")
		return
	}

	medicine, err := h.medicines.UpdateMedicine(r.Context(), medicineID, req.Name, req.Dosage,
		parseTiming(req.Timing), parseScheduledTimes(req.ScheduledTimes))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":  "Medicine updated",
		"medicine": viewMedicine(medicine),
	})
}

// Deactivate soft deletes a medicine record
func (h *MedicineHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req struct {
		MedicineID string `json:"medicine_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	medicineID, err := uuid.Parse(req.MedicineID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid medicine_id")
		return
	}

	if err := h.medicines.DeactivateMedicine(r.Context(), medicineID); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to deactivate medicine")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Medicine deactivated"})
}
