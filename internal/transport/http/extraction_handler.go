package http

import (
	"io"
	"net/http"
	"strconv"

	domainservice "medication-service/internal/domain/service"
	"medication-service/internal/extraction"
)

// maxPrescriptionSize bounds uploaded prescription images at 10 MB.
const maxPrescriptionSize = 10 << 20

// ExtractionHandler accepts prescription image uploads and turns them into
// medicine records via the extraction service.
type ExtractionHandler struct {
	extractor *extraction.Client
	medicines domainservice.MedicineService
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(extractor *extraction.Client, medicines domainservice.MedicineService) *ExtractionHandler {
	return &ExtractionHandler{extractor: extractor, medicines: medicines}
}

// Extract parses a prescription image. With save=true the extracted records
// are stored for the user right away; otherwise they are returned for review.
func (h *ExtractionHandler) Extract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if h.extractor == nil {
		respondError(w, http.StatusServiceUnavailable, "Prescription extraction is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPrescriptionSize)
	if err := r.ParseMultipartForm(maxPrescriptionSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	save := false
	if val := r.FormValue("save"); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid save value")
			return
		}
		save = parsed
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read image")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	extracted, err := h.extractor.Extract(r.Context(), image, mimeType)
	if err != nil {
		respondError(w, http.StatusBadGateway, "Failed to extract medicines from prescription")
		return
	}

	if save {
		saved, err := h.medicines.ImportExtracted(r.Context(), userID, extracted)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to save extracted medicines")
			return
		}
		views := make([]medicineView, 0, len(saved))
		for _, m := range saved {
			views = append(views, viewMedicine(m))
		}
		respondJSON(w, http.StatusCreated, map[string]any{
			"message":   "Medicines extracted and saved",
			"medicines": views,
			"total":     len(views),
		})
		return
	}

	views := make([]medicineView, 0, len(extracted))
	for _, m := range extracted {
		views = append(views, viewMedicine(m))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"medicines": views,
		"total":     len(views),
	})
}
