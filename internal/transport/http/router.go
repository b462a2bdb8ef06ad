package http

import (
	"net/http"

	"go.uber.org/zap"
)

// Router sets up HTTP routes
type Router struct {
	medicineHandler   *MedicineHandler
	scheduleHandler   *ScheduleHandler
	reminderHandler   *ReminderHandler
	extractionHandler *ExtractionHandler
	logger            *zap.Logger
	rateLimit         int
	mux               *http.ServeMux
}

// NewRouter creates a new router
func NewRouter(
	medicineHandler *MedicineHandler,
	scheduleHandler *ScheduleHandler,
	reminderHandler *ReminderHandler,
	extractionHandler *ExtractionHandler,
	logger *zap.Logger,
	rateLimit int,
) *Router {
	return &Router{
		medicineHandler:   medicineHandler,
		scheduleHandler:   scheduleHandler,
		reminderHandler:   reminderHandler,
		extractionHandler: extractionHandler,
		logger:            logger,
		rateLimit:         rateLimit,
		mux:               http.NewServeMux(),
	}
}

// Setup configures all routes
func (r *Router) Setup() http.Handler {

	r.mux.HandleFunc("/api/v1/medicines/list", r.medicineHandler.List)
	r.mux.HandleFunc("/api/v1/medicines/create", r.medicineHandler.Create)
	r.mux.HandleFunc("/api/v1/medicines/update", r.medicineHandler.Update)
	r.mux.HandleFunc("/api/v1/medicines/deactivate", r.medicineHandler.Deactivate)
	r.mux.HandleFunc("/api/v1/medicines/extract", r.extractionHandler.Extract)

	r.mux.HandleFunc("/api/v1/schedule", r.scheduleHandler.GetSchedule)
	r.mux.HandleFunc("/api/v1/schedule/take", r.scheduleHandler.Take)
	r.mux.HandleFunc("/api/v1/schedule/skip", r.scheduleHandler.Skip)
	r.mux.HandleFunc("/api/v1/schedule/up-next", r.scheduleHandler.NextUpNext)
	r.mux.HandleFunc("/api/v1/schedule/adherence", r.scheduleHandler.Adherence)
	r.mux.HandleFunc("/api/v1/schedule/end", r.scheduleHandler.EndSession)

	r.mux.HandleFunc("/api/v1/reminder", r.reminderHandler.Status)
	r.mux.HandleFunc("/api/v1/reminder/respond", r.reminderHandler.Respond)
	r.mux.HandleFunc("/api/v1/reminder/taken", r.reminderHandler.Taken)
	r.mux.HandleFunc("/api/v1/reminder/skip", r.reminderHandler.Skip)
	r.mux.HandleFunc("/api/v1/reminder/snooze", r.reminderHandler.Snooze)
	r.mux.HandleFunc("/api/v1/reminder/listen", r.reminderHandler.Listen)
	r.mux.HandleFunc("/api/v1/reminder/dismiss", r.reminderHandler.Dismiss)

	r.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = r.mux

	handler = Logging(r.logger)(handler)

	handler = RateLimit(r.rateLimit)(handler)

	return handler
}
