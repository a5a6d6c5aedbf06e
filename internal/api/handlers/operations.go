package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
	"github.com/pharmadesk/go-rxcore/internal/service"
)

// OperationsHandler handles alert, interaction and monitoring endpoints.
type OperationsHandler struct {
	svc    *service.PrescriptionService
	logger *zap.Logger
}

// NewOperationsHandler creates a new handler
func NewOperationsHandler(svc *service.PrescriptionService, logger *zap.Logger) *OperationsHandler {
	return &OperationsHandler{svc: svc, logger: logger}
}

// Routes returns the handler routes
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/alerts", h.Alerts)
	r.Post("/interactions/check", h.CheckInteractions)
	r.Post("/monitoring/run", h.RunMonitoring)
	return r
}

// Alerts handles GET /alerts
func (h *OperationsHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.Alerts(r.Context())
	if err != nil {
		h.jsonError(w, "failed to load alerts", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, alerts)
}

// InteractionRequest is the request for an ad-hoc interaction check
type InteractionRequest struct {
	Medications []rx.Medication `json:"medications"`
}

// CheckInteractions handles POST /interactions/check
func (h *OperationsHandler) CheckInteractions(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	warnings := h.svc.CheckInteractions(req.Medications)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"warnings": warnings,
		"count":    len(warnings),
	})
}

// RunMonitoring handles POST /monitoring/run
func (h *OperationsHandler) RunMonitoring(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("operations-handler").Start(r.Context(), "run_monitoring")
	defer span.End()

	report, err := h.svc.RunMonitoring(ctx)
	if err != nil {
		h.logger.Error("monitoring sweep failed", zap.Error(err))
		h.jsonError(w, "monitoring sweep failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *OperationsHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *OperationsHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
