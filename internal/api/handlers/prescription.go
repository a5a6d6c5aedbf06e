// Package handlers provides HTTP handlers for the pharmacy API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/pharmadesk/go-rxcore/internal/api/middleware"
	"github.com/pharmadesk/go-rxcore/internal/domain/rx"
	"github.com/pharmadesk/go-rxcore/internal/service"
	"github.com/pharmadesk/go-rxcore/pkg/idempotency"
)

// PrescriptionHandler handles prescription endpoints
type PrescriptionHandler struct {
	svc    *service.PrescriptionService
	inbox  *idempotency.Inbox
	logger *zap.Logger
}

// NewPrescriptionHandler creates a new handler. The inbox is optional;
// without it, Idempotency-Key headers are ignored.
func NewPrescriptionHandler(svc *service.PrescriptionService, inbox *idempotency.Inbox, logger *zap.Logger) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc, inbox: inbox, logger: logger}
}

// Routes returns the handler routes
func (h *PrescriptionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/overdue", h.Overdue)
	r.Get("/search", h.Search)
	r.Get("/stats", h.Stats)
	r.Get("/status/{status}", h.ByStatus)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/validate", h.Validate)
	return r
}

// CreateRequest is the request body for creating a prescription
type CreateRequest struct {
	Patient       rx.PatientInfo  `json:"patient_info"`
	DoctorName    string          `json:"doctor_name"`
	DoctorLicense string          `json:"doctor_license"`
	Medications   []rx.Medication `json:"medications"`
	Instructions  string          `json:"instructions,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Priority      rx.Priority     `json:"priority,omitempty"`
	HasInsurance  bool            `json:"has_insurance"`
}

// Create handles POST /prescriptions
func (h *PrescriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("prescription-handler")
	ctx, span := tracer.Start(ctx, "create_prescription")
	defer span.End()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	in := service.CreateInput{
		Patient:       req.Patient,
		DoctorName:    req.DoctorName,
		DoctorLicense: req.DoctorLicense,
		Medications:   req.Medications,
		Instructions:  req.Instructions,
		Notes:         req.Notes,
		Priority:      req.Priority,
		HasInsurance:  req.HasInsurance,
		CreatedBy:     middleware.GetClientID(ctx),
	}

	create := func() ([]byte, int, error) {
		p, err := h.svc.Create(ctx, in)
		if err != nil {
			return nil, 0, err
		}
		span.SetAttributes(attribute.String("prescription_id", p.ID))
		body, err := json.Marshal(p)
		return body, http.StatusCreated, err
	}

	key := r.Header.Get("Idempotency-Key")
	if h.inbox != nil && key == "" && len(req.Medications) > 0 {
		// No client key; derive one so quick duplicate submissions of the
		// same order still dedupe.
		key = idempotency.GenerateKey(req.Patient.PatientID, req.DoctorLicense, req.Medications[0].Name, time.Now())
	}
	if h.inbox != nil && key != "" {
		body, duplicate, err := h.inbox.Process(ctx, key, func(ctx context.Context) ([]byte, error) {
			b, _, err := create()
			return b, err
		})
		if err != nil {
			h.createError(w, err)
			return
		}
		status := http.StatusCreated
		if duplicate {
			status = http.StatusOK
		}
		h.writeJSON(w, status, json.RawMessage(body))
		return
	}

	body, status, err := create()
	if err != nil {
		h.createError(w, err)
		return
	}
	h.logger.Info("prescription create handled",
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)
	h.writeJSON(w, status, json.RawMessage(body))
}

func (h *PrescriptionHandler) createError(w http.ResponseWriter, err error) {
	if errors.Is(err, rx.ErrNoMedications) {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Error("create failed", zap.Error(err))
	h.jsonError(w, "failed to create prescription", http.StatusInternalServerError)
}

// Get handles GET /prescriptions/{id}
func (h *PrescriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.jsonError(w, "failed to load prescription", http.StatusInternalServerError)
		return
	}
	if p == nil {
		h.jsonError(w, "prescription not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// List handles GET /prescriptions
func (h *PrescriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	prescriptions, err := h.svc.List(r.Context())
	if err != nil {
		h.jsonError(w, "failed to list prescriptions", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, prescriptions)
}

// ByStatus handles GET /prescriptions/status/{status}
func (h *PrescriptionHandler) ByStatus(w http.ResponseWriter, r *http.Request) {
	status := rx.Status(chi.URLParam(r, "status"))
	if !status.IsValid() {
		h.jsonError(w, "unknown status", http.StatusBadRequest)
		return
	}

	prescriptions, err := h.svc.ListByStatus(r.Context(), status)
	if err != nil {
		h.jsonError(w, "failed to list prescriptions", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, prescriptions)
}

// Overdue handles GET /prescriptions/overdue
func (h *PrescriptionHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	prescriptions, err := h.svc.ListOverdue(r.Context())
	if err != nil {
		h.jsonError(w, "failed to list prescriptions", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, prescriptions)
}

// Search handles GET /prescriptions/search?q=
func (h *PrescriptionHandler) Search(w http.ResponseWriter, r *http.Request) {
	prescriptions, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.jsonError(w, "search failed", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, prescriptions)
}

// Stats handles GET /prescriptions/stats
func (h *PrescriptionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context())
	if err != nil {
		h.jsonError(w, "failed to compute stats", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// StatusRequest is the request for a status transition
type StatusRequest struct {
	Status rx.Status `json:"status"`
	Note   string    `json:"note,omitempty"`
}

// UpdateStatus handles POST /prescriptions/{id}/status
func (h *PrescriptionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Status.IsValid() {
		h.jsonError(w, "unknown status", http.StatusBadRequest)
		return
	}

	ok, err := h.svc.UpdateStatus(ctx, id, req.Status, middleware.GetClientID(ctx), req.Note)
	if err != nil {
		h.logger.Error("status update failed", zap.String("id", id), zap.Error(err))
		h.jsonError(w, "failed to update status", http.StatusInternalServerError)
		return
	}
	if !ok {
		h.jsonError(w, "prescription not found or transition not allowed", http.StatusConflict)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": req.Status,
	})
}

// ValidateRequest is the request for pharmacist validation
type ValidateRequest struct {
	Notes string `json:"notes,omitempty"`
}

// Validate handles POST /prescriptions/{id}/validate
func (h *PrescriptionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req ValidateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	ok, err := h.svc.Validate(ctx, id, middleware.GetClientID(ctx), req.Notes)
	if err != nil {
		h.logger.Error("validation failed", zap.String("id", id), zap.Error(err))
		h.jsonError(w, "failed to validate prescription", http.StatusInternalServerError)
		return
	}
	if !ok {
		h.jsonError(w, "prescription not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        id,
		"validated": true,
	})
}

func (h *PrescriptionHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *PrescriptionHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
