package pipeline

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinsafe/platform/internal/shared/errors"
)

// Handler provides HTTP handlers for the pipeline module
type Handler struct {
	orchestrator *Orchestrator
}

// NewHandler creates a new pipeline handler
func NewHandler(orchestrator *Orchestrator) *Handler {
	return &Handler{orchestrator: orchestrator}
}

// Routes registers the pipeline routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/analyze", h.Analyze)

	return r
}

// Analyze runs a full pipeline pass over a recommendation
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	if req.Patient.ChiefComplaint == "" && len(req.Patient.Symptoms) == 0 {
		writeError(w, errors.BadRequest("patient chief_complaint or symptoms are required"))
		return
	}

	verdict, err := h.orchestrator.Analyze(r.Context(), req)
	if err != nil {
		if r.Context().Err() != nil {
			// Client is gone; nothing useful can be written.
			return
		}
		writeError(w, errors.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
