package severity

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinsafe/platform/internal/shared/errors"
	"github.com/clinsafe/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the severity module
type Handler struct {
	classifier *Classifier
}

// NewHandler creates a new severity handler
func NewHandler(classifier *Classifier) *Handler {
	return &Handler{classifier: classifier}
}

// Routes registers the severity routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/assess", h.Assess)

	return r
}

// Assess handles severity assessment requests
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	var patient types.PatientContext
	if err := json.NewDecoder(r.Body).Decode(&patient); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	if patient.ChiefComplaint == "" && len(patient.Symptoms) == 0 && patient.Vitals == nil {
		writeError(w, errors.BadRequest("chief_complaint, symptoms or vitals are required"))
		return
	}

	assessment := h.classifier.Assess(r.Context(), patient)
	writeJSON(w, http.StatusOK, assessment)
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
