package safety

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinsafe/platform/internal/shared/errors"
	"github.com/clinsafe/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the safety module
type Handler struct {
	engine *Engine
}

// NewHandler creates a new safety handler
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Routes registers the safety routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/check", h.Check)

	return r
}

// CheckRequest is the payload for a standalone safety check
type CheckRequest struct {
	Medications []types.Medication   `json:"medications"`
	Patient     types.PatientContext `json:"patient"`
}

// CheckResponse bundles the verdict with the filtered medication list
type CheckResponse struct {
	Result              *CheckResult       `json:"result"`
	ApprovedMedications []types.Medication `json:"approved_medications"`
}

// Check handles safety check requests
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}

	if len(req.Medications) == 0 {
		writeError(w, errors.BadRequest("medications are required"))
		return
	}

	result := h.engine.Check(req.Medications, req.Patient)
	writeJSON(w, http.StatusOK, CheckResponse{
		Result:              result,
		ApprovedMedications: FilterApproved(req.Medications, result),
	})
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
