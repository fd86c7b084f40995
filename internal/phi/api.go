package phi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinsafe/platform/internal/shared/errors"
	"github.com/clinsafe/platform/internal/shared/events"
)

const eventSource = "phi-api"

// Handler provides HTTP handlers for the PHI module
type Handler struct {
	tokenizer *Tokenizer
	publisher events.Publisher
}

// NewHandler creates a new PHI handler. The publisher may be nil when
// no event store is configured.
func NewHandler(tokenizer *Tokenizer, publisher events.Publisher) *Handler {
	return &Handler{tokenizer: tokenizer, publisher: publisher}
}

// Routes registers the PHI routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/deidentify", h.Deidentify)
	r.Post("/reidentify", h.Reidentify)
	r.Post("/detect", h.Detect)
	r.Delete("/sessions/{sessionID}", h.ClearSession)

	return r
}

type textRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

func (h *Handler) Deidentify(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}
	if req.SessionID == "" || req.Text == "" {
		writeError(w, errors.BadRequest("session_id and text are required"))
		return
	}

	tokenized, detections := h.tokenizer.Deidentify(req.SessionID, req.Text)
	writeJSON(w, http.StatusOK, map[string]any{
		"text":       tokenized,
		"detections": detections,
	})
}

func (h *Handler) Reidentify(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}
	if req.SessionID == "" || req.Text == "" {
		writeError(w, errors.BadRequest("session_id and text are required"))
		return
	}

	restored, count := h.tokenizer.Reidentify(req.SessionID, req.Text)
	if h.publisher != nil {
		event := events.NewEvent(events.TypePHIReidentified, eventSource, map[string]any{
			"tokens_restored": count,
		}).WithRun("", req.SessionID)
		if err := h.publisher.Publish(r.Context(), event); err != nil {
			h.tokenizer.logger.Warn().Err(err).Msg("event publish failed")
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text":            restored,
		"tokens_restored": count,
	})
}

func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body: "+err.Error()))
		return
	}
	if req.Text == "" {
		writeError(w, errors.BadRequest("text is required"))
		return
	}

	level, detections := h.tokenizer.DetectPHI(req.Text)
	writeJSON(w, http.StatusOK, map[string]any{
		"level":      level,
		"detections": detections,
	})
}

func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, errors.BadRequest("session id is required"))
		return
	}

	h.tokenizer.ClearSession(sessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
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
