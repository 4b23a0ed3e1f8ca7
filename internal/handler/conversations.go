package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/klimaneustart/dialogue-server/internal/errors"
	"github.com/klimaneustart/dialogue-server/internal/service"
)

type ConversationHandler struct {
	convService *service.ConversationService
}

func NewConversationHandler(convService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

func (h *ConversationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Erase)
	r.Delete("/{id}/pii", h.ErasePII)

	return r
}

// POST /api/v1/conversations
// Upsert by uuid: partial saves and resubmissions land here alike.
func (h *ConversationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var sub service.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	result, err := h.convService.Submit(r.Context(), &sub)
	if err != nil {
		if !apperrors.IsAppError(err) || apperrors.GetCode(err) == apperrors.ErrCodeDatabase {
			log.Error().Err(err).Msg("failed to submit conversation")
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	convs, err := h.convService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list conversations")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

// GET /api/v1/conversations/{id}
// Accepts a surrogate id or a uuid. The response never includes the PII
// reference.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conv, err := h.convService.GetByIdentifier(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// DELETE /api/v1/conversations/{id}
// GDPR erase: linked PII first, then the conversation row.
func (h *ConversationHandler) Erase(w http.ResponseWriter, r *http.Request) {
	if err := h.convService.Erase(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DELETE /api/v1/conversations/{id}/pii
// Erases only the captured contact data; the conversation content stays.
func (h *ConversationHandler) ErasePII(w http.ResponseWriter, r *http.Request) {
	if err := h.convService.ErasePII(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
