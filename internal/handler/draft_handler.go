package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"journal-server/internal/domain"
	"journal-server/internal/middleware"
	"journal-server/internal/service"
	"journal-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type DraftHandler struct {
	service  *service.DraftService
	validate *validator.Validate
}

func NewDraftHandler(service *service.DraftService) *DraftHandler {
	return &DraftHandler{
		service:  service,
		validate: validator.New(),
	}
}

// entryIDParam reads the optional entry_id query parameter; nil means the
// unpublished-new-entry draft slot.
func entryIDParam(r *http.Request) *string {
	if v := r.URL.Query().Get("entry_id"); v != "" {
		return &v
	}
	return nil
}

func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID := middleware.GetUserID(r)

	draft, err := h.service.Save(r.Context(), userID, &req)
	if err != nil {
		response.InternalError(w, "Failed to save draft")
		return
	}

	response.Success(w, &domain.SaveDraftResponse{
		DraftID:   draft.ID,
		LastSaved: draft.LastSaved,
	})
}

func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	draft, err := h.service.Get(r.Context(), userID, entryIDParam(r))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(w, "Draft not found")
			return
		}
		response.InternalError(w, "Failed to load draft")
		return
	}

	response.Success(w, draft)
}

func (h *DraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	if err := h.service.Discard(r.Context(), userID, entryIDParam(r)); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.NotFound(w, "Draft not found")
			return
		}
		response.InternalError(w, "Failed to discard draft")
		return
	}

	response.Success(w, map[string]string{"message": "Draft discarded"})
}
