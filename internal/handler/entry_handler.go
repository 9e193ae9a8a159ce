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
	"github.com/gorilla/mux"
)

type EntryHandler struct {
	service  *service.EntryService
	validate *validator.Validate
}

func NewEntryHandler(service *service.EntryService) *EntryHandler {
	return &EntryHandler{
		service:  service,
		validate: validator.New(),
	}
}

// clientID identifies the submitting browser tab so websocket broadcasts
// can skip the originator. Optional; absent for non-browser clients.
func clientID(r *http.Request) string {
	return r.Header.Get("X-Client-ID")
}

func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID := middleware.GetUserID(r)

	entry, err := h.service.Create(r.Context(), userID, clientID(r), &req)
	if err != nil {
		response.InternalError(w, "Failed to create entry")
		return
	}

	response.Created(w, entry)
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	tag := r.URL.Query().Get("tag")

	entries, err := h.service.List(r.Context(), userID, tag)
	if err != nil {
		response.InternalError(w, "Failed to list entries")
		return
	}

	response.Success(w, entries)
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["id"]
	userID := middleware.GetUserID(r)

	entry, err := h.service.GetByID(r.Context(), userID, entryID)
	if err != nil {
		writeEntryError(w, err, "Failed to load entry")
		return
	}

	response.Success(w, entry)
}

func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["id"]

	var req domain.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID := middleware.GetUserID(r)

	entry, err := h.service.Update(r.Context(), userID, entryID, clientID(r), &req)
	if err != nil {
		var conflict *service.ConflictError
		if errors.As(err, &conflict) {
			response.Conflict(w, conflict)
			return
		}
		writeEntryError(w, err, "Failed to update entry")
		return
	}

	response.Success(w, &domain.UpdateEntryResponse{
		EntryID:   entry.ID,
		Version:   entry.Version,
		UpdatedAt: entry.UpdatedAt,
	})
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["id"]
	userID := middleware.GetUserID(r)

	if err := h.service.Delete(r.Context(), userID, entryID, clientID(r)); err != nil {
		writeEntryError(w, err, "Failed to delete entry")
		return
	}

	response.Success(w, map[string]string{"message": "Entry deleted successfully"})
}

func (h *EntryHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["id"]
	userID := middleware.GetUserID(r)

	snapshots, err := h.service.ListVersions(r.Context(), userID, entryID)
	if err != nil {
		writeEntryError(w, err, "Failed to list versions")
		return
	}

	response.Success(w, snapshots)
}

func (h *EntryHandler) GetConflict(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["id"]
	userID := middleware.GetUserID(r)

	view, err := h.service.GetConflict(r.Context(), userID, entryID)
	if err != nil {
		writeEntryError(w, err, "Failed to load conflict")
		return
	}

	response.Success(w, view)
}

func (h *EntryHandler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	entryID := mux.Vars(r)["id"]

	var req domain.ResolveConflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID := middleware.GetUserID(r)

	entry, err := h.service.Resolve(r.Context(), userID, entryID, clientID(r), &req)
	if err != nil {
		writeEntryError(w, err, "Failed to resolve conflict")
		return
	}

	response.Success(w, &domain.UpdateEntryResponse{
		EntryID:   entry.ID,
		Version:   entry.Version,
		UpdatedAt: entry.UpdatedAt,
	})
}

func writeEntryError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(w, "Entry not found")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}
