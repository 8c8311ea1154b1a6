package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"stayvista.app/internal/audit"
	"stayvista.app/internal/booking"
	"stayvista.app/internal/ids"
	"stayvista.app/internal/media"
	"stayvista.app/internal/obs"
)

type roomStatusRequest struct {
	Status bool `json:"status"`
}

type imageUploadRequest struct {
	ContentType string `json:"contentType"`
}

func (a *API) handleListRooms(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	rooms, err := a.store.ListRooms(r.Context(), category)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (a *API) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !ids.Valid(id) {
		handleStoreError(w, r, booking.ErrNotFound)
		return
	}
	room, err := a.store.GetRoom(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (a *API) handleHostRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := a.store.ListRoomsByHost(r.Context(), pathEmail(r))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

// handleCreateRoom stores a listing owned by the session user.
func (a *API) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var room booking.Room
	if err := decodeBody(w, r, &room, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	room.ID = ""
	room.Booked = false
	room.Host.Email = sessionIdentity(r).Email
	if err := room.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := a.store.CreateRoom(r.Context(), room)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "room.created", map[string]any{
		"room_id": created.ID,
		"title":   created.Title,
	})
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleImageUploadURL(w http.ResponseWriter, r *http.Request) {
	if a.uploads == nil {
		writeError(w, r, http.StatusServiceUnavailable, "image uploads are not configured")
		return
	}
	var req imageUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	up, err := a.uploads.PresignRoomImage(r.Context(), req.ContentType)
	switch {
	case errors.Is(err, media.ErrUnsupportedContent):
		writeError(w, r, http.StatusBadRequest, "contentType must be an image type")
		return
	case err != nil:
		obs.Logger().LogAttrs(r.Context(), slog.LevelError, "presign_failed",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("error", err.Error()),
		)
		writeError(w, r, http.StatusBadGateway, "could not prepare upload")
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (a *API) handleRoomStatus(w http.ResponseWriter, r *http.Request) {
	var req roomStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := r.PathValue("id")
	if !ids.Valid(id) {
		handleStoreError(w, r, booking.ErrNotFound)
		return
	}
	if err := a.store.SetRoomBooked(r.Context(), id, req.Status); err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"_id": id, "booked": req.Status})
}
