package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"stayvista.app/internal/audit"
	"stayvista.app/internal/auth"
	"stayvista.app/internal/booking"
)

type saveUserRequest struct {
	Name   string `json:"name"`
	Photo  string `json:"photo"`
	Status string `json:"status"`
}

type updateUserRequest struct {
	Name   *string `json:"name"`
	Photo  *string `json:"photo"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

// handleSaveUser registers a first-time user as a guest. An existing record is
// returned unchanged.
func (a *API) handleSaveUser(w http.ResponseWriter, r *http.Request) {
	email := pathEmail(r)
	if !looksLikeEmail(email) {
		writeError(w, r, http.StatusBadRequest, "a valid email is required")
		return
	}
	var req saveUserRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	status := req.Status
	if !booking.ValidStatus(status) {
		status = booking.StatusVerified
	}

	u, created, err := a.store.CreateUserIfAbsent(r.Context(), booking.User{
		Email:  email,
		Name:   strings.TrimSpace(req.Name),
		Photo:  strings.TrimSpace(req.Photo),
		Role:   auth.RoleGuest,
		Status: status,
	})
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	if created {
		_ = audit.LogEvent(r.Context(), "user.created", map[string]any{"email": email})
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := a.store.FindUserByEmail(r.Context(), pathEmail(r))
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.ListUsers(r.Context())
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleUpdateUser lets an admin change any profile. Other callers may only
// request host status for themselves.
func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	email := pathEmail(r)
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	upd := booking.UserUpdate{Name: req.Name, Photo: req.Photo, Status: req.Status}
	if req.Role != nil {
		role, ok := auth.ParseRole(*req.Role)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "unknown role")
			return
		}
		upd.Role = &role
	}
	if err := upd.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	err := a.gate.Authorize(r.Context(), auth.RoleAdmin)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrForbidden):
		if !selfHostRequest(sessionIdentity(r), email, upd) {
			a.reject(w, r, auth.ErrForbidden)
			return
		}
	default:
		a.reject(w, r, err)
		return
	}

	u, err := a.store.UpsertUser(r.Context(), email, upd)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	fields := map[string]any{"email": email, "status": u.Status}
	if upd.Role != nil {
		fields["role"] = string(*upd.Role)
	}
	_ = audit.LogEvent(r.Context(), "user.updated", fields)
	writeJSON(w, http.StatusOK, u)
}

func selfHostRequest(id auth.Identity, email string, upd booking.UserUpdate) bool {
	return id.Email == email &&
		upd.Role == nil && upd.Name == nil && upd.Photo == nil &&
		upd.Status != nil && *upd.Status == booking.StatusRequested
}

func looksLikeEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t\r\n")
}
