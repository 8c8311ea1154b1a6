package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"stayvista.app/internal/audit"
	"stayvista.app/internal/auth"
)

// tokenRequest is the signed-in profile the web client posts after its
// identity provider login. Extra profile fields are ignored.
type tokenRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (a *API) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	cred, err := a.codec.Issue(auth.Identity{
		Email: strings.TrimSpace(req.Email),
		Name:  strings.TrimSpace(req.Name),
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidClaim) {
			writeError(w, r, http.StatusBadRequest, "a valid email is required")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	http.SetCookie(w, a.sessionCookie(cred.Token, int(a.codec.Lifetime()/time.Second)))
	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"email":      strings.TrimSpace(req.Email),
		"expires_at": cred.ExpiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, a.sessionCookie("", -1))
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
