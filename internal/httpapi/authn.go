package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"stayvista.app/internal/audit"
	"stayvista.app/internal/auth"
	"stayvista.app/internal/obs"
)

const (
	cookieName      = "token"
	rejectedMessage = "unauthorized access"
)

// guard is one stage of request admission. It returns the request to pass to
// the next stage, or an error that ends the request.
type guard func(*http.Request) (*http.Request, error)

// protect runs guards in order and calls h only when every stage admits.
func (a *API) protect(h http.HandlerFunc, guards ...guard) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, g := range guards {
			next, err := g(r)
			if err != nil {
				a.reject(w, r, err)
				return
			}
			r = next
		}
		h(w, r)
	})
}

// session admits requests carrying a verifiable credential cookie and attaches
// the decoded identity. It never touches the store.
func (a *API) session(r *http.Request) (*http.Request, error) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		obs.RecordAuthDecision("session", "missing")
		return r, auth.ErrUnauthenticated
	}
	id, err := a.codec.Verify(c.Value)
	if err != nil {
		reason := failureReason(err)
		obs.RecordAuthDecision("session", reason)
		obs.Logger().LogAttrs(r.Context(), slog.LevelInfo, "session_rejected",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("reason", reason),
		)
		return r, auth.ErrUnauthenticated
	}
	obs.RecordAuthDecision("session", "ok")
	return r.WithContext(auth.ContextWithIdentity(r.Context(), id)), nil
}

// requireRole admits only sessions whose stored role equals role.
func (a *API) requireRole(role auth.Role) guard {
	return func(r *http.Request) (*http.Request, error) {
		err := a.gate.Authorize(r.Context(), role)
		switch {
		case err == nil:
			obs.RecordAuthDecision("gate", "ok")
		case errors.Is(err, auth.ErrForbidden):
			obs.RecordAuthDecision("gate", "forbidden")
		case errors.Is(err, auth.ErrUnauthenticated):
			obs.RecordAuthDecision("gate", "unauthenticated")
		default:
			obs.RecordAuthDecision("gate", "error")
		}
		return r, err
	}
}

// reject writes the single terminal response for a failed guard. Callers see
// the same message whatever the cause.
func (a *API) reject(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, rejectedMessage)
	case errors.Is(err, auth.ErrForbidden):
		_ = audit.LogEvent(r.Context(), "auth.forbidden", map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		writeError(w, r, a.forbiddenStatus, rejectedMessage)
	default:
		obs.Logger().LogAttrs(r.Context(), slog.LevelError, "authorization_error",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return "expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

// sessionIdentity returns the identity attached by the session guard.
func sessionIdentity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

func (a *API) sessionCookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if a.production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}
