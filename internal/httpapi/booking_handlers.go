package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"stayvista.app/internal/audit"
	"stayvista.app/internal/auth"
	"stayvista.app/internal/booking"
	"stayvista.app/internal/obs"
	"stayvista.app/internal/payments"
)

type paymentIntentRequest struct {
	Price float64 `json:"price"`
}

func (a *API) handlePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentIntentRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := payments.ToMinorUnits(req.Price)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "price must be at least 0.01")
		return
	}
	if a.payments == nil {
		writeError(w, r, http.StatusServiceUnavailable, payments.ErrDisabled.Error())
		return
	}

	intent, err := a.payments.CreateIntent(r.Context(), amount)
	if err != nil {
		obs.Logger().LogAttrs(r.Context(), slog.LevelError, "payment_intent_failed",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)
		writeError(w, r, http.StatusBadGateway, "payment provider error")
		return
	}
	_ = audit.LogEvent(r.Context(), "payment.intent.created", map[string]any{
		"intent_id": intent.ID,
		"amount":    intent.Amount,
		"currency":  intent.Currency,
	})
	writeJSON(w, http.StatusOK, map[string]any{"clientSecret": intent.ClientSecret})
}

// handleCreateBooking records a paid reservation for the session user.
func (a *API) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var b booking.Booking
	if err := decodeBody(w, r, &b, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	b.ID = ""
	b.Guest.Email = sessionIdentity(r).Email
	if b.Guest.Name == "" {
		b.Guest.Name = sessionIdentity(r).Name
	}
	if err := b.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := a.store.CreateBooking(r.Context(), b)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "booking.created", map[string]any{
		"booking_id":     created.ID,
		"room_id":        created.RoomID,
		"transaction_id": created.TransactionID,
		"price":          created.Price,
	})
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) handleGuestBookings(w http.ResponseWriter, r *http.Request) {
	email, ok := a.ownEmailQuery(w, r)
	if !ok {
		return
	}
	if email == "" {
		writeJSON(w, http.StatusOK, []booking.Booking{})
		return
	}
	list, err := a.store.ListBookingsByGuest(r.Context(), email)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleHostBookings(w http.ResponseWriter, r *http.Request) {
	email, ok := a.ownEmailQuery(w, r)
	if !ok {
		return
	}
	if email == "" {
		writeJSON(w, http.StatusOK, []booking.Booking{})
		return
	}
	list, err := a.store.ListBookingsByHost(r.Context(), email)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ownEmailQuery returns the email query parameter, rejecting the request when
// it names someone other than the session user.
func (a *API) ownEmailQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email != "" && email != sessionIdentity(r).Email {
		a.reject(w, r, auth.ErrForbidden)
		return "", false
	}
	return email, true
}

func (a *API) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	st, err := booking.Summarize(r.Context(), a.store)
	if err != nil {
		if errors.Is(err, r.Context().Err()) {
			return
		}
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
