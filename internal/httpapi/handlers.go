package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"stayvista.app/internal/auth"
	"stayvista.app/internal/booking"
	"stayvista.app/internal/media"
	"stayvista.app/internal/obs"
	"stayvista.app/internal/payments"
	"stayvista.app/internal/ratelimit"
)

const serviceName = "stayvista-api"

type readinessChecker interface {
	Check(ctx context.Context) error
}

type readinessFunc func(ctx context.Context) error

func (f readinessFunc) Check(ctx context.Context) error { return f(ctx) }

// Pinger is satisfied by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe reports readiness of the backing store; a nil DB is always ready.
type ReadyProbe struct {
	DB Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.Ping(ctx)
}

// Uploader issues presigned image upload URLs.
type Uploader interface {
	PresignRoomImage(ctx context.Context, contentType string) (media.Upload, error)
}

// Options configures the optional collaborators of API.
type Options struct {
	Version    string
	Production bool
	// ForbiddenStatus is written when a valid session lacks the required
	// role. Zero means 401.
	ForbiddenStatus int
	CORSOrigins     []string
	// TrustedProxies lists peers whose X-Forwarded-For header is honoured
	// when keying the token issuance limiter.
	TrustedProxies []netip.Prefix
	Ready          readinessChecker
	Limiter        ratelimit.Limiter
	Payments       payments.Gateway
	Uploads        Uploader
}

// API is the HTTP layer.
type API struct {
	mux             *http.ServeMux
	codec           *auth.Codec
	gate            *auth.Gate
	store           booking.Store
	readiness       readinessChecker
	limiter         ratelimit.Limiter
	payments        payments.Gateway
	uploads         Uploader
	version         string
	production      bool
	forbiddenStatus int
	corsOrigins     []string
	trustedProxies  []netip.Prefix
	now             func() time.Time
}

func New(codec *auth.Codec, store booking.Store, opts Options) *API {
	a := &API{
		mux:             http.NewServeMux(),
		codec:           codec,
		gate:            auth.NewGate(booking.Roles{Users: store}),
		store:           store,
		readiness:       opts.Ready,
		limiter:         opts.Limiter,
		payments:        opts.Payments,
		uploads:         opts.Uploads,
		version:         opts.Version,
		production:      opts.Production,
		forbiddenStatus: opts.ForbiddenStatus,
		corsOrigins:     opts.CORSOrigins,
		trustedProxies:  opts.TrustedProxies,
		now:             time.Now,
	}
	if a.readiness == nil {
		a.readiness = ReadyProbe{}
	}
	if a.forbiddenStatus == 0 {
		a.forbiddenStatus = http.StatusUnauthorized
	}
	if a.limiter == nil {
		a.limiter = ratelimit.NewLocal(10, 20)
	}
	a.routes()
	return a
}

func (a *API) routes() {
	// operational
	a.mux.HandleFunc("GET /{$}", a.Greeting)
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.HandleFunc("GET /v1/info", a.Info)
	a.mux.Handle("GET /metrics", obs.Handler())

	// credentials
	a.mux.Handle("POST /jwt", RateLimit(http.HandlerFunc(a.handleIssueToken), a.limiter, a.trustedProxies))
	a.mux.HandleFunc("GET /logout", a.handleLogout)

	// users
	a.mux.HandleFunc("PUT /users/{email}", a.handleSaveUser)
	a.mux.HandleFunc("GET /user/{email}", a.handleGetUser)
	a.mux.Handle("GET /users", a.protect(a.handleListUsers, a.session, a.requireRole(auth.RoleAdmin)))
	a.mux.Handle("PUT /users/update/{email}", a.protect(a.handleUpdateUser, a.session))

	// rooms
	a.mux.HandleFunc("GET /rooms", a.handleListRooms)
	a.mux.HandleFunc("GET /room/{id}", a.handleGetRoom)
	a.mux.HandleFunc("GET /rooms/{email}", a.handleHostRooms)
	a.mux.Handle("POST /rooms", a.protect(a.handleCreateRoom, a.session, a.requireRole(auth.RoleHost)))
	a.mux.Handle("POST /rooms/image-upload-url", a.protect(a.handleImageUploadURL, a.session, a.requireRole(auth.RoleHost)))
	a.mux.Handle("PATCH /rooms/status/{id}", a.protect(a.handleRoomStatus, a.session))

	// bookings
	a.mux.Handle("POST /create-payment-intent", a.protect(a.handlePaymentIntent, a.session))
	a.mux.Handle("POST /bookings", a.protect(a.handleCreateBooking, a.session))
	a.mux.Handle("GET /bookings", a.protect(a.handleGuestBookings, a.session))
	a.mux.Handle("GET /bookings/host", a.protect(a.handleHostBookings, a.session, a.requireRole(auth.RoleHost)))
	a.mux.Handle("GET /admin-stat", a.protect(a.handleAdminStats, a.session, a.requireRole(auth.RoleAdmin)))
}

// Handler returns the mux wrapped in the full middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = obs.Trace(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Greeting(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Hello from StayVista Server..")
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readiness.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    a.now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

// decodeJSON reads a single JSON object, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return decodeBody(w, r, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any, strict bool) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleStoreError maps store sentinels to statuses; anything else is logged
// and hidden behind a generic 500.
func handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, booking.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, booking.ErrConflict):
		writeError(w, r, http.StatusConflict, "already exists")
	default:
		obs.Logger().LogAttrs(r.Context(), slog.LevelError, "store_error",
			slog.String("request_id", RequestIDFromContext(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func pathEmail(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("email"))
}
