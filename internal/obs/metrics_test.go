package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                          "/",
		"/metrics":                  "/metrics",
		"/room/01HZX":               "/room/:id",
		"/rooms":                    "/rooms",
		"/rooms/host@x.com":         "/rooms/:email",
		"/rooms/image-upload-url":   "/rooms/image-upload-url",
		"/rooms/status/01HZX":       "/rooms/status/:id",
		"/rooms/status/01HZX/extra": "/rooms/status/01HZX/extra",
		"/user/a@x.com":             "/user/:email",
		"/users":                    "/users",
		"/users/a@x.com":            "/users/:email",
		"/users/update/a@x.com":     "/users/update/:email",
		"/bookings?email=a@x.com":   "/bookings",
		"/bookings/host":            "/bookings/host",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestInstrumentRecordsCanonicalRoute(t *testing.T) {
	handler := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/room/:id", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/room/"+id, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Fatalf("expected 3 requests on one label set, got %v", got)
	}
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Fatalf("expected no in-flight requests, got %v", v)
	}
}

func TestRecordAuthDecision(t *testing.T) {
	counter := authDecisions.WithLabelValues("session", "expired")
	before := testutil.ToFloat64(counter)
	RecordAuthDecision("session", "expired")
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", got)
	}
}
