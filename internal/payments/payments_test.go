package payments

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		price float64
		want  int64
		err   bool
	}{
		{price: 120, want: 12000},
		{price: 19.99, want: 1999},
		{price: 0.01, want: 1},
		{price: 0.004, err: true},
		{price: 0, err: true},
		{price: -5, err: true},
		{price: math.NaN(), err: true},
		{price: math.Inf(1), err: true},
	}
	for _, tc := range cases {
		got, err := ToMinorUnits(tc.price)
		if tc.err {
			assert.ErrorIs(t, err, ErrInvalidAmount, "price %v", tc.price)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func newStripeBackend(t *testing.T, h http.HandlerFunc) *stripe.Backends {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return &stripe.Backends{API: api, Connect: api, Uploads: api}
}

func TestStripeCreateIntent(t *testing.T) {
	var form map[string]string
	backends := newStripeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		form = map[string]string{
			"amount":                  r.PostForm.Get("amount"),
			"currency":                r.PostForm.Get("currency"),
			"payment_method_types[0]": r.PostForm.Get("payment_method_types[0]"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","amount":12000,"currency":"eur","client_secret":"pi_123_secret_abc"}`))
	})

	gw, err := NewStripe("sk_test_123", WithBackends(backends), WithCurrency("EUR"))
	require.NoError(t, err)

	intent, err := gw.CreateIntent(context.Background(), 12000)
	require.NoError(t, err)
	assert.Equal(t, Intent{ID: "pi_123", ClientSecret: "pi_123_secret_abc", Amount: 12000, Currency: "eur"}, intent)
	assert.Equal(t, "12000", form["amount"])
	assert.Equal(t, "eur", form["currency"])
	assert.Equal(t, "card", form["payment_method_types[0]"])
}

func TestStripeCreateIntentProviderError(t *testing.T) {
	backends := newStripeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","message":"declined"}}`))
	})
	gw, err := NewStripe("sk_test_123", WithBackends(backends))
	require.NoError(t, err)

	_, err = gw.CreateIntent(context.Background(), 500)
	require.Error(t, err)

	_, err = gw.CreateIntent(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNewStripeRequiresKey(t *testing.T) {
	_, err := NewStripe("  ")
	assert.Error(t, err)
}
