// Package payments creates card payment intents for room bookings.
package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var (
	// ErrInvalidAmount is returned for prices that do not convert to at least
	// one minor currency unit.
	ErrInvalidAmount = errors.New("payments: invalid amount")
	// ErrDisabled is returned when no payment provider is configured.
	ErrDisabled = errors.New("payments: disabled")
)

// Intent is the subset of a provider payment intent the client needs to
// confirm a card payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64) (Intent, error)
}

// ToMinorUnits converts a decimal price into cents, rounding to the nearest
// unit.
func ToMinorUnits(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, ErrInvalidAmount
	}
	amount := math.Round(price * 100)
	if amount < 1 || amount > math.MaxInt64/2 {
		return 0, ErrInvalidAmount
	}
	return int64(amount), nil
}

// Stripe is a Gateway backed by the Stripe PaymentIntents API.
type Stripe struct {
	sc       *client.API
	currency string
}

type Option func(*stripeOptions)

type stripeOptions struct {
	backends *stripe.Backends
	currency string
}

// WithBackends points the client at custom API backends.
func WithBackends(b *stripe.Backends) Option {
	return func(o *stripeOptions) { o.backends = b }
}

func WithCurrency(cur string) Option {
	return func(o *stripeOptions) {
		if cur = strings.ToLower(strings.TrimSpace(cur)); cur != "" {
			o.currency = cur
		}
	}
}

func NewStripe(key string, opts ...Option) (*Stripe, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("payments: stripe key is required")
	}
	o := stripeOptions{currency: string(stripe.CurrencyUSD)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Stripe{sc: client.New(key, o.backends), currency: o.currency}, nil
}

func (s *Stripe) CreateIntent(ctx context.Context, amountMinor int64) (Intent, error) {
	if amountMinor < 1 {
		return Intent{}, ErrInvalidAmount
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(s.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	pi, err := s.sc.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("payments: create intent: %w", err)
	}
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}
