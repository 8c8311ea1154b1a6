package auth

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "stayvista.app/internal/auth"

// UserLookup resolves the stored role for an email. Implementations return
// ErrUserNotFound when no record exists.
type UserLookup interface {
	FindRole(ctx context.Context, email string) (Role, error)
}

// Gate permits a request only when the caller's stored role equals the required one.
type Gate struct {
	users  UserLookup
	tracer trace.Tracer
}

// GateOption configures Gate behavior.
type GateOption func(*Gate)

// WithTracerProvider sets the provider used for gate spans.
func WithTracerProvider(tp trace.TracerProvider) GateOption {
	return func(g *Gate) {
		if tp != nil {
			g.tracer = tp.Tracer(instrumentationName)
		}
	}
}

func NewGate(users UserLookup, opts ...GateOption) *Gate {
	g := &Gate{
		users:  users,
		tracer: otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize performs exactly one role lookup per call and never caches.
// It returns ErrUnauthenticated without an identity, ErrForbidden on a missing
// record or role mismatch, and a wrapped store error otherwise.
func (g *Gate) Authorize(ctx context.Context, required Role) error {
	ctx, span := g.tracer.Start(ctx, "auth.gate", trace.WithAttributes(
		attribute.String("auth.required_role", string(required)),
	))
	defer span.End()

	id, ok := IdentityFromContext(ctx)
	if !ok {
		span.SetAttributes(attribute.String("auth.outcome", "unauthenticated"))
		return ErrUnauthenticated
	}

	role, err := g.users.FindRole(ctx, id.Email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		span.SetAttributes(attribute.String("auth.outcome", "no_record"))
		return ErrForbidden
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "role lookup failed")
		return fmt.Errorf("auth: lookup role: %w", err)
	}

	if role != required {
		span.SetAttributes(attribute.String("auth.outcome", "role_mismatch"))
		return ErrForbidden
	}
	span.SetAttributes(attribute.String("auth.outcome", "allowed"))
	return nil
}
