package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultIssuer = "stayvista"
	// DefaultLifetime matches the one-year cookie sessions the web client relies on.
	DefaultLifetime = 365 * 24 * time.Hour
)

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 session credentials.
type Codec struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	now      func() time.Time
}

// CodecOption configures Codec behavior.
type CodecOption func(*Codec) error

// WithLifetime overrides the credential lifetime.
func WithLifetime(d time.Duration) CodecOption {
	return func(c *Codec) error {
		if d < time.Second {
			return fmt.Errorf("auth: lifetime must be at least one second, got %s", d)
		}
		c.lifetime = d
		return nil
	}
}

// WithIssuer overrides the issuer claim written and expected by the codec.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) error {
		issuer = strings.TrimSpace(issuer)
		if issuer == "" {
			return errors.New("auth: issuer must not be empty")
		}
		c.issuer = issuer
		return nil
	}
}

// WithClock injects the time source, primarily for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) error {
		if now == nil {
			return errors.New("auth: clock must not be nil")
		}
		c.now = now
		return nil
	}
}

// NewCodec builds a codec around secret. An empty secret is a configuration error.
func NewCodec(secret []byte, opts ...CodecOption) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	c := &Codec{
		secret:   append([]byte(nil), secret...),
		issuer:   DefaultIssuer,
		lifetime: DefaultLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Lifetime reports how long issued credentials stay valid.
func (c *Codec) Lifetime() time.Duration { return c.lifetime }

// Issue signs id. Timestamps are truncated to whole seconds, the precision of the token.
func (c *Codec) Issue(id Identity) (Credential, error) {
	if err := id.validate(); err != nil {
		return Credential{}, err
	}
	issuedAt := c.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.lifetime).Truncate(time.Second)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return Credential{}, fmt.Errorf("auth: sign credential: %w", err)
	}
	return Credential{Token: signed, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature first and the expiry second. The returned error
// always wraps one of ErrMalformed, ErrInvalidSignature or ErrExpired.
func (c *Codec) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMalformed
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
	var cl claims
	if _, err := parser.ParseWithClaims(token, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}); err != nil {
		return Identity{}, classify(err)
	}

	id := Identity{Email: cl.Email, Name: cl.Name}
	if err := id.validate(); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return id, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
