// Package config loads service settings from defaults, STAYVISTA_* environment
// variables and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

const EnvPrefix = "STAYVISTA_"

// Config holds every runtime setting of the API process.
type Config struct {
	Addr            string
	GRPCAddr        string
	Env             string
	LogLevel        string
	TraceStdout     bool
	ShutdownTimeout time.Duration

	AuthSecret      string
	TokenTTL        time.Duration
	ForbiddenStatus int

	PGDSN string

	RedisAddr  string
	RateBurst  int
	RatePerSec int

	CORSOrigins []string
	// TrustedProxies holds IPs or CIDRs of load balancers allowed to set
	// X-Forwarded-For.
	TrustedProxies []string

	StripeKey       string
	PaymentCurrency string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		Env:             "development",
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
		TokenTTL:        365 * 24 * time.Hour,
		ForbiddenStatus: http.StatusUnauthorized,
		RateBurst:       20,
		RatePerSec:      10,
		CORSOrigins:     []string{"http://localhost:5173"},
		PaymentCurrency: "usd",
		S3Region:        "us-east-1",
	}
}

// Production reports whether cookies must be cross-site capable and secure.
func (c Config) Production() bool { return c.Env == "production" }

// Load resolves configuration from defaults, env (via getenv) and args.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg, err := LoadFromEnv(EnvPrefix, Default(), getenv)
	if err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("stayvista-api", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "gRPC health listen address (empty disables)")
	fs.StringVar(&cfg.Env, "env", cfg.Env, "deployment environment: development or production")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadFromEnv applies environment overrides with a prefix on top of base.
func LoadFromEnv(prefix string, base Config, getenv func(string) string) (Config, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(prefix + key)) }
	var errs []error

	setString := func(key string, dst *string) {
		if v := get(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", prefix, key, err))
				return
			}
			*dst = n
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := get(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", prefix, key, err))
				return
			}
			*dst = d
		}
	}
	setBool := func(key string, dst *bool) {
		if v := get(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", prefix, key, err))
				return
			}
			*dst = b
		}
	}

	setString("ADDR", &base.Addr)
	setString("GRPC_ADDR", &base.GRPCAddr)
	setString("ENV", &base.Env)
	setString("LOG_LEVEL", &base.LogLevel)
	setBool("TRACE_STDOUT", &base.TraceStdout)
	setDuration("SHUTDOWN_TIMEOUT", &base.ShutdownTimeout)
	setString("AUTH_SECRET", &base.AuthSecret)
	setDuration("TOKEN_TTL", &base.TokenTTL)
	setInt("FORBIDDEN_STATUS", &base.ForbiddenStatus)
	setString("PG_DSN", &base.PGDSN)
	setString("REDIS_ADDR", &base.RedisAddr)
	setInt("RATE_BURST", &base.RateBurst)
	setInt("RATE_PER_SEC", &base.RatePerSec)
	setString("STRIPE_KEY", &base.StripeKey)
	setString("PAYMENT_CURRENCY", &base.PaymentCurrency)
	setString("S3_BUCKET", &base.S3Bucket)
	setString("S3_REGION", &base.S3Region)
	setString("S3_ENDPOINT", &base.S3Endpoint)
	setString("S3_ACCESS_KEY", &base.S3AccessKey)
	setString("S3_SECRET_KEY", &base.S3SecretKey)
	if v := get("CORS_ORIGINS"); v != "" {
		base.CORSOrigins = splitList(v)
	}
	if v := get("TRUSTED_PROXIES"); v != "" {
		base.TrustedProxies = splitList(v)
	}

	return base, errors.Join(errs...)
}

// Validate reports configuration errors that must abort startup.
func (c Config) Validate() error {
	var errs []error
	if c.AuthSecret == "" {
		errs = append(errs, errors.New(EnvPrefix+"AUTH_SECRET is required"))
	}
	if c.TokenTTL < time.Second {
		errs = append(errs, errors.New("token ttl must be at least 1s"))
	}
	if c.ForbiddenStatus != http.StatusUnauthorized && c.ForbiddenStatus != http.StatusForbidden {
		errs = append(errs, fmt.Errorf("forbidden status must be 401 or 403, got %d", c.ForbiddenStatus))
	}
	if c.Env != "development" && c.Env != "production" {
		errs = append(errs, fmt.Errorf("env must be development or production, got %q", c.Env))
	}
	if c.RateBurst <= 0 || c.RatePerSec <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	if _, err := c.Proxies(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Proxies parses TrustedProxies. A bare address is treated as a single-host
// prefix.
func (c Config) Proxies() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, v := range c.TrustedProxies {
		if strings.Contains(v, "/") {
			p, err := netip.ParsePrefix(v)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", v, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
