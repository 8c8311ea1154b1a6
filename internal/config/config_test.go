package config

import (
	"net/http"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	c := Default()

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "development", c.Env)
	assert.Equal(t, 365*24*time.Hour, c.TokenTTL)
	assert.Equal(t, http.StatusUnauthorized, c.ForbiddenStatus)
	assert.Equal(t, []string{"http://localhost:5173"}, c.CORSOrigins)
	assert.False(t, c.Production())
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := Load(nil, envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SECRET")
}

func TestLoadEnvAndFlags(t *testing.T) {
	env := envMap(map[string]string{
		"STAYVISTA_AUTH_SECRET":      "s3cret",
		"STAYVISTA_ADDR":             ":9000",
		"STAYVISTA_ENV":              "production",
		"STAYVISTA_TOKEN_TTL":        "24h",
		"STAYVISTA_FORBIDDEN_STATUS": "403",
		"STAYVISTA_CORS_ORIGINS":     "https://stayvista.app, https://admin.stayvista.app ,",
		"STAYVISTA_TRACE_STDOUT":     "true",
		"STAYVISTA_S3_BUCKET":        "rooms",
	})

	c, err := Load([]string{"-addr", ":7000", "-log-level", "debug"}, env)
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.Addr, "flags override env")
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.Production())
	assert.Equal(t, 24*time.Hour, c.TokenTTL)
	assert.Equal(t, http.StatusForbidden, c.ForbiddenStatus)
	assert.Equal(t, []string{"https://stayvista.app", "https://admin.stayvista.app"}, c.CORSOrigins)
	assert.True(t, c.TraceStdout)
	assert.Equal(t, "rooms", c.S3Bucket)
	assert.Equal(t, "us-east-1", c.S3Region)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad ttl":              {"STAYVISTA_TOKEN_TTL": "forever"},
		"bad status":           {"STAYVISTA_FORBIDDEN_STATUS": "418"},
		"bad env":              {"STAYVISTA_ENV": "staging"},
		"bad bool":             {"STAYVISTA_TRACE_STDOUT": "maybe"},
		"non-positive burst":   {"STAYVISTA_RATE_BURST": "0"},
		"unparseable rate":     {"STAYVISTA_RATE_PER_SEC": "fast"},
		"sub-second token ttl": {"STAYVISTA_TOKEN_TTL": "10ms"},
		"bad trusted proxy":    {"STAYVISTA_TRUSTED_PROXIES": "10.0.0.0/8,lb.internal"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			vars["STAYVISTA_AUTH_SECRET"] = "s3cret"
			_, err := Load(nil, envMap(vars))
			assert.Error(t, err)
		})
	}
}

func TestProxies(t *testing.T) {
	c := Default()
	c.TrustedProxies = []string{"10.0.0.0/8", "192.168.1.7", "::ffff:172.16.0.1"}

	got, err := c.Proxies()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, netip.MustParsePrefix("10.0.0.0/8"), got[0])
	assert.Equal(t, netip.MustParsePrefix("192.168.1.7/32"), got[1])
	assert.Equal(t, netip.MustParsePrefix("172.16.0.1/32"), got[2])
}
