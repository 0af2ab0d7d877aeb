package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 15*time.Second, cfg.Checkout.FreshTTL)
	assert.Equal(t, 12*time.Second, cfg.Checkout.LockTTL)
	assert.Equal(t, "klarna_", cfg.Checkout.GatewayMethodPrefix)
	assert.Contains(t, cfg.Checkout.LoopOrigins, "/checkout/onepage/success")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("FRESH_TTL", "30s")
	t.Setenv("LOCK_TTL", "20s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOOP_ORIGINS", "/a, /b ,,")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, 30*time.Second, cfg.Checkout.FreshTTL)
	assert.Equal(t, 20*time.Second, cfg.Checkout.LockTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Checkout.LoopOrigins)
	assert.False(t, cfg.CookieSecure)
}

func TestLoad_YAMLOverlayThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkout.yaml")
	err := os.WriteFile(path, []byte(`
app_port: "7000"
checkout:
  fresh_ttl: 40s
  lock_ttl: 10s
  gateway_method_prefix: pay_
`), 0o600)
	require.NoError(t, err)

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7001", cfg.AppPort)
	assert.Equal(t, 40*time.Second, cfg.Checkout.FreshTTL)
	assert.Equal(t, 10*time.Second, cfg.Checkout.LockTTL)
	assert.Equal(t, "pay_", cfg.Checkout.GatewayMethodPrefix)
	assert.Equal(t, "/checkout/cart", cfg.Checkout.CartURL)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("FRESH_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_LockMustBeShorterThanFreshness(t *testing.T) {
	cfg := Defaults()
	cfg.Checkout.LockTTL = cfg.Checkout.FreshTTL

	assert.Error(t, cfg.Validate())
}

func TestValidate_OperatorIssuerNeedsClient(t *testing.T) {
	cfg := Defaults()
	cfg.OperatorIssuer = "https://id.example.com/realms/ops"

	assert.Error(t, cfg.Validate())

	cfg.OperatorClientID = "checkout-ops"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_TelemetryAndCORS(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example, https://m.shop.example")
	t.Setenv("OTEL_TRACES_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://shop.example", "https://m.shop.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "otlp", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
	assert.True(t, cfg.Telemetry.OTLPInsecure)
}

func TestValidate_UnknownTraceExporter(t *testing.T) {
	cfg := Defaults()
	cfg.Telemetry.TraceExporter = "jaeger-thrift"

	assert.Error(t, cfg.Validate())
}

func TestLoad_LogLevel(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	cfg.LogLevel = "chatty"
	assert.Error(t, cfg.Validate())
}
