package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort string `yaml:"app_port"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	DatabaseDSN string `yaml:"database_dsn"`

	SessionTTL   time.Duration `yaml:"session_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`

	Checkout Checkout `yaml:"checkout"`

	OperatorIssuer   string `yaml:"operator_oidc_issuer"`
	OperatorClientID string `yaml:"operator_oidc_client_id"`

	// CORSAllowedOrigins lists storefront origins allowed to call the
	// REST surfaces from the browser. Empty disables CORS handling.
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	Telemetry Telemetry `yaml:"telemetry"`
}

// Telemetry selects where resolution traces go.
type Telemetry struct {
	// TraceExporter is "otlp", "stdout" or "none".
	TraceExporter string `yaml:"trace_exporter"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`
	OTLPInsecure  bool   `yaml:"otlp_insecure"`
}

// Checkout holds the arbitration windows and the gateway-facing URLs.
type Checkout struct {
	FreshTTL            time.Duration `yaml:"fresh_ttl"`
	LockTTL             time.Duration `yaml:"lock_ttl"`
	GatewayMethodPrefix string        `yaml:"gateway_method_prefix"`
	LoopOrigins         []string      `yaml:"loop_origins"`
	SuccessURL          string        `yaml:"success_url"`
	CartURL             string        `yaml:"cart_url"`
	CheckoutURL         string        `yaml:"checkout_url"`
}

func Defaults() Config {
	return Config{
		AppPort:      "8080",
		LogLevel:     "info",
		RedisAddr:    "localhost:6379",
		SessionTTL:   time.Hour,
		CookieSecure: true,
		Checkout: Checkout{
			FreshTTL:            15 * time.Second,
			LockTTL:             12 * time.Second,
			GatewayMethodPrefix: "klarna_",
			LoopOrigins: []string{
				"/checkout/onepage/success",
				"/checkout/gateway/cookie",
			},
			SuccessURL:  "/checkout/onepage/success",
			CartURL:     "/checkout/cart",
			CheckoutURL: "/checkout#payment",
		},
		Telemetry: Telemetry{
			TraceExporter: "none",
			OTLPEndpoint:  "localhost:4317",
			OTLPInsecure:  true,
		},
	}
}

// Load builds the config from defaults, the optional CONFIG_FILE overlay
// and finally the environment.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	str(&cfg.AppPort, "APP_PORT")
	str(&cfg.LogLevel, "LOG_LEVEL")

	str(&cfg.RedisAddr, "REDIS_ADDR")
	str(&cfg.RedisPassword, "REDIS_PASSWORD")
	if err := integer(&cfg.RedisDB, "REDIS_DB"); err != nil {
		return err
	}

	str(&cfg.DatabaseDSN, "DATABASE_DSN")

	if err := duration(&cfg.SessionTTL, "SESSION_TTL"); err != nil {
		return err
	}
	if err := boolean(&cfg.CookieSecure, "COOKIE_SECURE"); err != nil {
		return err
	}

	if err := duration(&cfg.Checkout.FreshTTL, "FRESH_TTL"); err != nil {
		return err
	}
	if err := duration(&cfg.Checkout.LockTTL, "LOCK_TTL"); err != nil {
		return err
	}
	str(&cfg.Checkout.GatewayMethodPrefix, "GATEWAY_METHOD_PREFIX")
	if v := os.Getenv("LOOP_ORIGINS"); v != "" {
		cfg.Checkout.LoopOrigins = splitList(v)
	}
	str(&cfg.Checkout.SuccessURL, "SUCCESS_URL")
	str(&cfg.Checkout.CartURL, "CART_URL")
	str(&cfg.Checkout.CheckoutURL, "CHECKOUT_URL")

	str(&cfg.OperatorIssuer, "OPERATOR_OIDC_ISSUER")
	str(&cfg.OperatorClientID, "OPERATOR_OIDC_CLIENT_ID")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	str(&cfg.Telemetry.TraceExporter, "OTEL_TRACES_EXPORTER")
	str(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	if err := boolean(&cfg.Telemetry.OTLPInsecure, "OTEL_EXPORTER_OTLP_INSECURE"); err != nil {
		return err
	}

	return nil
}

func (c Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("config: APP_PORT is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown LOG_LEVEL %q", c.LogLevel)
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if c.Checkout.FreshTTL <= 0 || c.Checkout.LockTTL <= 0 {
		return errors.New("config: FRESH_TTL and LOCK_TTL must be positive")
	}
	if c.Checkout.LockTTL >= c.Checkout.FreshTTL {
		return fmt.Errorf("config: LOCK_TTL (%s) must be shorter than FRESH_TTL (%s)",
			c.Checkout.LockTTL, c.Checkout.FreshTTL)
	}
	if c.Checkout.GatewayMethodPrefix == "" {
		return errors.New("config: GATEWAY_METHOD_PREFIX is required")
	}
	if c.Checkout.SuccessURL == "" || c.Checkout.CartURL == "" {
		return errors.New("config: SUCCESS_URL and CART_URL are required")
	}
	if c.OperatorIssuer != "" && c.OperatorClientID == "" {
		return errors.New("config: OPERATOR_OIDC_CLIENT_ID is required with an issuer")
	}
	switch c.Telemetry.TraceExporter {
	case "otlp", "stdout", "none":
	default:
		return fmt.Errorf("config: unknown OTEL_TRACES_EXPORTER %q", c.Telemetry.TraceExporter)
	}
	return nil
}

func str(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func integer(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = n
	return nil
}

func duration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = d
	return nil
}

func boolean(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
