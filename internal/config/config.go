// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file
// when present), loads them into structured Go types, and validates
// that required values are present so they can be reused across the
// application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional config blocks (e.g. observability).
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it is loaded into the
	// process environment before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read with the BOOKING_ prefix. Keys are lowercased, the
	prefix is removed and a double underscore marks a nesting level:

	  BOOKING_SERVER__READ_TIMEOUT -> server.read_timeout -> Config.Server.ReadTimeout

	The role identifiers used for authorization keep their historical,
	unprefixed names (ADMIN_ROLE_ID, SUPERADMIN_ROLE_ID, TRANSLATOR_ROLE_ID)
	and are mapped into the auth block.
*/

// EnvPrefix is the prefix every application variable carries.
const EnvPrefix = "BOOKING_"

// roleEnvKeys maps the unprefixed role variables onto koanf keys.
var roleEnvKeys = map[string]string{
	"ADMIN_ROLE_ID":      "auth.admin_role_id",
	"SUPERADMIN_ROLE_ID": "auth.superadmin_role_id",
	"TRANSLATOR_ROLE_ID": "auth.translator_role_id",
}

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// RateLimit is the sustained number of requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details.
// Address is typically "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores authentication secrets and the role identifiers
// that drive authorization decisions.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`

	// AdminRoleID and SuperAdminRoleID form the privileged role set.
	AdminRoleID      string `koanf:"admin_role_id" validate:"required"`
	SuperAdminRoleID string `koanf:"superadmin_role_id" validate:"required"`

	// TranslatorRoleID identifies users that may accept and browse open jobs.
	TranslatorRoleID string `koanf:"translator_role_id" validate:"required"`
}

// IntegrationConfig holds credentials and endpoints of third-party providers.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key" validate:"required"`
	EmailFrom    string `koanf:"email_from" validate:"required"`

	// PushGatewayURL and SMSGatewayURL are the notification provider endpoints.
	PushGatewayURL string `koanf:"push_gateway_url" validate:"required,url"`
	SMSGatewayURL  string `koanf:"sms_gateway_url" validate:"required,url"`
	GatewayToken   string `koanf:"gateway_token"`
}

// envKey converts a prefixed environment variable name into a koanf key.
//
//	BOOKING_DATABASE__SSL_MODE -> database.ssl_mode
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// roleKey maps the unprefixed role variables; anything else is skipped.
func roleKey(s string) string {
	return roleEnvKeys[s]
}

// LoadConfig loads configuration from environment variables, unmarshals it into
// Config structs, validates it, applies defaults, and returns the resulting config.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	// Empty prefix walks the whole environment; roleKey drops everything
	// except the role identifiers.
	if err := k.Load(env.Provider("", ".", roleKey), nil); err != nil {
		return nil, fmt.Errorf("could not load role variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if err := validator.New().Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment are forced so telemetry stays consistent.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
