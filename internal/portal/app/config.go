package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/notify"
	"github.com/joho/godotenv"
)

// Driver names.
const (
	IdentityGoTrue = "gotrue"
	IdentityMemory = "memory"

	ProfilePostgREST = "postgrest"
	ProfilePostgres  = "postgres"
	ProfileSQLite    = "sqlite"

	CooldownMemory = "memory"
	CooldownRedis  = "redis"
)

type Config struct {
	SupabaseURL            string // Hosted project URL (gotrue and postgrest drivers)
	SupabaseAnonKey        string // Public API key
	SupabaseServiceRoleKey string // Optional: administrative key for admin user creation and RLS bypass
	SiteURL                string // Public base URL used in confirmation links and mails (default: http://localhost:8080)

	IdentityDriver string // gotrue or memory (default: gotrue)
	ProfileDriver  string // postgrest, postgres or sqlite (default: postgrest)
	DatabaseURL    string // postgres DSN for the postgres profile driver
	DatabaseFile   string // SQLite file for the sqlite profile driver (default: portal.db)

	CooldownDriver       string        // memory or redis (default: memory)
	RedisAddr            string        // redis address for the redis cooldown driver
	RedisPassword        string        // Optional
	RedisDB              int           // default: 0
	RegistrationCooldown time.Duration // default: 60s

	SkipEmailConfirmation bool // Create confirmed identities through the admin API

	DeliveryTarget     notify.Target // none, email, webhook or queue (default: none)
	DeliveryMaxRetries int           // Attempts after the first (default: 2)
	WebhookURL         string
	AMQPURL            string
	AMQPExchange       string // default: portal.events
	ResendAPIKey       string
	EmailFrom          string
	Brand              string // Product name shown in pages and mails (default: Portal)

	MockJWTSecret   string // memory identity driver signing secret (random when empty)
	MockAutoConfirm bool   // memory identity driver confirms at sign-up
	PasswordPepper  string // memory identity driver password pepper (random per process when empty)

	SecureCookies        bool          // default: true outside dev
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 5m)
}

// LoadConfig reads the environment. A .env file in the working directory
// is loaded first when present; variables already set win.
func LoadConfig() Config {
	_ = godotenv.Load()

	env := getEnvOrDefault("ENV", "dev")
	target, ok := notify.ParseTarget(os.Getenv("DELIVERY_TARGET"))
	if !ok {
		target = notify.Target(strings.ToLower(os.Getenv("DELIVERY_TARGET")))
	}

	return Config{
		SupabaseURL:            os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:        os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SiteURL:                getEnvOrDefault("SITE_URL", "http://localhost:8080"),

		IdentityDriver: strings.ToLower(getEnvOrDefault("IDENTITY_DRIVER", IdentityGoTrue)),
		ProfileDriver:  strings.ToLower(getEnvOrDefault("PROFILE_DRIVER", ProfilePostgREST)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "portal.db"),

		CooldownDriver:       strings.ToLower(getEnvOrDefault("COOLDOWN_DRIVER", CooldownMemory)),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getEnvIntOrDefault("REDIS_DB", 0),
		RegistrationCooldown: getEnvDurationOrDefault("REGISTRATION_COOLDOWN", 60*time.Second),

		SkipEmailConfirmation: getEnvBoolOrDefault("SKIP_EMAIL_CONFIRMATION", false),

		DeliveryTarget:     target,
		DeliveryMaxRetries: getEnvIntOrDefault("DELIVERY_MAX_RETRIES", 2),
		WebhookURL:         os.Getenv("WEBHOOK_URL"),
		AMQPURL:            os.Getenv("AMQP_URL"),
		AMQPExchange:       getEnvOrDefault("AMQP_EXCHANGE", notify.DefaultExchange),
		ResendAPIKey:       os.Getenv("RESEND_API_KEY"),
		EmailFrom:          os.Getenv("EMAIL_FROM"),
		Brand:              getEnvOrDefault("BRAND_NAME", "Portal"),

		MockJWTSecret:   os.Getenv("MOCK_JWT_SECRET"),
		MockAutoConfirm: getEnvBoolOrDefault("MOCK_AUTOCONFIRM", true),
		PasswordPepper:  os.Getenv("PASSWORD_PEPPER"),

		SecureCookies:        getEnvBoolOrDefault("SECURE_COOKIES", env != "dev" && env != "test"),
		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 5*time.Minute),
	}
}

// ConfigError lists every problem found by Validate.
type ConfigError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required environment variables: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid configuration: "+strings.Join(e.Invalid, "; "))
	}
	return strings.Join(parts, "; ")
}

// Validate checks that the selected drivers have what they need.
func (c Config) Validate() error {
	e := &ConfigError{}
	require := func(name, value string) {
		if value == "" {
			e.Missing = append(e.Missing, name)
		}
	}

	switch c.IdentityDriver {
	case IdentityGoTrue:
		require("SUPABASE_URL", c.SupabaseURL)
		require("SUPABASE_ANON_KEY", c.SupabaseAnonKey)
		if c.SkipEmailConfirmation {
			require("SUPABASE_SERVICE_ROLE_KEY", c.SupabaseServiceRoleKey)
		}
	case IdentityMemory:
	default:
		e.Invalid = append(e.Invalid, fmt.Sprintf("IDENTITY_DRIVER %q is not one of gotrue, memory", c.IdentityDriver))
	}

	switch c.ProfileDriver {
	case ProfilePostgREST:
		require("SUPABASE_URL", c.SupabaseURL)
		if c.SupabaseAnonKey == "" && c.SupabaseServiceRoleKey == "" {
			e.Missing = append(e.Missing, "SUPABASE_ANON_KEY")
		}
	case ProfilePostgres:
		require("DATABASE_URL", c.DatabaseURL)
	case ProfileSQLite:
		require("DATABASE_FILE", c.DatabaseFile)
	default:
		e.Invalid = append(e.Invalid, fmt.Sprintf("PROFILE_DRIVER %q is not one of postgrest, postgres, sqlite", c.ProfileDriver))
	}

	switch c.CooldownDriver {
	case CooldownMemory:
	case CooldownRedis:
		require("REDIS_ADDR", c.RedisAddr)
	default:
		e.Invalid = append(e.Invalid, fmt.Sprintf("COOLDOWN_DRIVER %q is not one of memory, redis", c.CooldownDriver))
	}

	switch c.DeliveryTarget {
	case notify.TargetNone:
	case notify.TargetEmail:
		require("RESEND_API_KEY", c.ResendAPIKey)
	case notify.TargetWebhook:
		require("WEBHOOK_URL", c.WebhookURL)
	case notify.TargetQueue:
		require("AMQP_URL", c.AMQPURL)
	default:
		e.Invalid = append(e.Invalid, fmt.Sprintf("DELIVERY_TARGET %q is not one of none, email, webhook, queue", c.DeliveryTarget))
	}

	if c.Port <= 0 || c.Port > 65535 {
		e.Invalid = append(e.Invalid, fmt.Sprintf("PORT %d is out of range", c.Port))
	}
	if c.DeliveryMaxRetries < 0 {
		e.Invalid = append(e.Invalid, "DELIVERY_MAX_RETRIES must not be negative")
	}

	e.Missing = dedupe(e.Missing)
	if len(e.Missing) == 0 && len(e.Invalid) == 0 {
		return nil
	}
	return e
}

// IsConfigError reports whether err came from Validate.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
