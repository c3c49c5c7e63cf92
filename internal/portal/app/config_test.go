package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/notify"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so the host environment
// cannot leak into the defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SUPABASE_URL", "SUPABASE_ANON_KEY", "SUPABASE_SERVICE_ROLE_KEY", "SITE_URL",
		"IDENTITY_DRIVER", "PROFILE_DRIVER", "DATABASE_URL", "DATABASE_FILE",
		"COOLDOWN_DRIVER", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REGISTRATION_COOLDOWN",
		"SKIP_EMAIL_CONFIRMATION", "DELIVERY_TARGET", "DELIVERY_MAX_RETRIES",
		"WEBHOOK_URL", "AMQP_URL", "AMQP_EXCHANGE", "RESEND_API_KEY", "EMAIL_FROM", "BRAND_NAME",
		"MOCK_JWT_SECRET", "MOCK_AUTOCONFIRM", "PASSWORD_PEPPER",
		"SECURE_COOKIES", "ENV", "LOG_LEVEL", "LOG_FORMAT", "PORT",
		"SHUTDOWN_GRACE_PERIOD", "HOUSEKEEPING_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg := LoadConfig()
		require.Equal(t, IdentityGoTrue, cfg.IdentityDriver)
		require.Equal(t, ProfilePostgREST, cfg.ProfileDriver)
		require.Equal(t, CooldownMemory, cfg.CooldownDriver)
		require.Equal(t, notify.TargetNone, cfg.DeliveryTarget)
		require.Equal(t, notify.DefaultExchange, cfg.AMQPExchange)
		require.Equal(t, 60*time.Second, cfg.RegistrationCooldown)
		require.Equal(t, 5*time.Minute, cfg.HousekeepingInterval)
		require.Equal(t, 2, cfg.DeliveryMaxRetries)
		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, "Portal", cfg.Brand)
		require.Equal(t, "http://localhost:8080", cfg.SiteURL)
		require.True(t, cfg.MockAutoConfirm)
		require.False(t, cfg.SecureCookies, "dev keeps cookies usable over plain http")
	})

	t.Run("overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "prod")
		t.Setenv("IDENTITY_DRIVER", "MEMORY")
		t.Setenv("DELIVERY_TARGET", "Webhook")
		t.Setenv("REGISTRATION_COOLDOWN", "90")
		t.Setenv("HOUSEKEEPING_INTERVAL", "30s")
		t.Setenv("PORT", "not-a-number")

		cfg := LoadConfig()
		require.Equal(t, IdentityMemory, cfg.IdentityDriver)
		require.Equal(t, notify.TargetWebhook, cfg.DeliveryTarget)
		require.Equal(t, 90*time.Second, cfg.RegistrationCooldown)
		require.Equal(t, 30*time.Second, cfg.HousekeepingInterval)
		require.Equal(t, 8080, cfg.Port, "unparsable values fall back to the default")
		require.True(t, cfg.SecureCookies)
	})

	t.Run("unknown delivery target is kept for validation", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DELIVERY_TARGET", "Pigeon")

		cfg := LoadConfig()
		require.Equal(t, notify.Target("pigeon"), cfg.DeliveryTarget)
		require.Error(t, cfg.Validate())
	})
}

func localConfig() Config {
	return Config{
		IdentityDriver: IdentityMemory,
		ProfileDriver:  ProfileSQLite,
		DatabaseFile:   "portal.db",
		CooldownDriver: CooldownMemory,
		DeliveryTarget: notify.TargetNone,
		Port:           8080,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("local drivers need nothing else", func(t *testing.T) {
		require.NoError(t, localConfig().Validate())
	})

	t.Run("hosted drivers list every missing variable once", func(t *testing.T) {
		cfg := localConfig()
		cfg.IdentityDriver = IdentityGoTrue
		cfg.ProfileDriver = ProfilePostgREST
		cfg.SkipEmailConfirmation = true

		err := cfg.Validate()
		require.True(t, IsConfigError(err))

		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
		require.Equal(t, []string{"SUPABASE_URL", "SUPABASE_ANON_KEY", "SUPABASE_SERVICE_ROLE_KEY"}, ce.Missing)
		require.Contains(t, err.Error(), "missing required environment variables")
	})

	t.Run("service role key alone satisfies postgrest", func(t *testing.T) {
		cfg := localConfig()
		cfg.ProfileDriver = ProfilePostgREST
		cfg.SupabaseURL = "https://project.supabase.co"
		cfg.SupabaseServiceRoleKey = "service"
		require.NoError(t, cfg.Validate())
	})

	t.Run("delivery targets need their address", func(t *testing.T) {
		cases := map[notify.Target]string{
			notify.TargetEmail:   "RESEND_API_KEY",
			notify.TargetWebhook: "WEBHOOK_URL",
			notify.TargetQueue:   "AMQP_URL",
		}
		for target, missing := range cases {
			cfg := localConfig()
			cfg.DeliveryTarget = target

			var ce *ConfigError
			require.ErrorAs(t, cfg.Validate(), &ce, "target %s", target)
			require.Equal(t, []string{missing}, ce.Missing)
		}
	})

	t.Run("unknown drivers and bad ranges are invalid", func(t *testing.T) {
		cfg := localConfig()
		cfg.IdentityDriver = "ldap"
		cfg.CooldownDriver = "memcached"
		cfg.Port = 70000
		cfg.DeliveryMaxRetries = -1

		var ce *ConfigError
		require.ErrorAs(t, cfg.Validate(), &ce)
		require.Empty(t, ce.Missing)
		require.Len(t, ce.Invalid, 4)
	})

	t.Run("redis needs an address", func(t *testing.T) {
		cfg := localConfig()
		cfg.CooldownDriver = CooldownRedis

		var ce *ConfigError
		require.ErrorAs(t, cfg.Validate(), &ce)
		require.Equal(t, []string{"REDIS_ADDR"}, ce.Missing)
	})
}
