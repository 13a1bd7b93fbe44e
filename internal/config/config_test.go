package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

// setEnvWithCleanup sets an environment variable for the duration of the test
// and restores the previous value afterwards.
func setEnvWithCleanup(t *testing.T, key, value string) {
	t.Helper()
	previous, existed := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
	t.Cleanup(func() {
		if existed {
			os.Setenv(key, previous)
		} else {
			os.Unsetenv(key)
		}
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	previous, existed := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if existed {
			os.Setenv(key, previous)
		}
	})
}

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)
	for _, key := range []string{
		"SERVER_PORT", "PORT", "PAYSTACK_API_BASE_URL", "WITHDRAWAL_CURRENCY",
		"WALLET_EVENT_EXCHANGE", "REDIS_RATE_LIMIT_PREFIX", "WITHDRAWAL_RATE_LIMIT_PER_MINUTE",
		"AUTH_JWT_SECRET", "SUPABASE_JWT_SECRET",
	} {
		unsetEnvWithCleanup(t, key)
	}

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("expected default server port 8080, got %q", cfg.ServerPort)
	}
	if cfg.PaystackAPIBaseURL != "https://api.paystack.co" {
		t.Errorf("expected default Paystack base URL, got %q", cfg.PaystackAPIBaseURL)
	}
	if cfg.WithdrawalCurrency != "KES" {
		t.Errorf("expected default currency KES, got %q", cfg.WithdrawalCurrency)
	}
	if cfg.WalletEventExchange != "chama.events" {
		t.Errorf("expected default exchange chama.events, got %q", cfg.WalletEventExchange)
	}
	if cfg.WithdrawalRateLimitPerMinute != 5 {
		t.Errorf("expected default rate limit 5, got %d", cfg.WithdrawalRateLimitPerMinute)
	}
	if cfg.RedisRateLimitPrefix != "chama:rate_limit" {
		t.Errorf("expected default rate limit prefix, got %q", cfg.RedisRateLimitPrefix)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	resetViper(t)
	unsetEnvWithCleanup(t, "PORT")
	setEnvWithCleanup(t, "SERVER_PORT", "9090")
	setEnvWithCleanup(t, "DATABASE_URL", "postgresql://localhost:5432/chama")
	setEnvWithCleanup(t, "AUTH_JWT_SECRET", "super-secret")
	setEnvWithCleanup(t, "PAYSTACK_SECRET_KEY", " sk_test_abc ")
	setEnvWithCleanup(t, "WITHDRAWAL_CURRENCY", "kes")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("expected server port 9090, got %q", cfg.ServerPort)
	}
	if cfg.DatabaseURL != "postgresql://localhost:5432/chama" {
		t.Errorf("unexpected database URL %q", cfg.DatabaseURL)
	}
	if cfg.AuthJWTSecret != "super-secret" {
		t.Errorf("unexpected JWT secret %q", cfg.AuthJWTSecret)
	}
	if cfg.PaystackSecretKey != "sk_test_abc" {
		t.Errorf("expected trimmed secret key, got %q", cfg.PaystackSecretKey)
	}
	if cfg.WithdrawalCurrency != "KES" {
		t.Errorf("expected currency uppercased to KES, got %q", cfg.WithdrawalCurrency)
	}
}

func TestLoadConfigPortPrecedence(t *testing.T) {
	resetViper(t)
	setEnvWithCleanup(t, "SERVER_PORT", "9090")
	setEnvWithCleanup(t, "PORT", "3000")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.ServerPort != "3000" {
		t.Errorf("expected platform PORT to win, got %q", cfg.ServerPort)
	}
}

func TestLoadConfigSupabaseSecretFallback(t *testing.T) {
	resetViper(t)
	unsetEnvWithCleanup(t, "AUTH_JWT_SECRET")
	setEnvWithCleanup(t, "SUPABASE_JWT_SECRET", "supabase-secret")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.AuthJWTSecret != "supabase-secret" {
		t.Errorf("expected SUPABASE_JWT_SECRET fallback, got %q", cfg.AuthJWTSecret)
	}
}

func TestLoadConfigNegativeRateLimitDisabled(t *testing.T) {
	resetViper(t)
	setEnvWithCleanup(t, "WITHDRAWAL_RATE_LIMIT_PER_MINUTE", "-3")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.WithdrawalRateLimitPerMinute != 0 {
		t.Errorf("expected negative rate limit coerced to 0, got %d", cfg.WithdrawalRateLimitPerMinute)
	}
}
