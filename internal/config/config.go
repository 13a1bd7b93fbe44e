/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the wallet-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                    string `mapstructure:"SERVER_PORT"`
	DatabaseURL                   string `mapstructure:"DATABASE_URL"`
	AuthJWTSecret                 string `mapstructure:"AUTH_JWT_SECRET"`
	PaystackAPIBaseURL            string `mapstructure:"PAYSTACK_API_BASE_URL"`
	PaystackSecretKey             string `mapstructure:"PAYSTACK_SECRET_KEY"`
	WithdrawalCurrency            string `mapstructure:"WITHDRAWAL_CURRENCY"`
	RabbitMQURL                   string `mapstructure:"RABBITMQ_URL"`
	WalletEventExchange           string `mapstructure:"WALLET_EVENT_EXCHANGE"`
	RedisURL                      string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix          string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	WithdrawalRateLimitPerMinute  int    `mapstructure:"WITHDRAWAL_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("PAYSTACK_API_BASE_URL", "https://api.paystack.co")
	viper.SetDefault("WITHDRAWAL_CURRENCY", "KES")
	viper.SetDefault("WALLET_EVENT_EXCHANGE", "chama.events")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "chama:rate_limit")
	viper.SetDefault("WITHDRAWAL_RATE_LIMIT_PER_MINUTE", 5)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("AUTH_JWT_SECRET", "AUTH_JWT_SECRET", "SUPABASE_JWT_SECRET")
	_ = viper.BindEnv("PAYSTACK_API_BASE_URL")
	_ = viper.BindEnv("PAYSTACK_SECRET_KEY")
	_ = viper.BindEnv("WITHDRAWAL_CURRENCY")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("WALLET_EVENT_EXCHANGE")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("WITHDRAWAL_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// PORT (platform-injected) takes precedence over SERVER_PORT.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.AuthJWTSecret) == "" {
		config.AuthJWTSecret = strings.TrimSpace(os.Getenv("SUPABASE_JWT_SECRET"))
	}
	config.PaystackSecretKey = strings.TrimSpace(config.PaystackSecretKey)
	config.WithdrawalCurrency = strings.ToUpper(strings.TrimSpace(config.WithdrawalCurrency))
	if config.WithdrawalCurrency == "" {
		config.WithdrawalCurrency = "KES"
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "chama:rate_limit"
	}

	if config.WithdrawalRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative withdrawal rate limit configured; disabling\" limit=%d", config.WithdrawalRateLimitPerMinute)
		config.WithdrawalRateLimitPerMinute = 0
	}

	return
}
