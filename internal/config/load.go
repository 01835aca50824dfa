package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for settings that have a sensible out-of-the-box value.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("refresh.cron_schedule", "0 3 * * *")
	v.SetDefault("refresh.status_cache_ttl_seconds", 30)

	// Optional config file alongside the binary; env vars override it.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables use the CHAZARA prefix with underscores as
	// separators, e.g. CHAZARA_DATABASE_URL maps to database.url.
	v.SetEnvPrefix("CHAZARA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not register keys for unmarshalling, so bind the
	// known keys explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"auth.jwt_secret",
		"auth.token_lifetime_minutes",
		"auth.refresh_token_lifetime_minutes",
		"refresh.cron_schedule",
		"refresh.status_cache_ttl_seconds",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Auth.RefreshTokenLifetimeMinutes <= cfg.Auth.TokenLifetimeMinutes {
		return nil, fmt.Errorf(
			"config validation failed: refresh token lifetime (%d minutes) must exceed access token lifetime (%d minutes)",
			cfg.Auth.RefreshTokenLifetimeMinutes,
			cfg.Auth.TokenLifetimeMinutes,
		)
	}

	return &cfg, nil
}
