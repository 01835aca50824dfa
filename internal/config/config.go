package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Refresh  RefreshConfig  `mapstructure:"refresh" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes defines how long an access token remains valid.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0,lte=1440"`
	// RefreshTokenLifetimeMinutes defines how long a refresh token remains
	// valid. Must exceed the access token lifetime.
	RefreshTokenLifetimeMinutes int `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0,lte=43200"`
}

// RefreshConfig contains settings for dashboard status refresh behavior.
type RefreshConfig struct {
	// CronSchedule is the cron expression for the nightly status refresh job.
	CronSchedule string `mapstructure:"cron_schedule" validate:"required"`
	// StatusCacheTTLSeconds bounds how long a derived point status may be
	// served without recomputation.
	StatusCacheTTLSeconds int `mapstructure:"status_cache_ttl_seconds" validate:"required,gt=0,lte=3600"`
}
