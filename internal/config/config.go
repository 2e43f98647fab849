package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Queue    QueueConfig    `mapstructure:"queue" validate:"required"`
	Recovery RecoveryConfig `mapstructure:"recovery" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL runs the server against in-memory stores, which is useful
// for local development and tests but persists nothing.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// QueueConfig controls queue assembly.
type QueueConfig struct {
	// DefaultPerTypeLimit caps how many items each content type contributes
	// to a queue when the request does not say otherwise. Zero means
	// uncapped.
	DefaultPerTypeLimit int `mapstructure:"default_per_type_limit" validate:"gte=0"`
}

// RecoveryConfig controls overdue backlog handling.
type RecoveryConfig struct {
	// VeryOverdueDays is how many days overdue an item must be before the
	// stats endpoint counts it as very overdue.
	VeryOverdueDays int `mapstructure:"very_overdue_days" validate:"required,gte=1"`
}

// SRSConfig overrides scheduling algorithm parameters. Zero values keep
// the algorithm defaults.
type SRSConfig struct {
	MinStability     float64 `mapstructure:"min_stability" validate:"gte=0"`
	InitialStability float64 `mapstructure:"initial_stability" validate:"gte=0"`
	FirstInterval    int     `mapstructure:"first_interval" validate:"gte=0"`
	SecondInterval   int     `mapstructure:"second_interval" validate:"gte=0"`
	LapseInterval    int     `mapstructure:"lapse_interval" validate:"gte=0"`
}
