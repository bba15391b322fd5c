// internal/common/config/config.go
package config

import (
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Server       ServerConfig      `mapstructure:"server"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Guard        GuardConfig       `mapstructure:"guard"`
	Contact      ContactConfig     `mapstructure:"contact"`
	Mail         MailConfig        `mapstructure:"mail"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
	Logging      LoggingConfig     `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GuardConfig selects the single-flight backend of the submission pipeline.
type GuardConfig struct {
	Driver      string `mapstructure:"driver"`        // memory | redis
	TTL         int    `mapstructure:"ttl"`           // milliseconds, sealed instances
	InFlightTTL int    `mapstructure:"in_flight_ttl"` // milliseconds, attempts whose process died
	KeyPrefix   string `mapstructure:"key_prefix"`
}

// --- Specific Configuration Sections ---

// ContactConfig holds the submission pipeline settings.
type ContactConfig struct {
	RedirectURL     string         `mapstructure:"redirect_url"`
	DispatchTimeout int            `mapstructure:"dispatch_timeout"` // milliseconds
	Messages        MessagesConfig `mapstructure:"messages"`
}

// MessagesConfig holds the visitor-facing progress messages.
type MessagesConfig struct {
	InProgress string `mapstructure:"in_progress"`
	Success    string `mapstructure:"success"`
	Failure    string `mapstructure:"failure"`
}

// MailConfig holds the owner notification settings.
type MailConfig struct {
	Driver  string `mapstructure:"driver"` // smtp | ses | sns
	From    string `mapstructure:"from"`
	To      string `mapstructure:"to"`
	Subject string `mapstructure:"subject"`
}

// IntegrationConfig holds settings for the record store, SMTP and AWS.
type IntegrationConfig struct {
	Notion struct {
		APIKey     string `mapstructure:"api_key"`
		DatabaseID string `mapstructure:"database_id"`
		BaseURL    string `mapstructure:"base_url"`
		Version    string `mapstructure:"version"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"notion"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		Secure   bool   `mapstructure:"secure"`
	} `mapstructure:"smtp"`

	AWS struct {
		Region string `mapstructure:"region"`
		SNS    struct {
			TopicARN string `mapstructure:"topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
