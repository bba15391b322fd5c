// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultRedirectURL = "https://webmanu.dev/formulaire-envoyee"
	DefaultMailFrom    = `"Emmanuel SARPEDON" <noreply@webmanu.dev>`
	DefaultMailSubject = "Webmanu.dev | Nouvelle demande depuis formulaire de contact"

	DefaultInProgressMessage = "Envoi de la demande..."
	DefaultSuccessMessage    = "Demande envoyée avec succès. Je vous recontacte dans les 48h"
	DefaultFailureMessage    = "Une erreur est survenue lors de l'envoi de la demande"
)

// Load reads configs/config.yaml, the config.<env>.yaml overlay, .env and the
// process environment, in increasing order of precedence.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	if root := findProjectRoot(); root != "" {
		v.AddConfigPath(filepath.Join(root, "configs"))
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			v.Set(key, os.ExpandEnv(strVal))
		}
	}
}

// overrideEmptyConfig fills secrets left empty by the files from the
// variable names the site has always been deployed with.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Integrations.Notion.APIKey == "" {
		if val := os.Getenv("NOTION_API_KEY"); val != "" {
			cfg.Integrations.Notion.APIKey = val
		}
	}
	if cfg.Integrations.Notion.DatabaseID == "" {
		if val := os.Getenv("NOTION_DATABASE_ID"); val != "" {
			cfg.Integrations.Notion.DatabaseID = val
		}
	}
	if cfg.Integrations.SMTP.Password == "" {
		if val := os.Getenv("ZOHO_SMTP_APP_PASSWORD"); val != "" {
			cfg.Integrations.SMTP.Password = val
		}
	}
	if cfg.Mail.To == "" {
		if val := os.Getenv("ZOHO_NOTIFICATION_EMAIL"); val != "" {
			cfg.Mail.To = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "contact-form"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Guard.Driver == "" {
		cfg.Guard.Driver = "memory"
	}
	if cfg.Guard.TTL == 0 {
		cfg.Guard.TTL = 24 * 60 * 60 * 1000
	}
	if cfg.Guard.InFlightTTL == 0 {
		cfg.Guard.InFlightTTL = 120000
	}
	if cfg.Guard.KeyPrefix == "" {
		cfg.Guard.KeyPrefix = "contact:submission:"
	}

	if cfg.Contact.RedirectURL == "" {
		cfg.Contact.RedirectURL = DefaultRedirectURL
	}
	if cfg.Contact.DispatchTimeout == 0 {
		cfg.Contact.DispatchTimeout = 45000
	}
	if cfg.Contact.Messages.InProgress == "" {
		cfg.Contact.Messages.InProgress = DefaultInProgressMessage
	}
	if cfg.Contact.Messages.Success == "" {
		cfg.Contact.Messages.Success = DefaultSuccessMessage
	}
	if cfg.Contact.Messages.Failure == "" {
		cfg.Contact.Messages.Failure = DefaultFailureMessage
	}

	if cfg.Mail.Driver == "" {
		cfg.Mail.Driver = "smtp"
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = DefaultMailFrom
	}
	if cfg.Mail.Subject == "" {
		cfg.Mail.Subject = DefaultMailSubject
	}

	if cfg.Integrations.Notion.BaseURL == "" {
		cfg.Integrations.Notion.BaseURL = "https://api.notion.com"
	}
	if cfg.Integrations.Notion.Version == "" {
		cfg.Integrations.Notion.Version = "2022-06-28"
	}
	if cfg.Integrations.Notion.Timeout == 0 {
		cfg.Integrations.Notion.Timeout = 30000
	}

	if cfg.Integrations.SMTP.Host == "" {
		cfg.Integrations.SMTP.Host = "smtppro.zoho.com"
		cfg.Integrations.SMTP.Secure = true
	}
	if cfg.Integrations.SMTP.Port == 0 {
		cfg.Integrations.SMTP.Port = 465
	}
	if cfg.Integrations.SMTP.Username == "" {
		cfg.Integrations.SMTP.Username = "noreply@webmanu.dev"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates the settings the process cannot start without.
// Record store and mail credentials are not checked here: their absence is
// reported per submission as a configuration error.
func validateConfig(cfg *Config) error {
	switch cfg.Guard.Driver {
	case "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when guard.driver is redis")
		}
	default:
		return fmt.Errorf("guard.driver must be memory or redis, got %q", cfg.Guard.Driver)
	}

	switch cfg.Mail.Driver {
	case "smtp", "ses":
	case "sns":
		if cfg.Integrations.AWS.SNS.TopicARN == "" {
			return fmt.Errorf("integrations.aws.sns.topic_arn is required when mail.driver is sns")
		}
	default:
		return fmt.Errorf("mail.driver must be smtp, ses or sns, got %q", cfg.Mail.Driver)
	}

	if (cfg.Mail.Driver == "ses" || cfg.Mail.Driver == "sns") && cfg.Integrations.AWS.Region == "" {
		return fmt.Errorf("integrations.aws.region is required when mail.driver is %s", cfg.Mail.Driver)
	}

	if cfg.Contact.DispatchTimeout < 0 {
		return fmt.Errorf("contact.dispatch_timeout must not be negative")
	}
	// The visitor must get the response of a dispatch that created a record.
	if cfg.Contact.DispatchTimeout >= cfg.Server.WriteTimeout {
		return fmt.Errorf("contact.dispatch_timeout (%dms) must be shorter than server.write_timeout (%dms)",
			cfg.Contact.DispatchTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Guard.InFlightTTL <= cfg.Contact.DispatchTimeout {
		return fmt.Errorf("guard.in_flight_ttl (%dms) must exceed contact.dispatch_timeout (%dms)",
			cfg.Guard.InFlightTTL, cfg.Contact.DispatchTimeout)
	}

	return nil
}
