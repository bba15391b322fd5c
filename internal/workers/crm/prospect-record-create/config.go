package prospectrecordcreate

import (
	"fmt"
	"time"
)

type Config struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	NotionAPIKey     string        `mapstructure:"notion_api_key"`
	NotionDatabaseID string        `mapstructure:"notion_database_id"`
	NotionBaseURL    string        `mapstructure:"notion_base_url"`
	NotionVersion    string        `mapstructure:"notion_version"`
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		NotionBaseURL: "https://api.notion.com",
		NotionVersion: "2022-06-28",
	}
}

// Validate checks the shape of the configuration. Missing credentials are
// allowed here and reported by Execute as CONFIGURATION_MISSING.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.NotionBaseURL == "" {
		return fmt.Errorf("notion_base_url is required")
	}
	return nil
}
