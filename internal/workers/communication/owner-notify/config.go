package ownernotify

import (
	"fmt"
	"time"
)

type Config struct {
	From    string        `mapstructure:"from"`
	To      string        `mapstructure:"to"`
	Subject string        `mapstructure:"subject"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		From:    `"Emmanuel SARPEDON" <noreply@webmanu.dev>`,
		Subject: "Webmanu.dev | Nouvelle demande depuis formulaire de contact",
		Timeout: 30 * time.Second,
	}
}

// Validate checks the fixed parts of the message. The recipient may be
// absent; Execute then reports CONFIGURATION_MISSING.
func (c *Config) Validate() error {
	if c.From == "" {
		return fmt.Errorf("from is required")
	}
	if c.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
