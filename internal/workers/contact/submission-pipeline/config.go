package submissionpipeline

import (
	"fmt"
	"net/url"
	"time"
)

type Messages struct {
	InProgress string `mapstructure:"in_progress"`
	Success    string `mapstructure:"success"`
	Failure    string `mapstructure:"failure"`
}

type Config struct {
	RedirectURL string   `mapstructure:"redirect_url"`
	Messages    Messages `mapstructure:"messages"`
	// DispatchTimeout bounds record creation plus notification. Zero leaves
	// the transports' own timeouts in charge.
	DispatchTimeout time.Duration `mapstructure:"dispatch_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		RedirectURL: "https://webmanu.dev/formulaire-envoyee",
		Messages: Messages{
			InProgress: "Envoi de la demande...",
			Success:    "Demande envoyée avec succès. Je vous recontacte dans les 48h",
			Failure:    "Une erreur est survenue lors de l'envoi de la demande",
		},
	}
}

func (c *Config) Validate() error {
	if c.RedirectURL == "" {
		return fmt.Errorf("redirect_url is required")
	}
	u, err := url.Parse(c.RedirectURL)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("redirect_url must be an absolute URL")
	}
	if c.Messages.InProgress == "" || c.Messages.Success == "" || c.Messages.Failure == "" {
		return fmt.Errorf("messages.in_progress, messages.success and messages.failure are required")
	}
	if c.DispatchTimeout < 0 {
		return fmt.Errorf("dispatch_timeout must not be negative")
	}
	return nil
}
