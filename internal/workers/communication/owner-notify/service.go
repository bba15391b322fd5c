package ownernotify

import (
	"context"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/errors"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/mailer"
)

type Service struct {
	config *Config
	logger logger.Logger
	mailer mailer.Mailer
	policy *bluemonday.Policy
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		mailer: deps.Mailer,
		policy: bluemonday.StrictPolicy(),
	}
}

// Execute tells the site owner a new prospect record exists. The body is the
// record URL and nothing else.
func (s *Service) Execute(ctx context.Context, recordURL string) (*Output, error) {
	if s.mailer == nil {
		return nil, errors.NewConfigurationMissingError("mail.driver")
	}
	if s.config.To == "" {
		return nil, errors.NewConfigurationMissingError("ZOHO_NOTIFICATION_EMAIL")
	}

	msg := mailer.Message{
		From:     s.config.From,
		To:       s.config.To,
		Subject:  s.config.Subject,
		HTMLBody: s.policy.Sanitize(recordURL),
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if err := s.mailer.Send(sendCtx, msg); err != nil {
		return nil, errors.NewNotificationSendFailedError(s.mailer.Name(), err)
	}

	s.logger.Info("Owner notified", map[string]interface{}{
		"driver":    s.mailer.Name(),
		"recordUrl": recordURL,
	})

	return &Output{
		Driver: s.mailer.Name(),
		SentAt: time.Now(),
	}, nil
}

// Driver names the configured mail driver, or "none".
func (s *Service) Driver() string {
	if s.mailer == nil {
		return "none"
	}
	return s.mailer.Name()
}
