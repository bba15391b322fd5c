package ownernotify

import (
	"time"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/mailer"
)

type Output struct {
	Driver string    `json:"driver"`
	SentAt time.Time `json:"sentAt"`
}

type ServiceDependencies struct {
	Logger logger.Logger
	Mailer mailer.Mailer
}
