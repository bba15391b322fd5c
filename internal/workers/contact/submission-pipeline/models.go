package submissionpipeline

import (
	"context"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/observability"
	"github.com/emmanuel-sarpedon/contact-form/internal/models"
	ownernotify "github.com/emmanuel-sarpedon/contact-form/internal/workers/communication/owner-notify"
	prospectrecordcreate "github.com/emmanuel-sarpedon/contact-form/internal/workers/crm/prospect-record-create"
)

// Feedback receives the visitor-facing progress messages of an attempt.
type Feedback interface {
	Loading(message string)
	Success(message string)
	Error(message string)
}

// Navigator leaves the form for an external URL, replacing the current
// history entry.
type Navigator interface {
	Replace(url string)
}

type RecordCreator interface {
	Execute(ctx context.Context, sub *models.Submission) (*prospectrecordcreate.Output, error)
}

type OwnerNotifier interface {
	Execute(ctx context.Context, recordURL string) (*ownernotify.Output, error)
	Driver() string
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Records       RecordCreator
	Notifier      OwnerNotifier
	Guard         Guard
	Observability *observability.Observability
}

// Result describes how one call to Submit ended.
type Result struct {
	FormID     string                  `json:"formId"`
	State      models.SubmissionState  `json:"state"`
	Outcome    models.Outcome          `json:"outcome,omitempty"`
	Message    string                  `json:"message,omitempty"`
	Violations []models.FieldViolation `json:"violations,omitempty"`
	RecordURL  string                  `json:"-"`
	Redirect   string                  `json:"redirect,omitempty"`
	ErrorCode  string                  `json:"code,omitempty"`
	Err        error                   `json:"-"`
	// NotificationErr is set when the record was created but the owner
	// could not be notified. The attempt still succeeds.
	NotificationErr error `json:"-"`
}

type noopFeedback struct{}

func (noopFeedback) Loading(string) {}
func (noopFeedback) Success(string) {}
func (noopFeedback) Error(string)   {}

type noopNavigator struct{}

func (noopNavigator) Replace(string) {}
