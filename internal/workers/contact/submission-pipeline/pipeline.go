package submissionpipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/errors"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/logger"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/metrics"
	"github.com/emmanuel-sarpedon/contact-form/internal/common/observability"
	"github.com/emmanuel-sarpedon/contact-form/internal/models"
	validatesubmission "github.com/emmanuel-sarpedon/contact-form/internal/workers/contact/validate-submission"
	prospectrecordcreate "github.com/emmanuel-sarpedon/contact-form/internal/workers/crm/prospect-record-create"
)

// Pipeline owns the lifecycle of submission attempts:
// validate, create the record, notify the owner, navigate away.
type Pipeline struct {
	config   *Config
	logger   logger.Logger
	records  RecordCreator
	notifier OwnerNotifier
	guard    Guard
	obs      *observability.Observability
}

func NewPipeline(deps ServiceDependencies, config *Config) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if deps.Records == nil {
		return nil, fmt.Errorf("record creator is required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("owner notifier is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Guard == nil {
		deps.Guard = NewMemoryGuard(0)
	}

	return &Pipeline{
		config:   config,
		logger:   deps.Logger,
		records:  deps.Records,
		notifier: deps.Notifier,
		guard:    deps.Guard,
		obs:      deps.Observability,
	}, nil
}

// Submit runs one attempt for the form instance formID. An empty formID gets
// a fresh one. Submit never panics and always returns a terminal result.
func (p *Pipeline) Submit(ctx context.Context, formID string, raw map[string]interface{}, feedback Feedback, nav Navigator) (result *Result) {
	if feedback == nil {
		feedback = noopFeedback{}
	}
	if nav == nil {
		nav = noopNavigator{}
	}
	if formID == "" {
		formID = uuid.NewString()
	}

	log := p.logger.WithFields(map[string]interface{}{"formId": formID})
	result = &Result{FormID: formID, State: models.StateIdle}
	acquired := false
	navigated := false
	var record *prospectrecordcreate.Output
	var notifyErr error

	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic in submission pipeline", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
				"stack": string(debug.Stack()),
			})
			if record != nil {
				// The record exists, so the attempt stands and the instance stays sealed.
				if !navigated {
					p.safely(log, "seal", func() {
						_ = p.guard.Finish(context.WithoutCancel(ctx), formID, models.OutcomeSucceeded)
					})
					p.safely(log, "navigation", func() { nav.Replace(p.config.RedirectURL) })
				}
				result = p.succeeded(formID, record.URL, notifyErr)
			} else {
				result = p.fail(ctx, log, formID, errors.NewInternalError(fmt.Sprintf("panic: %v", r)), feedback, acquired)
			}
		}
		p.record(ctx, result)
	}()

	current, err := p.guard.State(ctx, formID)
	if err != nil {
		return p.fail(ctx, log, formID, errors.NewGuardUnavailableError(err), feedback, false)
	}
	if current.Locked() {
		return p.ignored(log, formID, current)
	}

	result.State = models.StateValidating
	sub, violations := validatesubmission.Validate(raw)
	if len(violations) > 0 {
		for _, v := range violations {
			metrics.ValidationViolations.WithLabelValues(v.Field, v.Code).Inc()
		}
		log.Debug("Submission rejected by validation", map[string]interface{}{
			"violations": len(violations),
		})
		invalid := errors.NewValidationFailedError(fmt.Sprintf("%d field violation(s)", len(violations)))
		return &Result{
			FormID:     formID,
			State:      models.StateInvalid,
			Violations: violations,
			ErrorCode:  string(invalid.Code),
			Err:        invalid,
		}
	}

	ok, current, err := p.guard.Begin(ctx, formID)
	if err != nil {
		return p.fail(ctx, log, formID, errors.NewGuardUnavailableError(err), feedback, false)
	}
	if !ok {
		return p.ignored(log, formID, current)
	}
	acquired = true
	result.State = models.StateDispatching
	feedback.Loading(p.config.Messages.InProgress)

	metrics.SubmissionsInFlight.Inc()
	defer metrics.SubmissionsInFlight.Dec()

	// Dispatch cannot be cancelled by the visitor once it has begun.
	dispatchCtx := context.WithoutCancel(ctx)
	if p.config.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		dispatchCtx, cancel = context.WithTimeout(dispatchCtx, p.config.DispatchTimeout)
		defer cancel()
	}

	start := time.Now()
	created, err := p.records.Execute(dispatchCtx, sub)
	if err != nil {
		p.observeDispatch(ctx, start, models.OutcomeFailed)
		return p.fail(ctx, log, formID, err, feedback, true)
	}
	record = created

	if notifyErr = p.notify(dispatchCtx, log, record.URL); notifyErr != nil {
		metrics.NotificationFailures.WithLabelValues(p.notifier.Driver(), errors.CodeOf(notifyErr)).Inc()
		log.Warn("Owner notification failed, submission still succeeds", map[string]interface{}{
			"recordUrl": record.URL,
			"errorCode": errors.CodeOf(notifyErr),
			"error":     notifyErr,
		})
	}
	p.observeDispatch(ctx, start, models.OutcomeSucceeded)

	if err := p.guard.Finish(context.WithoutCancel(ctx), formID, models.OutcomeSucceeded); err != nil {
		log.Warn("Failed to seal form instance", map[string]interface{}{"error": err})
	}

	p.safely(log, "feedback", func() { feedback.Success(p.config.Messages.Success) })
	p.safely(log, "navigation", func() { nav.Replace(p.config.RedirectURL) })
	navigated = true

	log.Info("Submission succeeded", map[string]interface{}{
		"recordUrl": record.URL,
		"notified":  notifyErr == nil,
	})

	return p.succeeded(formID, record.URL, notifyErr)
}

// notify sends the owner notification. A panicking notifier is reported as a
// notification failure.
func (p *Pipeline) notify(ctx context.Context, log logger.Logger, recordURL string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic in owner notification", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
				"stack": string(debug.Stack()),
			})
			err = errors.NewNotificationSendFailedError(p.notifier.Driver(), fmt.Errorf("panic: %v", r))
		}
	}()
	_, err = p.notifier.Execute(ctx, recordURL)
	return err
}

// safely runs a visitor-facing step once the record exists.
func (p *Pipeline) safely(log logger.Logger, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic after record creation", map[string]interface{}{
				"step":  step,
				"panic": fmt.Sprintf("%v", r),
			})
		}
	}()
	fn()
}

func (p *Pipeline) succeeded(formID, recordURL string, notifyErr error) *Result {
	return &Result{
		FormID:          formID,
		State:           models.StateSucceeded,
		Outcome:         models.OutcomeSucceeded,
		Message:         p.config.Messages.Success,
		RecordURL:       recordURL,
		Redirect:        p.config.RedirectURL,
		NotificationErr: notifyErr,
	}
}

// State returns the guard state of a form instance.
func (p *Pipeline) State(ctx context.Context, formID string) (models.SubmissionState, error) {
	return p.guard.State(ctx, formID)
}

// Ping checks the guard backend.
func (p *Pipeline) Ping(ctx context.Context) error {
	return p.guard.Ping(ctx)
}

// fail resolves an attempt as Failed. Configuration and transport errors
// share the visitor-facing message and keep their own code.
func (p *Pipeline) fail(ctx context.Context, log logger.Logger, formID string, err error, feedback Feedback, release bool) *Result {
	stdErr := errors.Normalize(err)

	if release {
		if guardErr := p.guard.Finish(context.WithoutCancel(ctx), formID, models.OutcomeFailed); guardErr != nil {
			log.Warn("Failed to release form instance", map[string]interface{}{"error": guardErr})
		}
	}

	metrics.DispatchFailures.WithLabelValues(string(stdErr.Code)).Inc()
	log.Error("Submission failed", map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": errors.GetErrorCategory(stdErr.Code),
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
	})

	feedback.Error(p.config.Messages.Failure)

	return &Result{
		FormID:    formID,
		State:     models.StateFailed,
		Outcome:   models.OutcomeFailed,
		Message:   p.config.Messages.Failure,
		ErrorCode: string(stdErr.Code),
		Err:       stdErr,
	}
}

func (p *Pipeline) ignored(log logger.Logger, formID string, current models.SubmissionState) *Result {
	stdErr := errors.NewSubmissionInFlightError(formID)
	message := p.config.Messages.InProgress
	if current == models.StateSucceeded {
		stdErr = errors.NewSubmissionAlreadySentError(formID)
		message = p.config.Messages.Success
	}
	log.Info("Submission ignored", map[string]interface{}{
		"currentState": string(current),
		"errorCode":    string(stdErr.Code),
	})
	return &Result{
		FormID:    formID,
		State:     models.StateIgnored,
		Message:   message,
		ErrorCode: string(stdErr.Code),
		Err:       stdErr,
	}
}

func (p *Pipeline) record(ctx context.Context, result *Result) {
	metrics.SubmissionsTotal.WithLabelValues(string(result.State)).Inc()
	p.obs.RecordSubmission(ctx, string(result.State))
}

func (p *Pipeline) observeDispatch(ctx context.Context, start time.Time, outcome models.Outcome) {
	elapsed := time.Since(start)
	metrics.DispatchDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
	p.obs.RecordDispatchDuration(ctx, elapsed, string(outcome))
}
