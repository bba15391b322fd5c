// internal/models/state.go
package models

// SubmissionState is the lifecycle state of one submission attempt.
type SubmissionState string

const (
	StateIdle        SubmissionState = "idle"
	StateValidating  SubmissionState = "validating"
	StateInvalid     SubmissionState = "invalid"
	StateDispatching SubmissionState = "dispatching"
	StateSucceeded   SubmissionState = "succeeded"
	StateFailed      SubmissionState = "failed"
	// StateIgnored marks an attempt rejected because another one is in flight
	// or the form instance already succeeded.
	StateIgnored SubmissionState = "ignored"
)

// Locked reports whether form inputs must be disabled in this state.
func (s SubmissionState) Locked() bool {
	return s == StateDispatching || s == StateSucceeded
}

// Outcome is the UI-facing outcome of a dispatched submission.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)
