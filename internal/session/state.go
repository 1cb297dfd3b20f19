package session

import "errors"

// Phase is the orchestrator's lifecycle state.
type Phase int

const (
	PhaseUninitialized        Phase = iota
	PhaseInitializing               // establishing identity, dialog, first content
	PhaseInitializationFailed       // absorbing; leaves only via Retry
	PhaseActive                     // serving content, accepting answers
	PhaseEnding                     // dialog end in flight
	PhaseEnded                      // terminal
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseInitializationFailed:
		return "initialization-failed"
	case PhaseActive:
		return "active"
	case PhaseEnding:
		return "ending"
	case PhaseEnded:
		return "ended"
	}
	return "unknown"
}

var (
	// ErrBusy is returned when an operation is attempted while another
	// one is still in flight. One content load at a time, per dialog.
	ErrBusy = errors.New("session: another operation is in flight")

	// ErrNotActive is returned for operations that require an active
	// session (answer, next, hint, end).
	ErrNotActive = errors.New("session: no active session")

	// ErrAlreadyInitialized is returned when Initialize is called from
	// any phase other than Uninitialized.
	ErrAlreadyInitialized = errors.New("session: already initialized")

	// ErrNotFailed is returned when Retry is called outside the
	// InitializationFailed phase.
	ErrNotFailed = errors.New("session: initialization has not failed")
)

// InteractionState tracks the learner's engagement with the current
// content item. Reset to defaults whenever new content loads.
type InteractionState struct {
	RevealedHintCount int
	SubmittedAnswer   string
	IsCorrect         *bool
	FeedbackVisible   bool
}
