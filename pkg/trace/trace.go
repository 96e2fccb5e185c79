// Package trace reports check-run sessions to an external tracing service.
// A session spans one run: Start opens it, Record attaches events, and End
// closes it with a terminal state.
package trace

import "context"

// State is the terminal state of a traced session.
type State string

const (
	// StateSuccess marks a session whose run completed cleanly.
	StateSuccess State = "Success"

	// StateFail marks a session whose run hit a fatal error.
	StateFail State = "Fail"

	// StateIndeterminate marks a session that ended without a verdict.
	StateIndeterminate State = "Indeterminate"
)

// Event is a single named occurrence within a session.
type Event struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Tracer records a session's lifecycle. Callers treat tracing errors as
// advisory: a failure to trace never fails the traced run.
type Tracer interface {
	// Start opens a new session tagged with the given labels.
	Start(ctx context.Context, tags []string) error

	// Record attaches an event to the open session.
	Record(ctx context.Context, event Event) error

	// End closes the session with the given terminal state.
	End(ctx context.Context, state State) error
}
