package trace

import "context"

// Noop is a Tracer that discards everything. Used when no tracing endpoint
// is configured.
type Noop struct{}

// NewNoop creates a no-op tracer.
func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) Start(context.Context, []string) error { return nil }
func (n *Noop) Record(context.Context, Event) error   { return nil }
func (n *Noop) End(context.Context, State) error      { return nil }

// Ensure Noop implements Tracer
var _ Tracer = (*Noop)(nil)
