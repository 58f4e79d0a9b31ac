package core

import "context"

type contextKey string

const ctxKeyFailureSink contextKey = "failure_sink"

// FailureEvent is the payload delivered to a FailureSink.
type FailureEvent struct {
	Type    string
	Action  Action
	Message string
	Err     error
}

// FailureSink receives every classified Save or Delete failure raised
// within a context.
type FailureSink func(ctx context.Context, ev FailureEvent)

// WithFailureSink scopes sink to ctx and everything derived from it. A
// nested call replaces the outer sink.
func WithFailureSink(ctx context.Context, sink FailureSink) context.Context {
	return context.WithValue(ctx, ctxKeyFailureSink, sink)
}

// FailureSinkFromContext returns the sink scoped to ctx, or nil.
func FailureSinkFromContext(ctx context.Context) FailureSink {
	if v, ok := ctx.Value(ctxKeyFailureSink).(FailureSink); ok {
		return v
	}
	return nil
}

// WarningSink decides whether an operation on obj may continue after a
// warning.
type WarningSink func(obj Entity, message string) bool
