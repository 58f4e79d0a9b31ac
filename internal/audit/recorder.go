// Package audit records classified Save and Delete failures so operators
// can see what users were told and why.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/JonMunkholm/objmap/internal/core"
	"github.com/JonMunkholm/objmap/internal/logging"
)

// Severity ranks a recorded failure.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 500

// Entry is one recorded failure.
type Entry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Action    string    `json:"action"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Error     string    `json:"error,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// determineSeverity returns the severity for a failure. Business rule
// failures are expected outcomes; lost connectivity is critical.
func determineSeverity(ev core.FailureEvent, code string) Severity {
	if core.IsBusinessRule(ev.Err) {
		return SeverityLow
	}
	switch code {
	case "DB005", "DB006":
		return SeverityCritical
	}
	switch ev.Action {
	case core.ActionDeleteObject:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}

// Recorder keeps the most recent entries in a ring.
type Recorder struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
	now     func() time.Time
}

// NewRecorder keeps up to capacity entries; non-positive means
// DefaultCapacity.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{
		entries: make([]Entry, capacity),
		now:     time.Now,
	}
}

// Record stores ev and logs it.
func (r *Recorder) Record(ctx context.Context, ev core.FailureEvent) Entry {
	code := core.MapError(ev.Err).Code
	entry := Entry{
		ID:        uuid.NewString(),
		Type:      ev.Type,
		Action:    ev.Action.String(),
		Severity:  determineSeverity(ev, code),
		Message:   ev.Message,
		Code:      code,
		RequestID: middleware.GetReqID(ctx),
		CreatedAt: r.now().UTC(),
	}
	if ev.Err != nil {
		entry.Error = ev.Err.Error()
	}

	r.mu.Lock()
	r.entries[r.next] = entry
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()

	logging.WithFields(ctx,
		"type", entry.Type,
		"action", entry.Action,
		"severity", string(entry.Severity),
		"code", entry.Code,
	).Info("failure recorded", "message", entry.Message)

	return entry
}

// Sink returns a core.FailureSink that records into r.
func (r *Recorder) Sink() core.FailureSink {
	return func(ctx context.Context, ev core.FailureEvent) {
		r.Record(ctx, ev)
	}
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything held.
func (r *Recorder) Recent(limit int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = len(r.entries)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]Entry, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (r.next - 1 - i + len(r.entries)) % len(r.entries)
		out = append(out, r.entries[idx])
	}
	return out
}

// Len returns the number of entries held.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}
