package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/objmap/internal/core"
)

func TestDetermineSeverity(t *testing.T) {
	tests := []struct {
		name string
		ev   core.FailureEvent
		want Severity
	}{
		{"business rule", core.FailureEvent{Action: core.ActionDeleteObject, Err: core.NewBusinessRuleError("Account", "in use")}, SeverityLow},
		{"connection refused", core.FailureEvent{Action: core.ActionSaveObject, Err: errors.New("dial tcp: connection refused")}, SeverityCritical},
		{"delete", core.FailureEvent{Action: core.ActionDeleteObject, Err: errors.New("foreign key violation")}, SeverityHigh},
		{"save", core.FailureEvent{Action: core.ActionSaveObject, Err: errors.New("violates not-null constraint")}, SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := core.MapError(tt.ev.Err).Code
			if got := determineSeverity(tt.ev, code); got != tt.want {
				t.Errorf("determineSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecorder_SinkRecords(t *testing.T) {
	r := NewRecorder(10)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-7")
	ctx = core.WithFailureSink(ctx, r.Sink())

	sink := core.FailureSinkFromContext(ctx)
	if sink == nil {
		t.Fatal("sink not installed")
	}
	sink(ctx, core.FailureEvent{
		Type:    "Invoice",
		Action:  core.ActionSaveObject,
		Message: "Invoice values are either empty or invalid",
		Err:     errors.New(`duplicate key value violates unique constraint "invoices_number_key"`),
	})

	entries := r.Recent(0)
	if len(entries) != 1 {
		t.Fatalf("Recent() returned %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Type != "Invoice" {
		t.Errorf("Type = %q, want %q", e.Type, "Invoice")
	}
	if e.Action != "save_object" {
		t.Errorf("Action = %q, want %q", e.Action, "save_object")
	}
	if e.Code != "DB001" {
		t.Errorf("Code = %q, want %q", e.Code, "DB001")
	}
	if e.RequestID != "req-7" {
		t.Errorf("RequestID = %q, want %q", e.RequestID, "req-7")
	}
	if !e.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, fixed)
	}
	if e.ID == "" {
		t.Error("ID should be set")
	}
}

func TestRecorder_RingOrder(t *testing.T) {
	r := NewRecorder(3)
	ctx := context.Background()

	for _, typ := range []string{"A", "B", "C", "D", "E"} {
		r.Record(ctx, core.FailureEvent{Type: typ, Action: core.ActionSaveObject})
	}

	if got := r.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	entries := r.Recent(0)
	want := []string{"E", "D", "C"}
	for i, w := range want {
		if entries[i].Type != w {
			t.Errorf("Recent()[%d].Type = %q, want %q", i, entries[i].Type, w)
		}
	}

	if got := r.Recent(2); len(got) != 2 || got[0].Type != "E" {
		t.Errorf("Recent(2) = %+v, want E first and two entries", got)
	}
}

func TestNewRecorder_DefaultCapacity(t *testing.T) {
	r := NewRecorder(0)
	if len(r.entries) != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", len(r.entries), DefaultCapacity)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestWarningPolicy(t *testing.T) {
	for _, accept := range []bool{true, false} {
		sink := WarningPolicy(accept)
		if got := sink(&struct{}{}, "Invoice INV-1 has a zero amount"); got != accept {
			t.Errorf("WarningPolicy(%v) answered %v", accept, got)
		}
	}
}
