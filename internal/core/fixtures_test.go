package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

type maker struct {
	Record
	Name string
}

type widget struct {
	Record
	Name    string
	Weight  float64
	Note    *string
	MakerID int
}

type crate struct {
	Record
	Label string
	Item  *widget
}

var makerSpec = TypeSpec{
	Name:   "Maker",
	Table:  "makers",
	Parent: &RecordSpec,
	New:    func() Entity { return &maker{Record: NewRecord()} },
	Fields: []FieldSpec{
		Field("Name", "name", func(e Entity) *string { return &e.(*maker).Name }),
	},
	Messages: map[Action]string{
		ActionSaveObject: "Maker could not be saved",
	},
}

var widgetSpec = TypeSpec{
	Name:   "Widget",
	Table:  "widgets",
	Parent: &RecordSpec,
	New:    func() Entity { return &widget{Record: NewRecord(), MakerID: NullInt} },
	Fields: []FieldSpec{
		Field("Name", "name", func(e Entity) *string { return &e.(*widget).Name }),
		Field("Weight", "weight", func(e Entity) *float64 { return &e.(*widget).Weight }),
		Field("Note", "note", func(e Entity) **string { return &e.(*widget).Note }),
		Field("MakerID", "maker_id", func(e Entity) *int { return &e.(*widget).MakerID }),
	},
	References: []ReferenceSpec{
		{Type: "Maker", Member: "MakerID"},
	},
}

var crateSpec = TypeSpec{
	Name:   "Crate",
	Table:  "crates",
	Parent: &RecordSpec,
	New:    func() Entity { return &crate{Record: NewRecord()} },
	Fields: []FieldSpec{
		Field("Label", "label", func(e Entity) *string { return &e.(*crate).Label }),
	},
	Members: []MemberSpec{
		{
			Name: "Item",
			Type: "Widget",
			Get: func(e Entity) any {
				if c := e.(*crate); c.Item != nil {
					return c.Item
				}
				return nil
			},
			Set: func(e Entity, v any) error {
				w, _ := v.(*widget)
				e.(*crate).Item = w
				return nil
			},
		},
	},
}

// stubExec keeps rows per table and records every command it runs.
type stubExec struct {
	mu      sync.Mutex
	tables  map[string]Rows
	calls   []*Command
	methods []CommunicationMethod
	seq     int
	err     error
}

func newStubExec() *stubExec {
	return &stubExec{tables: make(map[string]Rows)}
}

func (s *stubExec) Execute(ctx context.Context, cmd *Command, method CommunicationMethod) (Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, cmd)
	s.methods = append(s.methods, method)
	if s.err != nil {
		return nil, s.err
	}

	rows := s.tables[cmd.Table]
	switch cmd.Kind {
	case QueryLoadByKey, QueryLoadByFilter, QueryLoadUnfiltered:
		var out Rows
		for _, row := range rows {
			if matchesParams(row, cmd.Params) {
				out = append(out, copyRow(row))
			}
		}
		return out, nil

	case QuerySave:
		key := cmd.KeyValue()
		if key == nil {
			s.seq++
			key = s.seq
		}
		row := Row{}
		for _, p := range cmd.Params {
			row[p.Column] = p.Value
		}
		row[cmd.Key] = key
		for i, existing := range rows {
			if sameValue(existing[cmd.Key], key) {
				rows[i] = row
				return Rows{{cmd.Key: key}}, nil
			}
		}
		s.tables[cmd.Table] = append(rows, row)
		return Rows{{cmd.Key: key}}, nil

	case QueryDelete:
		key := cmd.KeyValue()
		kept := rows[:0]
		for _, row := range rows {
			if !sameValue(row[cmd.Key], key) {
				kept = append(kept, row)
			}
		}
		s.tables[cmd.Table] = kept
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected kind %v", cmd.Kind)
}

func (s *stubExec) insert(table string, row Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], row)
}

func (s *stubExec) count(kind QueryKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func (s *stubExec) last() *Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return s.calls[len(s.calls)-1]
}

func (s *stubExec) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func matchesParams(row Row, params []Param) bool {
	for _, p := range params {
		if !sameValue(row[p.Column], p.Value) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// newTestDirectory registers Maker, Widget and Crate against a stub
// executor.
func newTestDirectory(t *testing.T, caching bool) (*Directory, *stubExec) {
	t.Helper()
	exec := newStubExec()
	d := NewDirectory(Options{CacheEnabled: caching, Executor: exec})
	d.MustRegister(makerSpec, widgetSpec, crateSpec)
	return d, exec
}

func mustManager(t *testing.T, d *Directory, typeName string) *Manager {
	t.Helper()
	m, err := d.Manager(typeName)
	if err != nil {
		t.Fatalf("Manager(%q): %v", typeName, err)
	}
	return m
}

// sinkRecorder collects failure events.
type sinkRecorder struct {
	mu     sync.Mutex
	events []FailureEvent
}

func (r *sinkRecorder) sink(ctx context.Context, ev FailureEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *sinkRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
