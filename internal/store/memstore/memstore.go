// Package memstore is an in-memory query provider and executor. It keeps
// one ordered table per mapped type and counts the commands it runs, which
// makes it the store of choice for tests and for STORE_DRIVER=memory.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/objmap/internal/core"
)

type table struct {
	rows  map[string]core.Row
	order []string
	next  int64
}

func newTable() *table {
	return &table{rows: make(map[string]core.Row)}
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	tables   map[string]*table
	calls    map[core.QueryKind]int
	methods  []core.CommunicationMethod
	failNext error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		tables: make(map[string]*table),
		calls:  make(map[core.QueryKind]int),
	}
}

// NewCommand implements core.QueryProvider.
func (s *Store) NewCommand(meta *core.Metadata, kind core.QueryKind) (*core.Command, error) {
	return core.NewCommand(meta, kind), nil
}

// Execute implements core.QueryExecutor.
func (s *Store) Execute(ctx context.Context, cmd *core.Command, method core.CommunicationMethod) (core.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[cmd.Kind]++
	s.methods = append(s.methods, method)
	if err := s.failNext; err != nil {
		s.failNext = nil
		return nil, err
	}

	t := s.table(cmd.Table)
	switch cmd.Kind {
	case core.QueryLoadByKey:
		row, ok := t.rows[keyString(cmd.KeyValue())]
		if !ok {
			return nil, nil
		}
		return core.Rows{copyRow(row)}, nil

	case core.QueryLoadByFilter, core.QueryLoadUnfiltered:
		var out core.Rows
		for _, k := range t.order {
			row := t.rows[k]
			if matches(row, cmd.Params) {
				out = append(out, copyRow(row))
			}
		}
		return out, nil

	case core.QuerySave:
		return s.save(t, cmd), nil

	case core.QueryDelete:
		k := keyString(cmd.KeyValue())
		if _, ok := t.rows[k]; ok {
			delete(t.rows, k)
			t.order = remove(t.order, k)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("memstore: unsupported command kind %s", cmd.Kind)
}

// save inserts with the next sequence value when the key is null and
// merges into the existing row otherwise.
func (s *Store) save(t *table, cmd *core.Command) core.Rows {
	key := cmd.KeyValue()
	if key == nil {
		t.next++
		key = int(t.next)
	} else if n, ok := asInt64(key); ok && n > t.next {
		t.next = n
	}

	k := keyString(key)
	row, exists := t.rows[k]
	if !exists {
		row = make(core.Row, len(cmd.Columns))
		for _, c := range cmd.Columns {
			row[c] = nil
		}
		t.order = append(t.order, k)
	}
	for _, p := range cmd.Params {
		row[p.Column] = p.Value
	}
	row[cmd.Key] = key
	t.rows[k] = row

	return core.Rows{{cmd.Key: key}}
}

// Insert seeds a row directly, bypassing command counting.
func (s *Store) Insert(tableName, keyColumn string, row core.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(tableName)
	key := row[keyColumn]
	if n, ok := asInt64(key); ok && n > t.next {
		t.next = n
	}
	k := keyString(key)
	if _, exists := t.rows[k]; !exists {
		t.order = append(t.order, k)
	}
	t.rows[k] = copyRow(row)
}

// Rows returns a copy of every row in a table, in insertion order.
func (s *Store) Rows(tableName string) core.Rows {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[tableName]
	if !ok {
		return nil
	}
	out := make(core.Rows, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, copyRow(t.rows[k]))
	}
	return out
}

// Len returns the number of rows in a table.
func (s *Store) Len(tableName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[tableName]; ok {
		return len(t.rows)
	}
	return 0
}

// Calls returns how many commands of kind were executed.
func (s *Store) Calls(kind core.QueryKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

// Methods returns the communication method of every executed command.
func (s *Store) Methods() []core.CommunicationMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CommunicationMethod(nil), s.methods...)
}

// FailNext makes the next executed command return err.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

// Reset drops all tables and counters.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]*table)
	s.calls = make(map[core.QueryKind]int)
	s.methods = nil
	s.failNext = nil
}

// table must be called with mu held.
func (s *Store) table(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = newTable()
		s.tables[name] = t
	}
	return t
}

func matches(row core.Row, params []core.Param) bool {
	for _, p := range params {
		v, ok := row[p.Column]
		if !ok {
			return false
		}
		if p.Value == nil {
			if v != nil {
				return false
			}
			continue
		}
		if v == nil || keyString(v) != keyString(p.Value) {
			return false
		}
	}
	return true
}

// keyString normalises values so int, int32 and int64 keys collide.
func keyString(v any) string {
	if n, ok := asInt64(v); ok {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprint(v)
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	}
	return 0, false
}

func copyRow(row core.Row) core.Row {
	out := make(core.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func remove(order []string, k string) []string {
	for i, existing := range order {
		if existing == k {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
