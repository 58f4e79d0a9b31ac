// Package sqlstore executes mapped commands through database/sql. It
// serves SQLite (github.com/mattn/go-sqlite3, driver "sqlite3") and rqlite
// (github.com/rqlite/gorqlite/stdlib, driver "rqlite"); callers register
// the driver with a blank import and pass the opened *sql.DB.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/objmap/internal/core"
	"github.com/JonMunkholm/objmap/internal/logging"
	"github.com/JonMunkholm/objmap/internal/store"
)

// Driver names registered by the supported drivers.
const (
	DriverSQLite = "sqlite3"
	DriverRQLite = "rqlite"
)

// Conn is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var builder = store.Builder{Placeholder: store.Question}

// Store implements core.QueryProvider and core.QueryExecutor.
type Store struct {
	db          Conn
	distributed bool
}

// Option configures a Store.
type Option func(*Store)

// WithDistributedTx sets the process-wide default applied to
// core.MethodDefault commands.
func WithDistributedTx(enabled bool) Option {
	return func(s *Store) { s.distributed = enabled }
}

// New wraps db.
func New(db Conn, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCommand implements core.QueryProvider.
func (s *Store) NewCommand(meta *core.Metadata, kind core.QueryKind) (*core.Command, error) {
	return core.NewCommand(meta, kind), nil
}

// Execute implements core.QueryExecutor.
func (s *Store) Execute(ctx context.Context, cmd *core.Command, method core.CommunicationMethod) (core.Rows, error) {
	st, err := builder.Build(cmd)
	if err != nil {
		return nil, err
	}
	for i, a := range st.Args {
		st.Args[i] = sqlValue(a)
	}

	beginner, canBegin := s.db.(txBeginner)
	if !core.UsesDistributedTx(method, s.distributed) || !canBegin {
		return run(ctx, s.db, cmd, st)
	}

	tx, err := beginner.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if already committed

	rows, err := run(ctx, tx, cmd, st)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rows, nil
}

func run(ctx context.Context, db Conn, cmd *core.Command, st store.Statement) (core.Rows, error) {
	logging.FromContext(ctx).Debug("sqlstore statement", "kind", cmd.Kind.String(), "sql", st.SQL)

	switch cmd.Kind {
	case core.QuerySave:
		res, err := db.ExecContext(ctx, st.SQL, st.Args...)
		if err != nil {
			return nil, fmt.Errorf("save %s: %w", cmd.Table, err)
		}
		if !st.Insert {
			return core.Rows{{cmd.Key: cmd.KeyValue()}}, nil
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("save %s: generated key: %w", cmd.Table, err)
		}
		return core.Rows{{cmd.Key: id}}, nil

	case core.QueryDelete:
		if _, err := db.ExecContext(ctx, st.SQL, st.Args...); err != nil {
			return nil, fmt.Errorf("delete %s: %w", cmd.Table, err)
		}
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cmd.Kind, cmd.Table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out core.Rows
	for rows.Next() {
		row, err := scanRowToMap(rows, cols)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", cmd.Kind, cmd.Table, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// scanRowToMap scans the current row into a column map.
func scanRowToMap(rows *sql.Rows, cols []string) (core.Row, error) {
	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	out := make(core.Row, len(cols))
	for i, c := range cols {
		out[c] = normalizeSQLValue(raw[i])
	}
	return out, nil
}

// normalizeSQLValue turns driver byte slices into strings.
func normalizeSQLValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return v
	}
}

// sqlValue converts bound values the SQLite drivers do not accept.
func sqlValue(v any) any {
	switch t := v.(type) {
	case uuid.UUID:
		return t.String()
	default:
		return v
	}
}
