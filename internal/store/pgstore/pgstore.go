// Package pgstore executes mapped commands against PostgreSQL through pgx.
package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/objmap/internal/core"
	"github.com/JonMunkholm/objmap/internal/logging"
	"github.com/JonMunkholm/objmap/internal/store"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// TxBeginner is implemented by pools and connections that can open a
// transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

var builder = store.Builder{Placeholder: store.Dollar, Returning: true}

// Store implements core.QueryProvider and core.QueryExecutor.
type Store struct {
	db          DBTX
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
func New(db DBTX, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCommand implements core.QueryProvider. Statement text is rendered at
// execution time from the bound parameters.
func (s *Store) NewCommand(meta *core.Metadata, kind core.QueryKind) (*core.Command, error) {
	return core.NewCommand(meta, kind), nil
}

// Execute implements core.QueryExecutor. Commands whose method asks for a
// distributed transaction run inside one when the connection can begin it.
func (s *Store) Execute(ctx context.Context, cmd *core.Command, method core.CommunicationMethod) (core.Rows, error) {
	st, err := builder.Build(cmd)
	if err != nil {
		return nil, err
	}
	for i, a := range st.Args {
		st.Args[i] = pgValue(a)
	}

	beginner, canBegin := s.db.(TxBeginner)
	if !core.UsesDistributedTx(method, s.distributed) || !canBegin {
		return run(ctx, s.db, cmd, st)
	}

	tx, err := beginner.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	rows, err := run(ctx, tx, cmd, st)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rows, nil
}

func run(ctx context.Context, db DBTX, cmd *core.Command, st store.Statement) (core.Rows, error) {
	logging.FromContext(ctx).Debug("pgstore statement", "kind", cmd.Kind.String(), "sql", st.SQL)

	if cmd.Kind == core.QueryDelete {
		tag, err := db.Exec(ctx, st.SQL, st.Args...)
		if err != nil {
			return nil, fmt.Errorf("delete %s: %w", cmd.Table, err)
		}
		logging.FromContext(ctx).Debug("pgstore delete", "table", cmd.Table, "rows_affected", tag.RowsAffected())
		return nil, nil
	}

	rows, err := db.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cmd.Kind, cmd.Table, err)
	}
	defer rows.Close()

	out, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cmd.Kind, cmd.Table, err)
	}

	// DO NOTHING upserts return no row; report the bound key instead.
	if cmd.Kind == core.QuerySave && len(out) == 0 && !st.Insert {
		out = core.Rows{{cmd.Key: cmd.KeyValue()}}
	}
	return out, nil
}

// collect reads every row into column maps.
func collect(rows pgx.Rows) (core.Rows, error) {
	fields := rows.FieldDescriptions()
	var out core.Rows
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(core.Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = fromPg(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
