// Package store holds what the SQL-backed executors share: statement
// generation from bound commands and identifier quoting.
package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/objmap/internal/core"
)

// ErrNoKey is returned when a key or delete command has no bound key.
var ErrNoKey = errors.New("primary key not bound")

// Statement is generated SQL plus its arguments in placeholder order.
type Statement struct {
	SQL  string
	Args []any

	// Insert is set for saves without a key; the store must report the
	// generated key.
	Insert bool
}

// Builder renders commands for one SQL dialect.
type Builder struct {
	// Placeholder renders the n-th (1-based) parameter.
	Placeholder func(n int) string

	// Returning appends RETURNING <key> to saves.
	Returning bool
}

// Dollar renders PostgreSQL placeholders.
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Question renders SQLite placeholders.
func Question(int) string { return "?" }

// Build renders cmd. Loads select every mapped column; a filter parameter
// bound to nil becomes IS NULL.
func (b Builder) Build(cmd *core.Command) (Statement, error) {
	if cmd.Table == "" {
		return Statement{}, fmt.Errorf("command %s has no table", cmd.Kind)
	}

	switch cmd.Kind {
	case core.QueryLoadByKey:
		key, ok := cmd.Param(cmd.Key)
		if !ok || key == nil {
			return Statement{}, fmt.Errorf("load %s: %w", cmd.Table, ErrNoKey)
		}
		return Statement{
			SQL:  b.selectFrom(cmd) + " WHERE " + QuoteIdentifier(cmd.Key) + " = " + b.Placeholder(1),
			Args: []any{key},
		}, nil

	case core.QueryLoadByFilter:
		var (
			conds []string
			args  []any
		)
		for _, p := range cmd.Params {
			if p.Value == nil {
				conds = append(conds, QuoteIdentifier(p.Column)+" IS NULL")
				continue
			}
			args = append(args, p.Value)
			conds = append(conds, QuoteIdentifier(p.Column)+" = "+b.Placeholder(len(args)))
		}
		sql := b.selectFrom(cmd)
		if len(conds) > 0 {
			sql += " WHERE " + strings.Join(conds, " AND ")
		}
		return Statement{SQL: sql + b.orderBy(cmd), Args: args}, nil

	case core.QueryLoadUnfiltered:
		return Statement{SQL: b.selectFrom(cmd) + b.orderBy(cmd)}, nil

	case core.QuerySave:
		return b.save(cmd)

	case core.QueryDelete:
		key, ok := cmd.Param(cmd.Key)
		if !ok || key == nil {
			return Statement{}, fmt.Errorf("delete %s: %w", cmd.Table, ErrNoKey)
		}
		return Statement{
			SQL:  "DELETE FROM " + QuoteIdentifier(cmd.Table) + " WHERE " + QuoteIdentifier(cmd.Key) + " = " + b.Placeholder(1),
			Args: []any{key},
		}, nil
	}
	return Statement{}, fmt.Errorf("unsupported command kind %s", cmd.Kind)
}

// save renders an INSERT when the key is unbound or null, otherwise an
// upsert on the key.
func (b Builder) save(cmd *core.Command) (Statement, error) {
	key, _ := cmd.Param(cmd.Key)
	insert := key == nil

	var (
		cols []string
		args []any
		ph   []string
	)
	for _, p := range cmd.Params {
		if insert && p.Column == cmd.Key {
			continue
		}
		cols = append(cols, p.Column)
		args = append(args, p.Value)
		ph = append(ph, b.Placeholder(len(args)))
	}

	table := QuoteIdentifier(cmd.Table)
	var sql string
	if len(cols) == 0 {
		sql = "INSERT INTO " + table + " DEFAULT VALUES"
	} else {
		sql = "INSERT INTO " + table + " (" + strings.Join(QuoteColumns(cols), ", ") + ") VALUES (" + strings.Join(ph, ", ") + ")"
	}

	if !insert {
		var sets []string
		for _, c := range cols {
			if c == cmd.Key {
				continue
			}
			q := QuoteIdentifier(c)
			sets = append(sets, q+" = EXCLUDED."+q)
		}
		sql += " ON CONFLICT (" + QuoteIdentifier(cmd.Key) + ")"
		if len(sets) == 0 {
			sql += " DO NOTHING"
		} else {
			sql += " DO UPDATE SET " + strings.Join(sets, ", ")
		}
	}

	if b.Returning {
		sql += " RETURNING " + QuoteIdentifier(cmd.Key)
	}
	return Statement{SQL: sql, Args: args, Insert: insert}, nil
}

func (b Builder) selectFrom(cmd *core.Command) string {
	cols := cmd.Columns
	if len(cols) == 0 {
		return "SELECT * FROM " + QuoteIdentifier(cmd.Table)
	}
	return "SELECT " + strings.Join(QuoteColumns(cols), ", ") + " FROM " + QuoteIdentifier(cmd.Table)
}

func (b Builder) orderBy(cmd *core.Command) string {
	if cmd.Key == "" {
		return ""
	}
	return " ORDER BY " + QuoteIdentifier(cmd.Key)
}

// QuoteIdentifier quotes a SQL identifier to prevent injection.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteColumns quotes each column name in the slice.
func QuoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = QuoteIdentifier(col)
	}
	return quoted
}
