package pgstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/objmap/internal/core"
)

type call struct {
	sql  string
	args []any
}

// fakeDB records statements. Query always fails with queryErr.
type fakeDB struct {
	calls    []call
	queryErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql, args})
	return pgconn.NewCommandTag("DELETE 1"), nil
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.calls = append(f.calls, call{sql, args})
	return nil, f.queryErr
}

func (f *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return nil
}

func TestExecute_Delete(t *testing.T) {
	db := &fakeDB{}
	s := New(db)

	cmd := &core.Command{Kind: core.QueryDelete, Table: "Invoice", Key: "ID"}
	cmd.Bind("ID", 12)

	rows, err := s.Execute(context.Background(), cmd, core.MethodDefault)
	require.NoError(t, err)
	assert.Nil(t, rows)

	require.Len(t, db.calls, 1)
	assert.Equal(t, `DELETE FROM "Invoice" WHERE "ID" = $1`, db.calls[0].sql)
	assert.Equal(t, []any{pgtype.Int8{Int64: 12, Valid: true}}, db.calls[0].args)
}

func TestExecute_QueryErrorKeepsPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "invoice_number_key"`}
	db := &fakeDB{queryErr: pgErr}
	s := New(db, WithDistributedTx(true))

	cmd := &core.Command{Kind: core.QuerySave, Table: "Invoice", Key: "ID", Columns: []string{"ID", "Number"}}
	cmd.Bind("ID", nil)
	cmd.Bind("Number", "INV-1")

	// fakeDB cannot begin a transaction, so the command runs directly.
	_, err := s.Execute(context.Background(), cmd, core.MethodUseMSDTC)
	require.Error(t, err)

	var got *pgconn.PgError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, "23505", got.Code)

	se := core.Classify(nil, core.ActionSaveObject, err)
	assert.Equal(t, err.Error(), se.Message, "driver errors keep their own message")
	assert.Equal(t, "DB001", se.Code)
}

func TestExecute_BuildError(t *testing.T) {
	s := New(&fakeDB{})
	cmd := &core.Command{Kind: core.QueryLoadByKey, Table: "Invoice", Key: "ID"}

	_, err := s.Execute(context.Background(), cmd, core.MethodDefault)
	assert.Error(t, err)
}

func TestPgValue(t *testing.T) {
	id := uuid.New()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	name := "acme"

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "acme", pgtype.Text{String: "acme", Valid: true}},
		{"int", 7, pgtype.Int8{Int64: 7, Valid: true}},
		{"int32", int32(7), pgtype.Int4{Int32: 7, Valid: true}},
		{"float", 1.5, pgtype.Float8{Float64: 1.5, Valid: true}},
		{"bool", true, pgtype.Bool{Bool: true, Valid: true}},
		{"time", now, pgtype.Timestamptz{Time: now, Valid: true}},
		{"uuid", id, pgtype.UUID{Bytes: id, Valid: true}},
		{"nil uuid", uuid.Nil, pgtype.UUID{Valid: false}},
		{"string pointer", &name, pgtype.Text{String: "acme", Valid: true}},
		{"passthrough", []byte("x"), []byte("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pgValue(tt.in))
		})
	}
}

func TestFromPg(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id, fromPg([16]byte(id)))

	var n pgtype.Numeric
	require.NoError(t, n.Scan("12.50"))
	assert.Equal(t, 12.5, fromPg(n))

	assert.Nil(t, fromPg(pgtype.Numeric{}))
	assert.Equal(t, int32(4), fromPg(int32(4)))
}
