package sqlstore_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/objmap/internal/core"
	"github.com/JonMunkholm/objmap/internal/store/sqlstore"
)

type gadget struct {
	ID     int
	Name   string
	Price  float64
	Made   time.Time
	Serial uuid.UUID
}

var gadgetSpec = core.TypeSpec{
	Name:   "Gadget",
	Table:  "gadgets",
	Parent: &core.BusinessObjectSpec,
	New:    func() core.Entity { return &gadget{} },
	Fields: []core.FieldSpec{
		core.Key(core.Field("ID", "id", func(e core.Entity) *int { return &e.(*gadget).ID })),
		core.Field("Name", "name", func(e core.Entity) *string { return &e.(*gadget).Name }),
		core.Field("Price", "price", func(e core.Entity) *float64 { return &e.(*gadget).Price }),
		core.Field("Made", "made", func(e core.Entity) *time.Time { return &e.(*gadget).Made }),
		core.Field("Serial", "serial", func(e core.Entity) *uuid.UUID { return &e.(*gadget).Serial }),
	},
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE gadgets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT,
		price REAL,
		made TIMESTAMP,
		serial TEXT
	)`)
	require.NoError(t, err)
	return db
}

func newManager(t *testing.T, db *sql.DB, caching bool) *core.Manager {
	t.Helper()
	s := sqlstore.New(db)
	dir := core.NewDirectory(core.Options{CacheEnabled: caching, Provider: s, Executor: s})
	require.NoError(t, dir.Register(gadgetSpec))
	m, err := dir.Manager("Gadget")
	require.NoError(t, err)
	return m
}

func TestSQLite_SaveAndLoad(t *testing.T) {
	db := openDB(t)
	m := newManager(t, db, false)
	ctx := context.Background()

	made := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	serial := uuid.New()

	g := m.CreateObject().(*gadget)
	g.Name = "sprocket"
	g.Price = 4.25
	g.Made = made
	g.Serial = serial

	ok, err := m.SaveObject(ctx, g)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, g.ID, "generated key is written back")

	obj, err := m.GetObject(ctx, 1)
	require.NoError(t, err)
	loaded := obj.(*gadget)
	assert.NotSame(t, g, loaded, "caching disabled returns fresh instances")
	assert.Equal(t, "sprocket", loaded.Name)
	assert.Equal(t, 4.25, loaded.Price)
	assert.True(t, made.Equal(loaded.Made))
	assert.Equal(t, serial, loaded.Serial)
}

func TestSQLite_NullSentinels(t *testing.T) {
	db := openDB(t)
	m := newManager(t, db, false)
	ctx := context.Background()

	g := m.CreateObject().(*gadget)
	g.Price = -1
	g.Made = time.Time{}
	_, err := m.SaveObject(ctx, g)
	require.NoError(t, err)

	var name, made, serial sql.NullString
	require.NoError(t, db.QueryRow(`SELECT name, made, serial FROM gadgets WHERE id = ?`, g.ID).Scan(&name, &made, &serial))
	assert.False(t, name.Valid, "empty string is stored as null")
	assert.False(t, made.Valid, "zero time is stored as null")
	assert.False(t, serial.Valid, "nil uuid is stored as null")

	obj, err := m.GetObject(ctx, g.ID)
	require.NoError(t, err)
	loaded := obj.(*gadget)
	assert.Equal(t, "", loaded.Name)
	assert.True(t, loaded.Made.IsZero())
	assert.Equal(t, uuid.Nil, loaded.Serial)
	assert.Equal(t, -1.0, loaded.Price)
}

func TestSQLite_UpdateAndDelete(t *testing.T) {
	db := openDB(t)
	m := newManager(t, db, true)
	ctx := context.Background()

	g := m.CreateObject().(*gadget)
	g.Name = "gear"
	_, err := m.SaveObject(ctx, g)
	require.NoError(t, err)

	g.Name = "cog"
	_, err = m.SaveObject(ctx, g)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM gadgets`).Scan(&count))
	assert.Equal(t, 1, count, "saving a persisted object updates in place")

	rows, err := m.LoadObjects(ctx, "Name", "cog")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "cog", rows[0]["name"])

	ok, err := m.DeleteObject(ctx, g)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, m.CachedCount())

	_, err = m.GetObject(ctx, g.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLite_DistributedTx(t *testing.T) {
	db := openDB(t)
	s := sqlstore.New(db, sqlstore.WithDistributedTx(true))
	dir := core.NewDirectory(core.Options{Provider: s, Executor: s})
	require.NoError(t, dir.Register(gadgetSpec))
	m, err := dir.Manager("Gadget")
	require.NoError(t, err)
	ctx := context.Background()

	g := m.CreateObject().(*gadget)
	g.Name = "tx"
	ok, err := m.SaveObjectVia(ctx, core.MethodDefault, g)
	require.NoError(t, err)
	require.True(t, ok)

	objs, err := m.LoadAndRestore(ctx, core.LoadOptions{Method: core.MethodNotUseMSDTC})
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}

func TestSQLite_ConstraintError(t *testing.T) {
	db := openDB(t)
	_, err := db.Exec(`CREATE UNIQUE INDEX gadgets_name ON gadgets(name)`)
	require.NoError(t, err)
	m := newManager(t, db, false)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		g := m.CreateObject().(*gadget)
		g.Name = "dup"
		ok, err := m.SaveObject(ctx, g)
		if i == 0 {
			require.NoError(t, err)
			require.True(t, ok)
			continue
		}
		assert.False(t, ok)
		var se *core.StorageError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "DB002", se.Code)
		assert.Equal(t, "Values you've entered are either empty or invalid", se.Message)
	}
}
