package billing

// Schema DDL for the SQL stores. Statements are idempotent and applied in
// order at startup.

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		"ID" BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		"ID" BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts("ID"),
		name TEXT NOT NULL,
		email TEXT,
		external_id UUID NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		"ID" BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customers("ID"),
		number TEXT NOT NULL UNIQUE,
		amount NUMERIC(14,2) NOT NULL,
		issued_at TIMESTAMPTZ NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		"ID" BIGSERIAL PRIMARY KEY,
		invoice_id BIGINT NOT NULL REFERENCES invoices("ID"),
		amount NUMERIC(14,2) NOT NULL,
		reference TEXT NOT NULL UNIQUE,
		received_at TIMESTAMPTZ
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		"ID" INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		"ID" INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL REFERENCES accounts("ID"),
		name TEXT NOT NULL,
		email TEXT,
		external_id TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		"ID" INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL REFERENCES customers("ID"),
		number TEXT NOT NULL UNIQUE,
		amount REAL NOT NULL,
		issued_at TIMESTAMP NOT NULL,
		paid BOOLEAN NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		"ID" INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id INTEGER NOT NULL REFERENCES invoices("ID"),
		amount REAL NOT NULL,
		reference TEXT NOT NULL UNIQUE,
		received_at TIMESTAMP
	)`,
}

// Schema returns the DDL for a SQL dialect: "postgres", or "sqlite" which
// also serves rqlite. Other dialects get nil.
func Schema(dialect string) []string {
	switch dialect {
	case "postgres":
		return postgresSchema
	case "sqlite", "rqlite":
		return sqliteSchema
	}
	return nil
}
