package pgstore

// convert.go maps member values to pgtype values on the way in and pgx
// decoded values back to member representations on the way out.
//
// Bound values are already null-normalised by the manager: nil is a
// storage null and everything else is a valid value. pgtype wrappers make
// the column types explicit to the server for untyped placeholders.

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ToPgText converts a string to pgtype.Text.
func ToPgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

// ToPgInt8 converts an integer to pgtype.Int8.
func ToPgInt8(i int64) pgtype.Int8 {
	return pgtype.Int8{Int64: i, Valid: true}
}

// ToPgFloat8 converts a float to pgtype.Float8.
func ToPgFloat8(f float64) pgtype.Float8 {
	return pgtype.Float8{Float64: f, Valid: true}
}

// ToPgBool converts a bool to pgtype.Bool.
func ToPgBool(b bool) pgtype.Bool {
	return pgtype.Bool{Bool: b, Valid: true}
}

// ToPgTimestamptz converts a time to pgtype.Timestamptz. The zero time is
// invalid.
func ToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// ToPgUUID converts a uuid to pgtype.UUID. uuid.Nil is invalid.
func ToPgUUID(u uuid.UUID) pgtype.UUID {
	if u == uuid.Nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: u, Valid: true}
}

// pgValue wraps a bound member value. Unknown types pass through for pgx
// to encode.
func pgValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return ToPgText(t)
	case int:
		return ToPgInt8(int64(t))
	case int32:
		return pgtype.Int4{Int32: t, Valid: true}
	case int64:
		return ToPgInt8(t)
	case float64:
		return ToPgFloat8(t)
	case bool:
		return ToPgBool(t)
	case time.Time:
		return ToPgTimestamptz(t)
	case uuid.UUID:
		return ToPgUUID(t)
	case *string:
		return ToPgText(*t)
	case *int:
		return ToPgInt8(int64(*t))
	case *int64:
		return ToPgInt8(*t)
	case *float64:
		return ToPgFloat8(*t)
	case *bool:
		return ToPgBool(*t)
	case *time.Time:
		return ToPgTimestamptz(*t)
	default:
		return v
	}
}

// fromPg converts values decoded by rows.Values into types the core
// coercion understands.
func fromPg(v any) any {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t)
	case pgtype.Numeric:
		if !t.Valid {
			return nil
		}
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	default:
		return v
	}
}
