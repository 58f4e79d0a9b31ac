package core

// convert.go coerces values coming out of a store into member types.
//
// Stores disagree on representation: SQLite hands back int64 and []byte,
// pgx hands back int32 for int4 and [16]byte for uuid, the memory store
// keeps whatever was bound. Field setters built with Field funnel all of
// them through assign so domain types only declare a pointer accessor.

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Field builds a FieldSpec from a pointer accessor. The kind is derived
// from T.
func Field[T any](member, column string, ptr func(Entity) *T) FieldSpec {
	var zero T
	return FieldSpec{
		Member: member,
		Column: column,
		Kind:   kindOf(any(&zero)),
		Get:    func(e Entity) any { return *ptr(e) },
		Set:    func(e Entity, v any) error { return assign(ptr(e), v) },
	}
}

// Key marks a field as the primary key.
func Key(f FieldSpec) FieldSpec {
	f.PrimaryKey = true
	return f
}

// Generated marks a field as produced by storage.
func Generated(f FieldSpec) FieldSpec {
	f.Generated = true
	return f
}

func kindOf(dst any) Kind {
	switch dst.(type) {
	case *string:
		return KindString
	case *int:
		return KindInt
	case *int32:
		return KindInt32
	case *int64:
		return KindInt64
	case *float64:
		return KindFloat
	case *bool:
		return KindBool
	case *time.Time:
		return KindTime
	case *uuid.UUID:
		return KindUUID
	case **string, **int, **int32, **int64, **float64, **bool, **time.Time, **uuid.UUID:
		return KindNullable
	default:
		return KindUnsupported
	}
}

// assign stores v into dst, converting between compatible representations.
func assign(dst, v any) error {
	switch d := dst.(type) {
	case *string:
		s, err := toString(v)
		if err != nil {
			return err
		}
		*d = s
	case *int:
		i, err := toInt64(v, math.MinInt)
		if err != nil {
			return err
		}
		*d = int(i)
	case *int32:
		i, err := toInt64(v, math.MinInt32)
		if err != nil {
			return err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return fmt.Errorf("value %d overflows int32", i)
		}
		*d = int32(i)
	case *int64:
		i, err := toInt64(v, math.MinInt64)
		if err != nil {
			return err
		}
		*d = i
	case *float64:
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		*d = f
	case *bool:
		b, err := toBool(v)
		if err != nil {
			return err
		}
		*d = b
	case *time.Time:
		t, err := toTime(v)
		if err != nil {
			return err
		}
		*d = t
	case *uuid.UUID:
		u, err := toUUID(v)
		if err != nil {
			return err
		}
		*d = u
	case **string:
		return assignPtr(d, v)
	case **int:
		return assignPtr(d, v)
	case **int32:
		return assignPtr(d, v)
	case **int64:
		return assignPtr(d, v)
	case **float64:
		return assignPtr(d, v)
	case **bool:
		return assignPtr(d, v)
	case **time.Time:
		return assignPtr(d, v)
	case **uuid.UUID:
		return assignPtr(d, v)
	default:
		return fmt.Errorf("unsupported destination %T", dst)
	}
	return nil
}

func assignPtr[T any](d **T, v any) error {
	if v == nil {
		*d = nil
		return nil
	}
	if p, ok := v.(*T); ok {
		*d = p
		return nil
	}
	n := new(T)
	if err := assign(n, v); err != nil {
		return err
	}
	*d = n
	return nil
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", v)
	}
}

func toInt64(v any, null int64) (int64, error) {
	switch t := v.(type) {
	case nil:
		return null, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint32:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", v)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return -math.MaxFloat64, nil
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(t, 64)
	case []byte:
		return strconv.ParseFloat(string(t), 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case int64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case string:
		return strconv.ParseBool(t)
	case []byte:
		return strconv.ParseBool(string(t))
	default:
		return false, fmt.Errorf("cannot convert %T to bool", v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
	}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func toUUID(v any) (uuid.UUID, error) {
	switch t := v.(type) {
	case nil:
		return uuid.Nil, nil
	case uuid.UUID:
		return t, nil
	case [16]byte:
		return uuid.UUID(t), nil
	case string:
		if t == "" {
			return uuid.Nil, nil
		}
		return uuid.Parse(t)
	case []byte:
		if len(t) == 16 {
			return uuid.FromBytes(t)
		}
		return uuid.ParseBytes(t)
	default:
		return uuid.Nil, fmt.Errorf("cannot convert %T to uuid", v)
	}
}

// coerce converts v to the Go type used for kind k.
func coerce(k Kind, v any) (any, error) {
	var dst any
	switch k {
	case KindString:
		dst = new(string)
	case KindInt:
		dst = new(int)
	case KindInt32:
		dst = new(int32)
	case KindInt64:
		dst = new(int64)
	case KindFloat:
		dst = new(float64)
	case KindBool:
		dst = new(bool)
	case KindTime:
		dst = new(time.Time)
	case KindUUID:
		dst = new(uuid.UUID)
	default:
		return v, nil
	}
	if err := assign(dst, v); err != nil {
		return nil, err
	}
	switch d := dst.(type) {
	case *string:
		return *d, nil
	case *int:
		return *d, nil
	case *int32:
		return *d, nil
	case *int64:
		return *d, nil
	case *float64:
		return *d, nil
	case *bool:
		return *d, nil
	case *time.Time:
		return *d, nil
	default:
		return *(dst.(*uuid.UUID)), nil
	}
}
