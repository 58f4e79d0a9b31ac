package core

// nulls.go implements the in-band null sentinels.
//
// Value members cannot tell "no value" from a zero-like value once boxed,
// so each such kind reserves one sentinel that stands for a storage null:
//
//	string  ""
//	int     math.MinInt     (int32 and int64 use their own minimums)
//	float   -math.MaxFloat64
//	time    time.Time{}     (0001-01-01 UTC)
//	uuid    uuid.Nil
//
// Loads turn storage nulls into the sentinel; saves turn sentinels back into
// storage nulls before binding.

import (
	"math"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// NullInt is the sentinel for int members.
const NullInt = math.MinInt

// IsNull reports whether v is a storage null or one of the sentinels.
func IsNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case int:
		return t == math.MinInt
	case int32:
		return t == math.MinInt32
	case int64:
		return t == math.MinInt64
	case float64:
		return t == -math.MaxFloat64
	case time.Time:
		return t.IsZero()
	case uuid.UUID:
		return t == uuid.Nil
	case *string:
		return t == nil
	case *int:
		return t == nil
	case *int32:
		return t == nil
	case *int64:
		return t == nil
	case *float64:
		return t == nil
	case *bool:
		return t == nil
	case *time.Time:
		return t == nil
	case *uuid.UUID:
		return t == nil
	}
	return false
}

// GetCorrectNull returns the canonical null for a kind. Bool has no
// sentinel and yields false, which IsNull does not recognise.
func GetCorrectNull(k Kind) any {
	switch k {
	case KindString:
		return ""
	case KindInt:
		return int(math.MinInt)
	case KindInt32:
		return int32(math.MinInt32)
	case KindInt64:
		return int64(math.MinInt64)
	case KindFloat:
		return -math.MaxFloat64
	case KindBool:
		return false
	case KindTime:
		return time.Time{}
	case KindUUID:
		return uuid.Nil
	default:
		return nil
	}
}

// HasSentinel reports whether k reserves an in-band null.
func HasSentinel(k Kind) bool {
	return k != KindBool
}

// storageValue converts a member value to what gets bound for storage.
// Pointer members are bound by value so executors never hold an object's
// memory.
func storageValue(v any) any {
	if IsNull(v) {
		return nil
	}
	return deref(v)
}

// deref returns the value behind a pointer member, nil for a nil pointer.
// Other values are returned as is.
func deref(v any) any {
	switch t := v.(type) {
	case *string:
		return derefPtr(t)
	case *int:
		return derefPtr(t)
	case *int32:
		return derefPtr(t)
	case *int64:
		return derefPtr(t)
	case *float64:
		return derefPtr(t)
	case *bool:
		return derefPtr(t)
	case *time.Time:
		return derefPtr(t)
	case *uuid.UUID:
		return derefPtr(t)
	}
	return v
}

func derefPtr[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// equalMember reports whether two member values are equal once pointers are
// dereferenced. Times compare by instant.
func equalMember(a, b any) bool {
	a, b = deref(a), deref(b)
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}
