package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("object not found")
	ErrUnknownType     = errors.New("unknown type")
	ErrUnknownMember   = errors.New("unknown member")
	ErrNoReference     = errors.New("no such reference")
	ErrInvalidPath     = errors.New("invalid path")
	ErrPathTooDeep     = errors.New("path too deep")
	ErrWarningDeclined = errors.New("warning declined")
	ErrInvalidValue    = errors.New("invalid member value")
	ErrUnbound         = errors.New("object is not bound to a manager")
)

// ConfigError reports an unusable type registration. It is fatal for the
// type and never retried.
type ConfigError struct {
	Type   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Type == "" {
		return "mapping configuration: " + e.Reason
	}
	return fmt.Sprintf("mapping configuration: %s: %s", e.Type, e.Reason)
}

// BusinessRuleError is raised by domain code and passed to callers and
// failure sinks without message substitution.
type BusinessRuleError struct {
	Type    string
	Message string
	Err     error
}

// NewBusinessRuleError builds a pass-through error for typeName.
func NewBusinessRuleError(typeName, format string, args ...any) *BusinessRuleError {
	return &BusinessRuleError{Type: typeName, Message: fmt.Sprintf(format, args...)}
}

func (e *BusinessRuleError) Error() string { return e.Message }

func (e *BusinessRuleError) Unwrap() error { return e.Err }

// StorageError is a classified failure of a storage call.
type StorageError struct {
	Type    string
	Action  Action
	Message string // Message shown to users
	Code    string // Code from the pattern table
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Type, e.Action, e.Message, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// sqlStater is implemented by driver errors that carry a SQLSTATE, such as
// *pgconn.PgError.
type sqlStater interface {
	SQLState() string
}

// Classify wraps err for the given type and action. Business-rule and
// driver errors keep their own message; anything else gets the type's
// message for the action, or the generic message when the type declares
// none.
//
// An error already classified for the same action is returned unchanged.
// One classified for another action, such as a load failing inside a
// Delete override, is wrapped again for the outer action; it keeps the
// inner code and the inner message unless the outer type declares one.
func Classify(meta *Metadata, action Action, err error) *StorageError {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		if se.Action == action {
			return se
		}
		return reclassify(meta, action, se)
	}

	user := MapError(err)
	out := &StorageError{Action: action, Code: user.Code, Err: err}
	if meta != nil {
		out.Type = meta.Type
	}

	var br *BusinessRuleError
	var st sqlStater
	switch {
	case errors.As(err, &br):
		out.Message = br.Message
	case errors.As(err, &st):
		out.Message = err.Error()
	case meta != nil && meta.Messages.Get(action) != "":
		out.Message = meta.Messages.Get(action)
	default:
		out.Message = user.Message
	}
	return out
}

func reclassify(meta *Metadata, action Action, inner *StorageError) *StorageError {
	out := &StorageError{Action: action, Code: inner.Code, Message: inner.Message, Err: inner}
	if meta != nil {
		out.Type = meta.Type
		var st sqlStater
		if msg := meta.Messages.Get(action); msg != "" && !IsBusinessRule(inner) && !errors.As(inner, &st) {
			out.Message = msg
		}
	}
	return out
}

// IsBusinessRule reports whether err carries a pass-through business error.
func IsBusinessRule(err error) bool {
	var br *BusinessRuleError
	return errors.As(err, &br)
}
