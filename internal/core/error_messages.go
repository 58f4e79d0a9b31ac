package core

// # Error Codes Reference
//
// Every classified failure carries a code so operators can trace a message
// shown to a user back to its cause. Codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this key already exists
//	        Patterns: "duplicate key"
//	DB002 - Unique constraint: A value that must be unique already exists
//	        Patterns: "unique constraint", "violates unique"
//	DB003 - Foreign key: The record is referenced or references a missing record
//	        Patterns: "foreign key"
//	DB004 - Not null: A required column was stored as null
//	        Patterns: "not null constraint", "violates not-null"
//	DB005 - Connection refused: Unable to connect to the store
//	        Patterns: "connection refused"
//	DB006 - Connection reset: The store connection was interrupted
//	        Patterns: "connection reset", "broken pipe"
//	DB007 - Timeout: Operation timed out
//	        Patterns: "timeout", "context deadline exceeded"
//	DB008 - Deadlock: The store was busy with conflicting operations
//	        Patterns: "deadlock", "database is locked"
//	DB009 - Cancelled: The request was cancelled
//	        Patterns: "context canceled"
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - Not found: The requested object does not exist
//	         Patterns: "object not found"
//	MAP002 - Unknown member: The member is not declared on the type
//	         Patterns: "unknown member"
//	MAP003 - Unknown type: No manager is available for the type
//	         Patterns: "unknown type"
//	MAP004 - Bad path: The member path is malformed or too deep
//	         Patterns: "invalid path", "path too deep"
//	MAP005 - Missing reference: The object does not declare that reference
//	         Patterns: "no such reference"
//	MAP006 - Declined: A warning was raised and not accepted
//	         Patterns: "warning declined"
//	MAP007 - Configuration: The type mapping is invalid
//	         Patterns: "mapping configuration"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// # Pattern Matching
//
// Patterns are matched case-insensitively using strings.Contains. The first
// matching pattern wins, so more specific patterns come first.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgDuplicate  = UserMessage{Message: "A record with this key already exists", Action: "Load the existing record instead of creating a new one", Code: "DB001"}
	msgUnique     = UserMessage{Message: "A value that must be unique already exists", Action: "Change the value and save again", Code: "DB002"}
	msgForeignKey = UserMessage{Message: "The record is referenced or references a missing record", Action: "Remove or create the related records first", Code: "DB003"}
	msgNotNull    = UserMessage{Message: "A required value is missing", Action: "Fill in all required values", Code: "DB004"}
	msgRefused    = UserMessage{Message: "Unable to connect to the store", Action: "Please try again in a few moments", Code: "DB005"}
	msgReset      = UserMessage{Message: "The store connection was interrupted", Action: "Please try again", Code: "DB006"}
	msgTimeout    = UserMessage{Message: "Operation timed out", Action: "Please try again later", Code: "DB007"}
	msgDeadlock   = UserMessage{Message: "The store was busy with conflicting operations", Action: "Please try again", Code: "DB008"}
	msgCancelled  = UserMessage{Message: "The request was cancelled", Action: "Please try again", Code: "DB009"}

	msgNotFound   = UserMessage{Message: "The requested object does not exist", Action: "Check the key and try again", Code: "MAP001"}
	msgMember     = UserMessage{Message: "The member is not declared on this type", Action: "Check the member name", Code: "MAP002"}
	msgType       = UserMessage{Message: "No manager is available for this type", Action: "Register the type or a factory for it", Code: "MAP003"}
	msgPath       = UserMessage{Message: "The member path is malformed or too deep", Action: "Use dot separated member names", Code: "MAP004"}
	msgReference  = UserMessage{Message: "The object does not declare that reference", Action: "Check the reference name", Code: "MAP005"}
	msgDeclined   = UserMessage{Message: "The operation was stopped after a warning", Action: "Review the warning and retry", Code: "MAP006"}
	msgMapConfig  = UserMessage{Message: "The type mapping is invalid", Action: "Fix the type registration", Code: "MAP007"}
	msgValue      = UserMessage{Message: "The value does not fit the member", Action: "Check the value's type and format", Code: "MAP008"}
)

var errorPatterns = []errorPattern{
	// Database constraint errors
	{pattern: "duplicate key", msg: msgDuplicate},
	{pattern: "unique constraint", msg: msgUnique},
	{pattern: "violates unique", msg: msgUnique},
	{pattern: "foreign key", msg: msgForeignKey},
	{pattern: "not null constraint", msg: msgNotNull},
	{pattern: "violates not-null", msg: msgNotNull},

	// Connectivity
	{pattern: "connection refused", msg: msgRefused},
	{pattern: "connection reset", msg: msgReset},
	{pattern: "broken pipe", msg: msgReset},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{pattern: "timeout", msg: msgTimeout},
	{pattern: "deadlock", msg: msgDeadlock},
	{pattern: "database is locked", msg: msgDeadlock},
	{pattern: "context canceled", msg: msgCancelled},

	// Mapping engine
	{pattern: "mapping configuration", msg: msgMapConfig},
	{pattern: "object not found", msg: msgNotFound},
	{pattern: "unknown member", msg: msgMember},
	{pattern: "unknown type", msg: msgType},
	{pattern: "invalid path", msg: msgPath},
	{pattern: "path too deep", msg: msgPath},
	{pattern: "no such reference", msg: msgReference},
	{pattern: "warning declined", msg: msgDeclined},
	{pattern: "invalid member value", msg: msgValue},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. The first
// matching pattern wins; ERR000 is returned when nothing matches.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing returns true if the error maps to a known code.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
