package core

import (
	"context"
	"fmt"
)

// Entity is a mapped in-memory object, always a pointer to a struct.
type Entity = any

// Kind identifies how a member's value is represented and which null
// sentinel stands for a storage null.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindInt32
	KindInt64
	KindFloat
	KindBool
	KindTime
	KindUUID
	KindNullable // pointer members, null is nil
	KindUnsupported
)

var kindNames = [...]string{"string", "int", "int32", "int64", "float", "bool", "time", "uuid", "nullable", "unsupported"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Action is the operation being performed when a failure occurs.
type Action int

const (
	ActionUnknown Action = iota
	ActionLoadObject
	ActionLoadObjects
	ActionSaveObject
	ActionDeleteObject

	actionCount
)

var actionNames = [...]string{"unknown", "load_object", "load_objects", "save_object", "delete_object"}

func (a Action) String() string {
	if a >= 0 && a < actionCount {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// CommunicationMethod is an opaque hint forwarded to the query executor.
type CommunicationMethod int

const (
	MethodDefault CommunicationMethod = iota
	MethodUseMSDTC
	MethodNotUseMSDTC
)

func (m CommunicationMethod) String() string {
	switch m {
	case MethodUseMSDTC:
		return "use_msdtc"
	case MethodNotUseMSDTC:
		return "not_use_msdtc"
	default:
		return "default"
	}
}

// UsesDistributedTx reports whether an executor should wrap the command in a
// distributed transaction. MethodDefault follows the process-wide setting.
func UsesDistributedTx(method CommunicationMethod, enabled bool) bool {
	return method == MethodUseMSDTC || (method == MethodDefault && enabled)
}

// FieldSpec maps one member to one storage column.
type FieldSpec struct {
	Member     string // Member name used in paths and filters
	Column     string // Storage column (defaults to Member)
	Kind       Kind
	PrimaryKey bool
	Generated  bool // Value is produced by storage and never bound on save, except the key
	Get        func(Entity) any
	Set        func(Entity, any) error
}

// MemberSpec is an unmapped member, typically a navigation member whose
// value is an entity of the mapped type Type. Get must return an untyped
// nil when the member is empty.
type MemberSpec struct {
	Name string
	Type string
	Get  func(Entity) any
	Set  func(Entity, any) error
}

// ReferenceSpec lets an instance resolve another mapped entity through the
// foreign key stored in Member.
type ReferenceSpec struct {
	Type   string // Referenced mapped type
	Member string // Owner member holding the key
	Name   string // Reference property name (defaults to Type)
}

// TypeSpec is the declarative description of a mapped type.
type TypeSpec struct {
	Name       string
	Table      string // Defaults to Name
	Parent     *TypeSpec
	New        func() Entity
	Fields     []FieldSpec
	Members    []MemberSpec
	References []ReferenceSpec
	Messages   map[Action]string

	// Optional per-type collaborators; the directory defaults apply when nil.
	Provider QueryProvider
	Executor QueryExecutor
}

// QueryKind selects which statement a provider should prepare.
type QueryKind int

const (
	QueryLoadByKey QueryKind = iota
	QueryLoadByFilter
	QueryLoadUnfiltered
	QuerySave
	QueryDelete
)

var queryKindNames = [...]string{"load_by_key", "load_by_filter", "load_unfiltered", "save", "delete"}

func (k QueryKind) String() string {
	if k >= 0 && int(k) < len(queryKindNames) {
		return queryKindNames[k]
	}
	return fmt.Sprintf("query(%d)", int(k))
}

// Row is one tabular result row keyed by column name. A nil value is a
// storage null.
type Row map[string]any

// Rows is a tabular result.
type Rows []Row

// QueryProvider returns a fresh bindable command for a kind.
type QueryProvider interface {
	NewCommand(meta *Metadata, kind QueryKind) (*Command, error)
}

// QueryExecutor runs a bound command against the backing store.
type QueryExecutor interface {
	Execute(ctx context.Context, cmd *Command, method CommunicationMethod) (Rows, error)
}
