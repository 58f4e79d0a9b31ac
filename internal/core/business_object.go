package core

import "context"

// Handle is the lifecycle surface of mapped objects that embed
// BusinessObject. Types override Save or Delete to enforce business rules
// before delegating to the embedded implementation.
type Handle interface {
	Save(ctx context.Context, method CommunicationMethod) (bool, error)
	Delete(ctx context.Context, method CommunicationMethod) (bool, error)
	Manager() *Manager
}

type handle interface {
	Handle
	bindManager(m *Manager, self Entity)
}

// ExceptionHandler lets a type translate an error raised by its own Save or
// Delete before it is classified.
type ExceptionHandler interface {
	HandleException(err error) error
}

// BusinessObject is embedded by mapped types to get Save and Delete that
// forward to the bound manager.
type BusinessObject struct {
	mgr  *Manager
	self Entity
}

func (b *BusinessObject) bindManager(m *Manager, self Entity) {
	b.mgr = m
	b.self = self
}

// Manager returns the manager the object is bound to, or nil.
func (b *BusinessObject) Manager() *Manager { return b.mgr }

// Save persists the object through its manager.
func (b *BusinessObject) Save(ctx context.Context, method CommunicationMethod) (bool, error) {
	if b.mgr == nil {
		return false, ErrUnbound
	}
	return b.mgr.InternalSaveObject(ctx, method, b.self)
}

// Delete removes the object through its manager.
func (b *BusinessObject) Delete(ctx context.Context, method CommunicationMethod) (bool, error) {
	if b.mgr == nil {
		return false, ErrUnbound
	}
	return b.mgr.InternalDeleteObject(ctx, method, b.self)
}

// HandleException returns err unchanged.
func (b *BusinessObject) HandleException(err error) error { return err }

// IsTransient reports whether the object has not been persisted yet.
func (b *BusinessObject) IsTransient() bool {
	if b.mgr == nil {
		return true
	}
	return b.mgr.IsTransient(b.self)
}

func translate(obj Entity, err error) error {
	if h, ok := obj.(ExceptionHandler); ok {
		if out := h.HandleException(err); out != nil {
			return out
		}
	}
	return err
}

// Record is the base for types keyed by an integer ID column.
type Record struct {
	BusinessObject
	ID int
}

// NewRecord returns a Record whose ID is the int null sentinel.
func NewRecord() Record {
	return Record{ID: NullInt}
}

// RecordID exposes the key for RecordSpec's accessors.
func (r *Record) RecordID() *int { return &r.ID }

type recordKeyed interface {
	RecordID() *int
}

// RecordSpec declares the ID key shared by every Record type. Use it as
// Parent.
var RecordSpec = TypeSpec{
	Name:   "Record",
	Parent: &BusinessObjectSpec,
	Fields: []FieldSpec{
		Key(Field("ID", "ID", func(e Entity) *int { return e.(recordKeyed).RecordID() })),
	},
}
