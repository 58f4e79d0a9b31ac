package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/JonMunkholm/objmap/internal/logging"
)

// Manager coordinates storage and identity for one mapped type.
//
// The identity cache is a concurrent map with last-write-wins semantics:
// concurrent loads and saves of one key are not serialised.
type Manager struct {
	dir      *Directory
	meta     *Metadata
	provider QueryProvider
	executor QueryExecutor
	caching  bool

	cache sync.Map // normalised primary key -> Entity

	mu      sync.RWMutex
	warn    WarningSink
	lastErr error
}

func newManager(d *Directory, meta *Metadata, provider QueryProvider, executor QueryExecutor) *Manager {
	if provider == nil {
		provider = d.opts.Provider
	}
	if executor == nil {
		executor = d.opts.Executor
	}
	return &Manager{
		dir:      d,
		meta:     meta,
		provider: provider,
		executor: executor,
		caching:  d.opts.CacheEnabled,
		warn:     d.opts.WarningSink,
	}
}

// Type returns the mapped type name.
func (m *Manager) Type() string { return m.meta.Type }

// Metadata returns the type's metadata.
func (m *Manager) Metadata() *Metadata { return m.meta }

// Directory returns the owning directory.
func (m *Manager) Directory() *Directory { return m.dir }

// CachingEnabled reports whether the identity cache is in use.
func (m *Manager) CachingEnabled() bool { return m.caching }

// CreateObject returns a new transient instance bound to m.
func (m *Manager) CreateObject() Entity {
	obj := m.meta.newFn()
	_ = m.meta.PrimaryKey.Set(obj, GetCorrectNull(m.meta.PrimaryKey.Kind))
	m.bind(obj)
	return obj
}

func (m *Manager) bind(obj Entity) {
	if h, ok := obj.(handle); ok {
		h.bindManager(m, obj)
	}
}

// PrimaryKeyValue returns obj's primary key.
func (m *Manager) PrimaryKeyValue(obj Entity) any {
	return m.meta.PrimaryKey.Get(obj)
}

// IsTransient reports whether obj has never been persisted: its key is the
// null sentinel, or not positive for integer keys.
func (m *Manager) IsTransient(obj Entity) bool {
	return isTransientKey(m.PrimaryKeyValue(obj))
}

func isTransientKey(v any) bool {
	switch t := v.(type) {
	case int:
		return t <= 0
	case int32:
		return t <= 0
	case int64:
		return t <= 0
	}
	return IsNull(v)
}

func (m *Manager) keyOf(v any) (any, error) {
	return coerce(m.meta.PrimaryKey.Kind, v)
}

// GetObject returns the object with the given primary key. A cache hit
// never touches storage. ErrNotFound is returned when no row matches.
func (m *Manager) GetObject(ctx context.Context, key any) (Entity, error) {
	return m.GetObjectVia(ctx, MethodDefault, key)
}

// GetObjectVia is GetObject forwarding method to the executor.
func (m *Manager) GetObjectVia(ctx context.Context, method CommunicationMethod, key any) (Entity, error) {
	if IsNull(key) {
		return nil, ErrNotFound
	}
	k, err := m.keyOf(key)
	if err != nil {
		return nil, Classify(m.meta, ActionLoadObject, err)
	}
	if m.caching {
		if obj, ok := m.cache.Load(k); ok {
			return obj, nil
		}
	}

	cmd, err := m.command(QueryLoadByKey)
	if err != nil {
		return nil, Classify(m.meta, ActionLoadObject, err)
	}
	cmd.Bind(m.meta.PrimaryKey.Column, k)

	rows, err := m.execute(ctx, cmd, method)
	if err != nil {
		return nil, Classify(m.meta, ActionLoadObject, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	obj, err := m.RestoreObject(rows[0])
	if err != nil {
		return nil, Classify(m.meta, ActionLoadObject, err)
	}
	return obj, nil
}

// FindObject returns the first object whose member equals value. Cached
// instances are scanned first; on a miss storage is queried by filter.
func (m *Manager) FindObject(ctx context.Context, member string, value any) (Entity, error) {
	return m.FindObjectVia(ctx, MethodDefault, member, value)
}

// FindObjectVia is FindObject forwarding method to the executor.
func (m *Manager) FindObjectVia(ctx context.Context, method CommunicationMethod, member string, value any) (Entity, error) {
	f, ok := m.meta.Field(member)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, m.meta.Type, member)
	}
	want, err := m.memberValue(f, value)
	if err != nil {
		return nil, Classify(m.meta, ActionLoadObject, err)
	}

	if m.caching {
		var found Entity
		m.cache.Range(func(_, obj any) bool {
			if equalMember(f.Get(obj), want) {
				found = obj
				return false
			}
			return true
		})
		if found != nil {
			return found, nil
		}
	}

	rows, err := m.LoadObjectsVia(ctx, LoadOptions{Method: method}, member, want)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	obj, err := m.RestoreObject(rows[0])
	if err != nil {
		return nil, Classify(m.meta, ActionLoadObject, err)
	}
	return obj, nil
}

// memberValue converts value to the plain form of field f. Pointer
// members go through the field's own setter on a scratch object, so the
// result is the pointed-to value or nil.
func (m *Manager) memberValue(f FieldSpec, value any) (any, error) {
	if f.Kind != KindNullable {
		return coerce(f.Kind, value)
	}
	scratch := m.meta.newFn()
	if err := f.Set(scratch, value); err != nil {
		return nil, err
	}
	return deref(f.Get(scratch)), nil
}

// SaveObject persists obj. Objects embedding BusinessObject go through
// their own Save so overrides can apply business rules.
//
// On failure the classified error is delivered to the context's
// FailureSink and (false, nil) is returned. Without a sink the error is
// returned to the caller.
func (m *Manager) SaveObject(ctx context.Context, obj Entity) (bool, error) {
	return m.SaveObjectVia(ctx, MethodDefault, obj)
}

// SaveObjectVia is SaveObject forwarding method to the executor.
func (m *Manager) SaveObjectVia(ctx context.Context, method CommunicationMethod, obj Entity) (bool, error) {
	var err error
	if h, ok := obj.(handle); ok {
		if h.Manager() == nil {
			h.bindManager(m, obj)
		}
		var saved bool
		saved, err = h.Save(ctx, method)
		if err == nil && !saved {
			return false, nil
		}
		if err != nil {
			err = translate(obj, err)
		}
	} else {
		_, err = m.InternalSaveObject(ctx, method, obj)
	}
	if err != nil {
		return false, m.fail(ctx, ActionSaveObject, err)
	}
	return true, nil
}

// DeleteObject removes obj from storage and from the identity cache.
// Failure handling matches SaveObject.
func (m *Manager) DeleteObject(ctx context.Context, obj Entity) (bool, error) {
	return m.DeleteObjectVia(ctx, MethodDefault, obj)
}

// DeleteObjectVia is DeleteObject forwarding method to the executor.
func (m *Manager) DeleteObjectVia(ctx context.Context, method CommunicationMethod, obj Entity) (bool, error) {
	var err error
	if h, ok := obj.(handle); ok {
		if h.Manager() == nil {
			h.bindManager(m, obj)
		}
		var deleted bool
		deleted, err = h.Delete(ctx, method)
		if err == nil && !deleted {
			return false, nil
		}
		if err != nil {
			err = translate(obj, err)
		}
	} else {
		_, err = m.InternalDeleteObject(ctx, method, obj)
	}
	if err != nil {
		return false, m.fail(ctx, ActionDeleteObject, err)
	}
	return true, nil
}

// InternalSaveObject binds every mapped field, executes the save command
// and writes a generated key back onto obj.
func (m *Manager) InternalSaveObject(ctx context.Context, method CommunicationMethod, obj Entity) (bool, error) {
	cmd, err := m.command(QuerySave)
	if err != nil {
		return false, err
	}
	for _, f := range m.meta.Fields {
		if f.Generated && !f.PrimaryKey {
			continue
		}
		v := f.Get(obj)
		if f.PrimaryKey && isTransientKey(v) {
			v = nil
		}
		cmd.Bind(f.Column, storageValue(v))
	}

	rows, err := m.execute(ctx, cmd, method)
	if err != nil {
		return false, err
	}

	pk := m.meta.PrimaryKey
	if len(rows) > 0 {
		if v, ok := lookupColumn(rows[0], pk.Column); ok && v != nil {
			if err := pk.Set(obj, v); err != nil {
				return false, fmt.Errorf("set generated key: %w", err)
			}
		}
	}
	m.bind(obj)
	m.remember(obj)
	return true, nil
}

// InternalDeleteObject deletes obj by primary key and evicts it.
func (m *Manager) InternalDeleteObject(ctx context.Context, method CommunicationMethod, obj Entity) (bool, error) {
	cmd, err := m.command(QueryDelete)
	if err != nil {
		return false, err
	}
	key := m.PrimaryKeyValue(obj)
	cmd.Bind(m.meta.PrimaryKey.Column, storageValue(key))

	if _, err := m.execute(ctx, cmd, method); err != nil {
		return false, err
	}
	if k, err := m.keyOf(key); err == nil {
		m.cache.Delete(k)
	}
	return true, nil
}

// remember stores obj in the identity cache, replacing any earlier entry.
func (m *Manager) remember(obj Entity) {
	if !m.caching {
		return
	}
	key := m.PrimaryKeyValue(obj)
	if IsNull(key) {
		return
	}
	if k, err := m.keyOf(key); err == nil {
		m.cache.Store(k, obj)
	}
}

// ClearObjectsCache drops every cached instance.
func (m *Manager) ClearObjectsCache() {
	m.cache.Range(func(k, _ any) bool {
		m.cache.Delete(k)
		return true
	})
}

// CachedCount returns the number of cached instances.
func (m *Manager) CachedCount() int {
	n := 0
	m.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// SetWarningSink installs the callback consulted by CanContinueCheck.
func (m *Manager) SetWarningSink(sink WarningSink) {
	m.mu.Lock()
	m.warn = sink
	m.mu.Unlock()
}

// CanContinueCheck asks the warning sink whether an operation on obj may
// proceed. Without a sink the answer is no. When declined, err is returned
// if given, otherwise an error carrying the warning text.
func (m *Manager) CanContinueCheck(obj Entity, message string, err error) error {
	text := message
	if err != nil {
		if text != "" {
			text += ": "
		}
		text += err.Error()
	}

	m.mu.RLock()
	sink := m.warn
	m.mu.RUnlock()

	if sink != nil && sink(obj, text) {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", ErrWarningDeclined, text)
}

// LastError returns the most recent classified Save or Delete failure.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// fail classifies err, records it and reports it to the context's sink.
// The error is returned only when no sink is installed.
func (m *Manager) fail(ctx context.Context, action Action, err error) error {
	se := Classify(m.meta, action, err)

	m.mu.Lock()
	m.lastErr = se
	m.mu.Unlock()

	logging.WithFields(ctx, "type", m.meta.Type, "action", action.String(), "code", se.Code).
		Warn("object operation failed", "error", err)

	sink := FailureSinkFromContext(ctx)
	if sink == nil {
		return se
	}
	sink(ctx, FailureEvent{Type: m.meta.Type, Action: action, Message: se.Message, Err: err})
	return nil
}

func (m *Manager) command(kind QueryKind) (*Command, error) {
	if m.provider == nil {
		return nil, errors.New("no query provider")
	}
	return m.provider.NewCommand(m.meta, kind)
}

func (m *Manager) execute(ctx context.Context, cmd *Command, method CommunicationMethod) (Rows, error) {
	if m.executor == nil {
		return nil, errors.New("no query executor")
	}
	logging.FromContext(ctx).Debug("executing command",
		slog.String("type", m.meta.Type),
		slog.String("kind", cmd.Kind.String()),
		slog.String("method", method.String()),
	)
	return m.executor.Execute(ctx, cmd, method)
}

func lookupColumn(row Row, column string) (any, bool) {
	if v, ok := row[column]; ok {
		return v, true
	}
	for k, v := range row {
		if strings.EqualFold(k, column) {
			return v, true
		}
	}
	return nil, false
}
