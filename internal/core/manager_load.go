package core

import (
	"context"
	"fmt"
)

// LoadOptions tunes LoadObjectsVia.
type LoadOptions struct {
	ExcludeNulls bool // Skip filter pairs whose value is a null sentinel
	Method       CommunicationMethod
}

// LoadObjects returns raw rows filtered by member/value pairs. With no pairs
// the unfiltered load runs.
func (m *Manager) LoadObjects(ctx context.Context, pairs ...any) (Rows, error) {
	return m.LoadObjectsVia(ctx, LoadOptions{}, pairs...)
}

// LoadObjectsVia is LoadObjects with options. Pairs alternate member name
// and value; a member name that is not mapped is used as a column as is.
func (m *Manager) LoadObjectsVia(ctx context.Context, opts LoadOptions, pairs ...any) (Rows, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("load %s: odd number of filter arguments", m.meta.Type)
	}

	kind := QueryLoadByFilter
	if len(pairs) == 0 {
		kind = QueryLoadUnfiltered
	}
	cmd, err := m.command(kind)
	if err != nil {
		return nil, Classify(m.meta, ActionLoadObjects, err)
	}

	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("load %s: filter name %v is not a string", m.meta.Type, pairs[i])
		}
		value := pairs[i+1]
		if opts.ExcludeNulls && IsNull(value) {
			continue
		}
		cmd.Bind(m.meta.ColumnFor(name), storageValue(value))
	}

	rows, err := m.execute(ctx, cmd, opts.Method)
	if err != nil {
		return nil, Classify(m.meta, ActionLoadObjects, err)
	}
	return rows, nil
}

// RestoreObject materialises one object from a row. Storage nulls become
// the field kind's null, and the identity cache entry for the key is
// replaced when caching is enabled.
func (m *Manager) RestoreObject(row Row) (Entity, error) {
	obj := m.meta.newFn()
	for _, f := range m.meta.Fields {
		v, ok := lookupColumn(row, f.Column)
		if !ok {
			continue
		}
		if v == nil {
			v = GetCorrectNull(f.Kind)
		}
		if err := f.Set(obj, v); err != nil {
			return nil, fmt.Errorf("restore %s.%s: %w", m.meta.Type, f.Member, err)
		}
	}
	m.bind(obj)
	m.remember(obj)
	return obj, nil
}

// RestoreObjects materialises every row.
func (m *Manager) RestoreObjects(rows Rows) ([]Entity, error) {
	out := make([]Entity, 0, len(rows))
	for _, row := range rows {
		obj, err := m.RestoreObject(row)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}

// LoadAndRestore runs LoadObjectsVia and materialises the result.
func (m *Manager) LoadAndRestore(ctx context.Context, opts LoadOptions, pairs ...any) ([]Entity, error) {
	rows, err := m.LoadObjectsVia(ctx, opts, pairs...)
	if err != nil {
		return nil, err
	}
	objs, err := m.RestoreObjects(rows)
	if err != nil {
		return nil, Classify(m.meta, ActionLoadObjects, err)
	}
	return objs, nil
}
