package core

import (
	"context"
	"fmt"
	"strings"
)

// PathSeparator splits member paths such as "Customer.Account.Name".
const PathSeparator = "."

// ParsePath splits a dotted member path into segments.
func ParsePath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(path, PathSeparator)
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w %q: empty segment", ErrInvalidPath, path)
		}
	}
	return segments, nil
}

// walk follows every segment but the last. A segment naming an entity
// member or a reference moves to that entity and its manager; any other
// segment stops the walk so the remainder is looked up on the current
// manager. Each step consumes a segment, and the segment count is bounded
// by the directory's MaxPathDepth.
func (m *Manager) walk(ctx context.Context, obj Entity, segments []string) (*Manager, Entity, string, error) {
	if limit := m.dir.opts.MaxPathDepth; len(segments) > limit {
		return nil, nil, "", fmt.Errorf("%w: %d segments, limit %d", ErrPathTooDeep, len(segments), limit)
	}

	cur := m
	for len(segments) > 1 {
		seg := segments[0]

		var next *Manager
		var target Entity
		if mem, ok := cur.meta.Member(seg); ok && mem.Type != "" {
			nm, err := cur.dir.Manager(mem.Type)
			if err != nil {
				return nil, nil, "", err
			}
			next, target = nm, mem.Get(obj)
		} else if ref, ok := cur.meta.ReferenceByName(seg); ok {
			nm, err := cur.dir.Manager(ref.Type)
			if err != nil {
				return nil, nil, "", err
			}
			t, err := cur.referenced(ctx, obj, nm, ref)
			if err != nil {
				return nil, nil, "", err
			}
			next, target = nm, t
		} else {
			break
		}

		if target == nil {
			return nil, nil, "", fmt.Errorf("%w: %s.%s is empty", ErrNotFound, cur.meta.Type, seg)
		}
		cur, obj = next, target
		segments = segments[1:]
	}
	return cur, obj, strings.Join(segments, PathSeparator), nil
}

// GetMemberValue reads a member, following dotted paths across references.
func (m *Manager) GetMemberValue(ctx context.Context, obj Entity, path string) (any, error) {
	segments, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	mgr, target, member, err := m.walk(ctx, obj, segments)
	if err != nil {
		return nil, err
	}
	return mgr.getLocal(target, member)
}

// SetMemberValue writes a member, following dotted paths across
// references. A nil value stores the member kind's null.
func (m *Manager) SetMemberValue(ctx context.Context, obj Entity, path string, value any) error {
	segments, err := ParsePath(path)
	if err != nil {
		return err
	}
	mgr, target, member, err := m.walk(ctx, obj, segments)
	if err != nil {
		return err
	}
	return mgr.setLocal(target, member, value)
}

// SetMemberValues sets alternating member/value pairs.
func (m *Manager) SetMemberValues(ctx context.Context, obj Entity, pairs ...any) error {
	if len(pairs)%2 != 0 {
		return fmt.Errorf("set %s: odd number of member arguments", m.meta.Type)
	}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return fmt.Errorf("set %s: member name %v is not a string", m.meta.Type, pairs[i])
		}
		if err := m.SetMemberValue(ctx, obj, name, pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// GetFieldValue reads a mapped member by column name.
func (m *Manager) GetFieldValue(obj Entity, column string) (any, error) {
	f, ok := m.meta.FieldByColumn(column)
	if !ok {
		return nil, fmt.Errorf("%w: column %s on %s", ErrUnknownMember, column, m.meta.Type)
	}
	return f.Get(obj), nil
}

// SetFieldValue writes a mapped member by column name.
func (m *Manager) SetFieldValue(obj Entity, column string, value any) error {
	f, ok := m.meta.FieldByColumn(column)
	if !ok {
		return fmt.Errorf("%w: column %s on %s", ErrUnknownMember, column, m.meta.Type)
	}
	if value == nil {
		value = GetCorrectNull(f.Kind)
	}
	if err := f.Set(obj, value); err != nil {
		return fmt.Errorf("%w: %s.%s: %v", ErrInvalidValue, m.meta.Type, f.Member, err)
	}
	return nil
}

// MemberKind returns the kind of a mapped member. Unmapped members report
// KindNullable.
func (m *Manager) MemberKind(member string) (Kind, error) {
	if f, ok := m.meta.Field(member); ok {
		return f.Kind, nil
	}
	if _, ok := m.meta.Member(member); ok {
		return KindNullable, nil
	}
	return 0, fmt.Errorf("%w: %s.%s", ErrUnknownMember, m.meta.Type, member)
}

func (m *Manager) getLocal(obj Entity, member string) (any, error) {
	if f, ok := m.meta.Field(member); ok {
		return f.Get(obj), nil
	}
	if mem, ok := m.meta.Member(member); ok {
		return mem.Get(obj), nil
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, m.meta.Type, member)
}

func (m *Manager) setLocal(obj Entity, member string, value any) error {
	if f, ok := m.meta.Field(member); ok {
		if value == nil {
			value = GetCorrectNull(f.Kind)
		}
		if err := f.Set(obj, value); err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrInvalidValue, m.meta.Type, member, err)
		}
		return nil
	}
	if mem, ok := m.meta.Member(member); ok {
		if mem.Set == nil {
			return fmt.Errorf("%s.%s is read-only", m.meta.Type, member)
		}
		return mem.Set(obj, value)
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownMember, m.meta.Type, member)
}

// GetReferencedObject resolves the entity obj references. target is a
// reference name or a referenced type name.
func (m *Manager) GetReferencedObject(ctx context.Context, obj Entity, target string) (Entity, error) {
	ref, ok := m.meta.Reference(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoReference, target, m.meta.Type)
	}
	tm, err := m.dir.Manager(ref.Type)
	if err != nil {
		return nil, err
	}
	return m.referenced(ctx, obj, tm, ref)
}

// ReferencedBy resolves the entity served by target. refName selects the
// reference when the type declares several to the same target; when it is
// empty or unknown the first reference to target's type is used.
func (m *Manager) ReferencedBy(ctx context.Context, obj Entity, target *Manager, refName string) (Entity, error) {
	ref, ok := m.meta.ReferenceByName(refName)
	if !ok {
		ref, ok = m.meta.ReferenceTo(target.Type())
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoReference, target.Type(), m.meta.Type)
	}
	return m.referenced(ctx, obj, target, ref)
}

func (m *Manager) referenced(ctx context.Context, obj Entity, target *Manager, ref ReferenceSpec) (Entity, error) {
	f, _ := m.meta.Field(ref.Member)
	key := f.Get(obj)
	if IsNull(key) {
		return nil, fmt.Errorf("%w: %s.%s is null", ErrNotFound, m.meta.Type, ref.Member)
	}
	return target.GetObject(ctx, key)
}
