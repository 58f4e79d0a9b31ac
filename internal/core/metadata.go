package core

import (
	"fmt"
	"strings"
)

// DefaultKeyColumn is the primary key column assumed when no field is
// marked as key.
const DefaultKeyColumn = "ID"

// Metadata is the immutable description of a mapped type, built once by
// Describe.
type Metadata struct {
	Type       string
	Table      string
	Fields     []FieldSpec
	PrimaryKey FieldSpec
	Members    []MemberSpec
	References []ReferenceSpec
	Messages   ErrorMessages

	newFn     func() Entity
	byMember  map[string]int
	byColumn  map[string]int
	extra     map[string]int
	refByType map[string]int
	refByName map[string]int
}

// Columns returns the mapped column names in declaration order.
func (m *Metadata) Columns() []string {
	cols := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		cols[i] = f.Column
	}
	return cols
}

// Field returns the field mapped to member.
func (m *Metadata) Field(member string) (FieldSpec, bool) {
	i, ok := m.byMember[member]
	if !ok {
		return FieldSpec{}, false
	}
	return m.Fields[i], true
}

// FieldByColumn returns the field mapped to column. Matching is
// case-insensitive.
func (m *Metadata) FieldByColumn(column string) (FieldSpec, bool) {
	i, ok := m.byColumn[strings.ToLower(column)]
	if !ok {
		return FieldSpec{}, false
	}
	return m.Fields[i], true
}

// ColumnFor translates a member name to its column, falling back to the
// name itself for unmapped names.
func (m *Metadata) ColumnFor(member string) string {
	if f, ok := m.Field(member); ok {
		return f.Column
	}
	return member
}

// Member returns an unmapped member.
func (m *Metadata) Member(name string) (MemberSpec, bool) {
	i, ok := m.extra[name]
	if !ok {
		return MemberSpec{}, false
	}
	return m.Members[i], true
}

// Reference looks a reference up by property name first, then by
// referenced type.
func (m *Metadata) Reference(nameOrType string) (ReferenceSpec, bool) {
	if i, ok := m.refByName[nameOrType]; ok {
		return m.References[i], true
	}
	if i, ok := m.refByType[nameOrType]; ok {
		return m.References[i], true
	}
	return ReferenceSpec{}, false
}

// ReferenceByName looks a reference up by property name only.
func (m *Metadata) ReferenceByName(name string) (ReferenceSpec, bool) {
	i, ok := m.refByName[name]
	if !ok {
		return ReferenceSpec{}, false
	}
	return m.References[i], true
}

// ReferenceTo returns the reference targeting typeName.
func (m *Metadata) ReferenceTo(typeName string) (ReferenceSpec, bool) {
	i, ok := m.refByType[typeName]
	if !ok {
		return ReferenceSpec{}, false
	}
	return m.References[i], true
}

// describe validates spec and assembles its lookup tables.
func describe(spec TypeSpec) (*Metadata, error) {
	if spec.Name == "" {
		return nil, &ConfigError{Reason: "type name is empty"}
	}
	if spec.New == nil {
		return nil, &ConfigError{Type: spec.Name, Reason: "no constructor"}
	}

	meta := &Metadata{
		Type:      spec.Name,
		Table:     spec.Table,
		Messages:  resolveMessages(&spec),
		newFn:     spec.New,
		byMember:  make(map[string]int),
		byColumn:  make(map[string]int),
		extra:     make(map[string]int),
		refByType: make(map[string]int),
		refByName: make(map[string]int),
	}
	if meta.Table == "" {
		meta.Table = spec.Name
	}

	fields, members, refs := flatten(&spec)

	keyIdx := -1
	for _, f := range fields {
		if f.Member == "" {
			return nil, &ConfigError{Type: spec.Name, Reason: "field without member name"}
		}
		if f.Get == nil || f.Set == nil {
			return nil, &ConfigError{Type: spec.Name, Reason: fmt.Sprintf("field %s has no accessors", f.Member)}
		}
		if f.Kind == KindUnsupported {
			return nil, &ConfigError{Type: spec.Name, Reason: fmt.Sprintf("field %s has an unsupported type", f.Member)}
		}
		if f.Column == "" {
			f.Column = f.Member
		}
		col := strings.ToLower(f.Column)
		if _, dup := meta.byColumn[col]; dup {
			return nil, &ConfigError{Type: spec.Name, Reason: fmt.Sprintf("column %s mapped twice", f.Column)}
		}
		if f.PrimaryKey {
			if keyIdx >= 0 {
				return nil, &ConfigError{Type: spec.Name, Reason: fmt.Sprintf(
					"ambiguous primary key: %s and %s", meta.Fields[keyIdx].Member, f.Member)}
			}
			keyIdx = len(meta.Fields)
		}
		meta.byMember[f.Member] = len(meta.Fields)
		meta.byColumn[col] = len(meta.Fields)
		meta.Fields = append(meta.Fields, f)
	}

	if keyIdx < 0 {
		i, ok := meta.byColumn[strings.ToLower(DefaultKeyColumn)]
		if !ok {
			return nil, &ConfigError{Type: spec.Name, Reason: "no primary key and no " + DefaultKeyColumn + " column"}
		}
		keyIdx = i
		meta.Fields[i].PrimaryKey = true
	}
	meta.PrimaryKey = meta.Fields[keyIdx]

	for _, mem := range members {
		if mem.Name == "" || mem.Get == nil {
			return nil, &ConfigError{Type: spec.Name, Reason: "member without name or getter"}
		}
		if _, clash := meta.byMember[mem.Name]; clash {
			return nil, &ConfigError{Type: spec.Name, Reason: fmt.Sprintf("member %s is also a mapped field", mem.Name)}
		}
		meta.extra[mem.Name] = len(meta.Members)
		meta.Members = append(meta.Members, mem)
	}

	for _, r := range refs {
		if r.Type == "" {
			return nil, &ConfigError{Type: spec.Name, Reason: "reference without target type"}
		}
		if _, ok := meta.byMember[r.Member]; !ok {
			return nil, &ConfigError{Type: spec.Name, Reason: fmt.Sprintf("reference %s uses unknown member %s", r.Type, r.Member)}
		}
		if r.Name == "" {
			r.Name = r.Type
		}
		idx := len(meta.References)
		meta.References = append(meta.References, r)
		meta.refByName[r.Name] = idx
		if _, seen := meta.refByType[r.Type]; !seen {
			meta.refByType[r.Type] = idx
		}
	}

	return meta, nil
}

// flatten merges the parent chain, ancestors first. A descendant entry with
// the same member (or reference name) replaces the inherited one in place.
func flatten(spec *TypeSpec) ([]FieldSpec, []MemberSpec, []ReferenceSpec) {
	if spec == nil {
		return nil, nil, nil
	}
	fields, members, refs := flatten(spec.Parent)

	for _, f := range spec.Fields {
		replaced := false
		for i := range fields {
			if fields[i].Member == f.Member {
				fields[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			fields = append(fields, f)
		}
	}

	for _, mem := range spec.Members {
		replaced := false
		for i := range members {
			if members[i].Name == mem.Name {
				members[i] = mem
				replaced = true
				break
			}
		}
		if !replaced {
			members = append(members, mem)
		}
	}

	for _, r := range spec.References {
		name := r.Name
		if name == "" {
			name = r.Type
		}
		replaced := false
		for i := range refs {
			existing := refs[i].Name
			if existing == "" {
				existing = refs[i].Type
			}
			if existing == name {
				refs[i] = r
				replaced = true
				break
			}
		}
		if !replaced {
			refs = append(refs, r)
		}
	}

	return fields, members, refs
}
