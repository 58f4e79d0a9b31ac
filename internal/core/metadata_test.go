package core

import (
	"errors"
	"strings"
	"testing"
)

func TestDescribe_Inheritance(t *testing.T) {
	meta, err := describe(widgetSpec)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}

	if meta.Table != "widgets" {
		t.Errorf("Table = %q, want widgets", meta.Table)
	}
	if meta.PrimaryKey.Member != "ID" {
		t.Errorf("PrimaryKey = %q, want ID", meta.PrimaryKey.Member)
	}

	cols := meta.Columns()
	want := []string{"ID", "name", "weight", "note", "maker_id"}
	if strings.Join(cols, ",") != strings.Join(want, ",") {
		t.Errorf("Columns = %v, want %v (ancestors first)", cols, want)
	}

	if _, ok := meta.FieldByColumn("MAKER_ID"); !ok {
		t.Error("FieldByColumn should be case-insensitive")
	}
	if got := meta.ColumnFor("MakerID"); got != "maker_id" {
		t.Errorf("ColumnFor(MakerID) = %q", got)
	}
	if got := meta.ColumnFor("raw_column"); got != "raw_column" {
		t.Errorf("ColumnFor(raw_column) = %q", got)
	}

	ref, ok := meta.Reference("Maker")
	if !ok || ref.Name != "Maker" || ref.Member != "MakerID" {
		t.Errorf("Reference(Maker) = %+v, %v", ref, ok)
	}
}

func TestDescribe_Messages(t *testing.T) {
	tests := []struct {
		name   string
		spec   TypeSpec
		action Action
		want   string
	}{
		{"inherited save", widgetSpec, ActionSaveObject, "Values you've entered are either empty or invalid"},
		{"inherited delete", widgetSpec, ActionDeleteObject, "Can't delete object while there are references on it"},
		{"own save", makerSpec, ActionSaveObject, "Maker could not be saved"},
		{"own spec keeps inherited load", makerSpec, ActionLoadObject, "Can't load selected object - the database is corrupted"},
		{"unknown action", makerSpec, ActionUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := describe(tt.spec)
			if err != nil {
				t.Fatalf("describe: %v", err)
			}
			if got := meta.Messages.Get(tt.action); got != tt.want {
				t.Errorf("Messages[%s] = %q, want %q", tt.action, got, tt.want)
			}
		})
	}
}

func TestDescribe_NoParentHasNoMessages(t *testing.T) {
	spec := TypeSpec{
		Name: "Bare",
		New:  func() Entity { return &maker{} },
		Fields: []FieldSpec{
			Field("ID", "ID", func(e Entity) *int { return &e.(*maker).ID }),
		},
	}
	meta, err := describe(spec)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !meta.PrimaryKey.PrimaryKey || meta.PrimaryKey.Column != "ID" {
		t.Errorf("ID column should become the key, got %+v", meta.PrimaryKey)
	}
	if got := meta.Messages.Get(ActionSaveObject); got != "" {
		t.Errorf("save message = %q, want empty", got)
	}
}

func TestDescribe_Override(t *testing.T) {
	spec := widgetSpec
	spec.Name = "HeavyWidget"
	spec.Parent = &widgetSpec
	spec.Fields = []FieldSpec{
		Field("Weight", "heavy_weight", func(e Entity) *float64 { return &e.(*widget).Weight }),
	}
	spec.References = nil

	meta, err := describe(spec)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	f, _ := meta.Field("Weight")
	if f.Column != "heavy_weight" {
		t.Errorf("Weight column = %q, want heavy_weight", f.Column)
	}
	if len(meta.Fields) != len(widgetSpec.Fields)+1 {
		t.Errorf("override should replace in place, got %d fields", len(meta.Fields))
	}
	if _, ok := meta.Reference("Maker"); !ok {
		t.Error("reference should be inherited")
	}
}

func TestDescribe_ConfigErrors(t *testing.T) {
	newFn := func() Entity { return &widget{} }
	nameField := Field("Name", "name", func(e Entity) *string { return &e.(*widget).Name })
	idField := Field("ID", "ID", func(e Entity) *int { return &e.(*widget).ID })

	tests := []struct {
		name   string
		spec   TypeSpec
		reason string
	}{
		{"empty name", TypeSpec{New: newFn}, "type name is empty"},
		{"no constructor", TypeSpec{Name: "X"}, "no constructor"},
		{"no key", TypeSpec{Name: "X", New: newFn, Fields: []FieldSpec{nameField}}, "no primary key"},
		{
			"ambiguous key",
			TypeSpec{Name: "X", New: newFn, Fields: []FieldSpec{Key(idField), Key(nameField)}},
			"ambiguous primary key",
		},
		{
			"duplicate column",
			TypeSpec{Name: "X", New: newFn, Fields: []FieldSpec{
				idField,
				nameField,
				Field("Other", "NAME", func(e Entity) *string { return &e.(*widget).Name }),
			}},
			"mapped twice",
		},
		{
			"missing accessors",
			TypeSpec{Name: "X", New: newFn, Fields: []FieldSpec{idField, {Member: "Name"}}},
			"no accessors",
		},
		{
			"reference to unknown member",
			TypeSpec{Name: "X", New: newFn, Fields: []FieldSpec{idField},
				References: []ReferenceSpec{{Type: "Maker", Member: "MakerID"}}},
			"unknown member",
		},
		{
			"unsupported field type",
			TypeSpec{Name: "X", New: newFn, Fields: []FieldSpec{idField,
				Field("Ratio", "ratio", func(Entity) *float32 { return new(float32) })}},
			"unsupported type",
		},
		{
			"member clashes with field",
			TypeSpec{Name: "X", New: newFn, Fields: []FieldSpec{idField, nameField},
				Members: []MemberSpec{{Name: "Name", Get: func(Entity) any { return nil }}}},
			"also a mapped field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := describe(tt.spec)
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *ConfigError", err)
			}
			if !strings.Contains(ce.Reason, tt.reason) {
				t.Errorf("reason = %q, want it to contain %q", ce.Reason, tt.reason)
			}
			if MapError(err).Code != "MAP007" {
				t.Errorf("code = %s, want MAP007", MapError(err).Code)
			}
		})
	}
}
