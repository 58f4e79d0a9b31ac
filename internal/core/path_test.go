package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		path    string
		want    []string
		wantErr bool
	}{
		{"Name", []string{"Name"}, false},
		{"Maker.Name", []string{"Maker", "Name"}, false},
		{"", nil, true},
		{"Maker.", nil, true},
		{".Name", nil, true},
		{"Maker. .Name", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParsePath(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPath) {
					t.Errorf("ParsePath(%q) err = %v, want ErrInvalidPath", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q): %v", tt.path, err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("ParsePath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

// seedPaths stores maker 10, widget 1 made by it, and crate 100 holding
// the widget.
func seedPaths(t *testing.T, d *Directory, exec *stubExec) (*Manager, *crate) {
	t.Helper()
	exec.insert("makers", Row{"ID": 10, "name": "Acme"})
	exec.insert("widgets", Row{"ID": 1, "name": "bolt", "maker_id": 10})

	wm := mustManager(t, d, "Widget")
	w, err := wm.GetObject(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}

	cm := mustManager(t, d, "Crate")
	c := cm.CreateObject().(*crate)
	c.ID = 100
	c.Label = "spares"
	c.Item = w.(*widget)
	return cm, c
}

func TestGetMemberValue(t *testing.T) {
	d, exec := newTestDirectory(t, true)
	cm, c := seedPaths(t, d, exec)
	ctx := context.Background()

	tests := []struct {
		path string
		want any
	}{
		{"Label", "spares"},
		{"Item.Name", "bolt"},
		{"Item.MakerID", 10},
		{"Item.Maker.Name", "Acme"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := cm.GetMemberValue(ctx, c, tt.path)
			if err != nil {
				t.Fatalf("GetMemberValue(%q): %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("GetMemberValue(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	item, err := cm.GetMemberValue(ctx, c, "Item")
	if err != nil || item != c.Item {
		t.Errorf("GetMemberValue(Item) = %v, %v", item, err)
	}

	// The maker was loaded once and is cached from then on.
	if _, err := cm.GetMemberValue(ctx, c, "Item.Maker.Name"); err != nil {
		t.Fatal(err)
	}
	if n := exec.count(QueryLoadByKey); n != 2 {
		t.Errorf("loads = %d, want 2 (widget and maker)", n)
	}
}

func TestSetMemberValue(t *testing.T) {
	d, exec := newTestDirectory(t, true)
	cm, c := seedPaths(t, d, exec)
	ctx := context.Background()

	if err := cm.SetMemberValue(ctx, c, "Item.Maker.Name", "Acme Corp"); err != nil {
		t.Fatalf("SetMemberValue: %v", err)
	}
	mm := mustManager(t, d, "Maker")
	m, _ := mm.GetObject(ctx, 10)
	if m.(*maker).Name != "Acme Corp" {
		t.Errorf("maker name = %q", m.(*maker).Name)
	}

	if err := cm.SetMemberValue(ctx, c, "Item.MakerID", nil); err != nil {
		t.Fatalf("SetMemberValue(nil): %v", err)
	}
	if c.Item.MakerID != NullInt {
		t.Errorf("MakerID = %d, want the int null", c.Item.MakerID)
	}

	if err := cm.SetMemberValues(ctx, c, "Label", "returns", "Item.Name", "nut"); err != nil {
		t.Fatalf("SetMemberValues: %v", err)
	}
	if c.Label != "returns" || c.Item.Name != "nut" {
		t.Errorf("after SetMemberValues: %q, %q", c.Label, c.Item.Name)
	}
	if err := cm.SetMemberValues(ctx, c, "Label"); err == nil {
		t.Error("odd arguments should fail")
	}
}

func TestMemberPath_Errors(t *testing.T) {
	d, exec := newTestDirectory(t, true)
	cm, c := seedPaths(t, d, exec)
	ctx := context.Background()

	tests := []struct {
		name string
		obj  *crate
		path string
		want error
	}{
		{"unknown member", c, "Colour", ErrUnknownMember},
		{"unknown nested member", c, "Item.Colour", ErrUnknownMember},
		{"malformed", c, "Item..Name", ErrInvalidPath},
		{"empty navigation member", &crate{Record: NewRecord()}, "Item.Name", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cm.GetMemberValue(ctx, tt.obj, tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("GetMemberValue(%q) = %v, want %v", tt.path, err, tt.want)
			}
		})
	}

	// A null foreign key stops the walk.
	c.Item.MakerID = NullInt
	if _, err := cm.GetMemberValue(ctx, c, "Item.Maker.Name"); !errors.Is(err, ErrNotFound) {
		t.Errorf("null reference = %v, want ErrNotFound", err)
	}
}

func TestMemberPath_DepthGuard(t *testing.T) {
	exec := newStubExec()
	d := NewDirectory(Options{CacheEnabled: true, Executor: exec, MaxPathDepth: 3})
	d.MustRegister(makerSpec, widgetSpec, crateSpec)
	cm, c := seedPaths(t, d, exec)
	ctx := context.Background()

	if _, err := cm.GetMemberValue(ctx, c, "Item.Maker.Name"); err != nil {
		t.Fatalf("three segments should pass: %v", err)
	}
	_, err := cm.GetMemberValue(ctx, c, "Item.Maker.Name.Length")
	if !errors.Is(err, ErrPathTooDeep) {
		t.Errorf("four segments = %v, want ErrPathTooDeep", err)
	}
	if err := cm.SetMemberValue(ctx, c, "Item.Maker.Name.Length", 1); !errors.Is(err, ErrPathTooDeep) {
		t.Errorf("SetMemberValue four segments = %v, want ErrPathTooDeep", err)
	}
}

func TestReferences(t *testing.T) {
	d, exec := newTestDirectory(t, true)
	_, c := seedPaths(t, d, exec)
	wm := mustManager(t, d, "Widget")
	mm := mustManager(t, d, "Maker")
	ctx := context.Background()

	byType, err := wm.GetReferencedObject(ctx, c.Item, "Maker")
	if err != nil {
		t.Fatalf("GetReferencedObject: %v", err)
	}
	byManager, err := wm.ReferencedBy(ctx, c.Item, mm, "")
	if err != nil {
		t.Fatalf("ReferencedBy: %v", err)
	}
	if byType != byManager || byType.(*maker).Name != "Acme" {
		t.Error("both lookups should return the cached maker")
	}

	if _, err := wm.GetReferencedObject(ctx, c.Item, "Crate"); !errors.Is(err, ErrNoReference) {
		t.Errorf("GetReferencedObject(Crate) = %v, want ErrNoReference", err)
	}
	cm := mustManager(t, d, "Crate")
	if _, err := wm.ReferencedBy(ctx, c.Item, cm, "Box"); !errors.Is(err, ErrNoReference) {
		t.Errorf("ReferencedBy(Crate) = %v, want ErrNoReference", err)
	}
}

func TestMemberKind(t *testing.T) {
	d, _ := newTestDirectory(t, true)
	cm := mustManager(t, d, "Crate")

	if k, err := cm.MemberKind("Label"); err != nil || k != KindString {
		t.Errorf("MemberKind(Label) = %s, %v", k, err)
	}
	if k, err := cm.MemberKind("Item"); err != nil || k != KindNullable {
		t.Errorf("MemberKind(Item) = %s, %v", k, err)
	}
	if _, err := cm.MemberKind("Colour"); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("MemberKind(Colour) = %v", err)
	}
}

func TestDottedPathMatchesReference(t *testing.T) {
	d, exec := newTestDirectory(t, true)
	_, c := seedPaths(t, d, exec)
	wm := mustManager(t, d, "Widget")
	mm := mustManager(t, d, "Maker")
	ctx := context.Background()

	viaPath, err := wm.GetMemberValue(ctx, c.Item, "Maker.Name")
	if err != nil {
		t.Fatalf("GetMemberValue: %v", err)
	}
	ref, err := wm.GetReferencedObject(ctx, c.Item, "Maker")
	if err != nil {
		t.Fatalf("GetReferencedObject: %v", err)
	}
	direct, err := mm.GetMemberValue(ctx, ref, "Name")
	if err != nil {
		t.Fatalf("GetMemberValue: %v", err)
	}
	if viaPath != direct {
		t.Errorf("path = %v, reference = %v", viaPath, direct)
	}
}

func TestSetMemberValue_InvalidValue(t *testing.T) {
	d, exec := newTestDirectory(t, true)
	cm, c := seedPaths(t, d, exec)
	wm := mustManager(t, d, "Widget")
	ctx := context.Background()

	if err := cm.SetMemberValue(ctx, c, "Item.MakerID", "ten"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetMemberValue(ten) = %v, want ErrInvalidValue", err)
	}
	if err := wm.SetFieldValue(c.Item, "weight", "heavy"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("SetFieldValue(heavy) = %v, want ErrInvalidValue", err)
	}
	if c.Item.MakerID != 10 {
		t.Errorf("MakerID = %d, a rejected value must not change it", c.Item.MakerID)
	}
}
