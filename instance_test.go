package pack

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestConstructorBindings(t *testing.T) {
	point := pointType(t)

	t.Run("positional in declaration order", func(t *testing.T) {
		p, err := point.New(3.0, 4.0)
		if err != nil {
			t.Fatalf("constructing: %v", err)
		}
		if x := p.MustGet("x").(float64); x != 3.0 {
			t.Fatalf("x = %v, want 3", x)
		}
		if y := p.MustGet("y").(float64); y != 4.0 {
			t.Fatalf("y = %v, want 4", y)
		}
	})

	t.Run("keyword", func(t *testing.T) {
		p, err := point.NewNamed(map[string]any{"y": 4.0})
		if err != nil {
			t.Fatalf("constructing: %v", err)
		}
		if x := p.MustGet("x").(float64); x != 0.0 {
			t.Fatalf("unbound x should default to 0, got %v", x)
		}
		if y := p.MustGet("y").(float64); y != 4.0 {
			t.Fatalf("y = %v, want 4", y)
		}
	})

	t.Run("unknown keyword", func(t *testing.T) {
		_, err := point.NewNamed(map[string]any{"z": 1.0})
		if !IsCallError(err) {
			t.Fatalf("expected CallError for unknown keyword, got %v", err)
		}
	})

	t.Run("positional and keyword for the same field", func(t *testing.T) {
		_, err := point.NewWith([]any{1.0}, map[string]any{"x": 2.0})
		if !IsCallError(err) {
			t.Fatalf("expected CallError for duplicate binding, got %v", err)
		}
	})

	t.Run("too many positionals", func(t *testing.T) {
		_, err := point.New(1.0, 2.0, 3.0)
		if !IsCallError(err) {
			t.Fatalf("expected CallError for excess positionals, got %v", err)
		}
	})

	t.Run("mistyped argument", func(t *testing.T) {
		_, err := point.New("not a float")
		if !IsValidationError(err) {
			t.Fatalf("expected ValidationError for mistyped argument, got %v", err)
		}
	})
}

func TestDefaultConstructedInstancesAreEqual(t *testing.T) {
	point := pointType(t)
	a := point.MustNew()
	b := point.MustNew()
	if !a.Equal(b) {
		t.Fatalf("two default-constructed instances must compare equal")
	}
	if a == b {
		t.Fatalf("instances must be distinct values")
	}
}

func TestDefaultsAreDeepCopied(t *testing.T) {
	date := dateType(t)
	a := date.MustNew()
	b := date.MustNew()
	if err := a.Set("year", 2001); err != nil {
		t.Fatalf("setting year: %v", err)
	}
	if got := b.MustGet("year").(int); got != 1970 {
		t.Fatalf("mutating one instance leaked into another: year = %d", got)
	}
}

func TestNestedPackDefaultsAreIndependent(t *testing.T) {
	point := pointType(t)
	box := boxType(t, point)

	a := box.MustNew()
	b := box.MustNew()
	if err := a.SetValue("topLeft.x", -5.0); err != nil {
		t.Fatalf("setting nested value: %v", err)
	}
	if got := mustFloat(t, b, "topLeft.x"); got != 0.0 {
		t.Fatalf("nested default shared between instances: topLeft.x = %v", got)
	}
}

func TestCustomConstructor(t *testing.T) {
	ctor := func(inst *Instance, positional []any, named map[string]any) error {
		if len(positional) != 1 {
			return fmt.Errorf("want exactly one argument")
		}
		both := positional[0].(float64)
		return inst.SetValues(map[string]any{"x": both, "y": both})
	}
	typ, err := NewType("Diag", []Field{
		{Name: "x", Type: Float()},
		{Name: "y", Type: Float()},
	}, WithConstructor(ctor))
	if err != nil {
		t.Fatalf("building type: %v", err)
	}
	p, err := typ.New(7.0)
	if err != nil {
		t.Fatalf("constructing: %v", err)
	}
	if p.MustGet("x") != p.MustGet("y") {
		t.Fatalf("custom constructor did not run")
	}
}

func TestCustomEqualityAndStringer(t *testing.T) {
	eq := func(a, b *Instance) bool {
		return a.MustGet("x") == b.MustGet("x")
	}
	str := func(inst *Instance) string {
		return fmt.Sprintf("<x=%v>", inst.MustGet("x"))
	}
	typ, err := NewType("XOnly", []Field{
		{Name: "x", Type: Float()},
		{Name: "y", Type: Float()},
	}, WithEquality(eq), WithStringer(str))
	if err != nil {
		t.Fatalf("building type: %v", err)
	}

	a := typ.MustNew(1.0, 2.0)
	b := typ.MustNew(1.0, 99.0)
	if !a.Equal(b) {
		t.Fatalf("custom equality ignored")
	}
	if got := a.String(); got != "<x=1>" {
		t.Fatalf("custom stringer ignored, got %q", got)
	}
}

func TestSynthesizedString(t *testing.T) {
	typ, err := NewType("Tag", []Field{
		{Name: "label", Type: String(), Directives: []Directive{Default("hi")}},
		{Name: "count", Type: Int()},
	})
	if err != nil {
		t.Fatalf("building type: %v", err)
	}
	got := typ.MustNew().String()
	if got != `Tag(label="hi", count=0)` {
		t.Fatalf("rendered %q", got)
	}
}

func TestEqualAcrossTypes(t *testing.T) {
	point := pointType(t)
	other, err := NewType("Point2", []Field{
		{Name: "x", Type: Float()},
		{Name: "y", Type: Float()},
	})
	if err != nil {
		t.Fatalf("building type: %v", err)
	}
	if point.MustNew().Equal(other.MustNew()) {
		t.Fatalf("instances of distinct types must not compare equal")
	}
	var nilInst *Instance
	if point.MustNew().Equal(nilInst) {
		t.Fatalf("non-nil must not equal nil")
	}
}

func TestInvariantRejectsWithoutPartialMutation(t *testing.T) {
	point := pointType(t)
	box := boxType(t, point)

	b := box.MustNew(point.MustNew(0.0, 10.0), point.MustNew(10.0, 0.0))

	err := b.SetValue("topLeft.x", 50.0)
	if !IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if got := mustFloat(t, b, "topLeft.x"); got != 0.0 {
		t.Fatalf("failed write left partial state: topLeft.x = %v", got)
	}
}

func TestConstructionRunsInvariantOnce(t *testing.T) {
	calls := 0
	inv := func(inst *Instance, changing map[string]any) error {
		calls++
		return nil
	}
	typ, err := NewType("Counted", []Field{
		{Name: "a", Type: Int()},
		{Name: "b", Type: Int()},
	}, WithInvariant(inv))
	if err != nil {
		t.Fatalf("building type: %v", err)
	}
	typ.MustNew(1, 2)
	if calls != 1 {
		t.Fatalf("constructor ran the invariant %d times, want once", calls)
	}
}

func TestConstructionInvariantFailure(t *testing.T) {
	inv := func(inst *Instance, changing map[string]any) error {
		return errors.New("never valid")
	}
	typ, err := NewType("Never", []Field{
		{Name: "a", Type: Int()},
	}, WithInvariant(inv))
	if err != nil {
		t.Fatalf("building type: %v", err)
	}
	if _, err := typ.New(1); !IsValidationError(err) {
		t.Fatalf("expected ValidationError from construction, got %v", err)
	}
}

func TestNestedWritePropagatesToAncestors(t *testing.T) {
	date := dateType(t)
	dateRange := dateRangeType(t, date)

	r := dateRange.MustNew(
		date.MustNew(2024, 1, 1),
		date.MustNew(2024, 12, 31),
	)
	start := r.MustGet("start").(*Instance)

	// Pushing start past end must fail through the parent invariant, and
	// leave both the nested pack and the parent untouched.
	err := start.Set("year", 2030)
	if !IsValidationError(err) {
		t.Fatalf("expected ValidationError via parent invariant, got %v", err)
	}
	if got := start.MustGet("year").(int); got != 2024 {
		t.Fatalf("nested pack mutated despite parent rejection: year = %d", got)
	}
	if got := mustInt(t, r, "start.year"); got != 2024 {
		t.Fatalf("parent sees mutated state: start.year = %d", got)
	}

	// A write the whole chain accepts commits normally.
	if err := start.Set("month", 6); err != nil {
		t.Fatalf("valid nested write rejected: %v", err)
	}
	if got := mustInt(t, r, "start.month"); got != 6 {
		t.Fatalf("valid nested write not visible from parent: %d", got)
	}
}

func TestReplacingNestedPackReparents(t *testing.T) {
	point := pointType(t)
	box := boxType(t, point)

	b := box.MustNew(point.MustNew(0.0, 10.0), point.MustNew(10.0, 0.0))
	old := b.MustGet("topLeft").(*Instance)
	replacement := point.MustNew(1.0, 9.0)

	if err := b.Set("topLeft", replacement); err != nil {
		t.Fatalf("replacing nested pack: %v", err)
	}

	if parent, name, ok := replacement.Parent(); !ok || parent != b || name != "topLeft" {
		t.Fatalf("replacement not re-parented: %v %q %v", parent, name, ok)
	}
	if _, _, ok := old.Parent(); ok {
		t.Fatalf("displaced pack still holds a stale parent link")
	}

	// The orphan is free again: writes no longer consult the old parent.
	if err := old.Set("x", 999.0); err != nil {
		t.Fatalf("orphaned pack still constrained by former parent: %v", err)
	}
}

func TestAttrs(t *testing.T) {
	point := pointType(t)
	p := point.MustNew()

	if err := p.SetAttr("note", "scratch"); err != nil {
		t.Fatalf("setting attr on plain instance: %v", err)
	}
	v, ok := p.Attr("note")
	if !ok || v != "scratch" {
		t.Fatalf("attr round-trip failed: %v %v", v, ok)
	}
}

func TestValueMapExportsNestedPacks(t *testing.T) {
	point := pointType(t)
	box := boxType(t, point)
	b := box.MustNew(point.MustNew(0.0, 10.0), point.MustNew(10.0, 0.0))

	m := b.ValueMap()
	tl, ok := m["topLeft"].(map[string]any)
	if !ok {
		t.Fatalf("nested pack not exported as a map: %T", m["topLeft"])
	}
	if tl["y"] != 10.0 {
		t.Fatalf("topLeft.y = %v, want 10", tl["y"])
	}
}

func TestGetErrors(t *testing.T) {
	point := pointType(t)
	p := point.MustNew()
	_, err := p.Get("missing")
	if !IsCallError(err) {
		t.Fatalf("expected CallError for unknown field, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Fatalf("error does not name the field: %v", err)
	}
}
