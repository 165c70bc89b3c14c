package pack

import (
	"errors"
	"testing"
)

func pointType(t *testing.T) *Type {
	t.Helper()
	typ, err := NewType("Point", []Field{
		{Name: "x", Type: Float()},
		{Name: "y", Type: Float()},
	})
	if err != nil {
		t.Fatalf("building Point type: %v", err)
	}
	return typ
}

func boxType(t *testing.T, point *Type) *Type {
	t.Helper()
	typ, err := NewType("BoundingBox", []Field{
		{Name: "topLeft", Type: PackOf(point)},
		{Name: "bottomRight", Type: PackOf(point)},
	}, WithInvariant(RuleInvariant(
		"topLeft.x <= bottomRight.x && topLeft.y >= bottomRight.y",
	)))
	if err != nil {
		t.Fatalf("building BoundingBox type: %v", err)
	}
	return typ
}

func dateType(t *testing.T) *Type {
	t.Helper()
	typ, err := NewType("Date", []Field{
		{Name: "year", Type: Int(), Directives: []Directive{Default(1970)}},
		{Name: "month", Type: Int(), Directives: []Directive{Default(1), WithinRange{Min: 1, Max: 12}}},
		{Name: "day", Type: Int(), Directives: []Directive{Default(1), WithinRange{Min: 1, Max: 31}}},
	})
	if err != nil {
		t.Fatalf("building Date type: %v", err)
	}
	return typ
}

func dateOrdinal(d *Instance) int {
	year := d.MustGet("year").(int)
	month := d.MustGet("month").(int)
	day := d.MustGet("day").(int)
	return year*10000 + month*100 + day
}

func dateRangeType(t *testing.T, date *Type) *Type {
	t.Helper()
	invariant := func(inst *Instance, changing map[string]any) error {
		get := func(name string) *Instance {
			if v, ok := changing[name]; ok {
				return v.(*Instance)
			}
			v, err := inst.Get(name)
			if err != nil {
				return nil
			}
			return v.(*Instance)
		}
		start, end := get("start"), get("end")
		if start == nil || end == nil {
			return nil
		}
		if dateOrdinal(start) > dateOrdinal(end) {
			return errors.New("start date is after end date")
		}
		return nil
	}
	typ, err := NewType("DateRange", []Field{
		{Name: "start", Type: PackOf(date)},
		{Name: "end", Type: PackOf(date)},
	}, WithInvariant(invariant))
	if err != nil {
		t.Fatalf("building DateRange type: %v", err)
	}
	return typ
}

func mustFloat(t *testing.T, inst *Instance, path string) float64 {
	t.Helper()
	v, err := inst.GetValue(path)
	if err != nil {
		t.Fatalf("getting %q: %v", path, err)
	}
	return v.(float64)
}

func mustInt(t *testing.T, inst *Instance, path string) int {
	t.Helper()
	v, err := inst.GetValue(path)
	if err != nil {
		t.Fatalf("getting %q: %v", path, err)
	}
	return v.(int)
}
