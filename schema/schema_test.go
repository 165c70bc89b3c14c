package schema

import (
	"testing"

	pack "github.com/goliatone/go-parampack"
)

const rangeDoc = `
packs:
  - name: FloatRange
    invariant: minimum <= maximum
    fields:
      - name: minimum
        type: float
      - name: maximum
        type: float
        default: 10
`

const sceneDoc = rangeDoc + `
  - name: Scene
    fields:
      - name: title
        type: string
        default: untitled
      - name: opacity
        type: float
        rules:
          - value >= 0.0 && value <= 1.0
      - name: window
        type: FloatRange
`

func TestLoadBuildsPackTypes(t *testing.T) {
	types, err := Load([]byte(sceneDoc))
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("expected 2 pack types, got %d", len(types))
	}

	scene := types["Scene"]
	if scene == nil {
		t.Fatalf("Scene type missing")
	}
	inst, err := scene.New()
	if err != nil {
		t.Fatalf("constructing: %v", err)
	}
	v, _ := inst.GetValue("title")
	if v != "untitled" {
		t.Fatalf("title default = %v", v)
	}
	// The integer default coerces onto the float field.
	if got, _ := inst.GetValue("window.maximum"); got != 10.0 {
		t.Fatalf("window.maximum default = %v, want 10", got)
	}
}

func TestLoadedRulesAndInvariantsEnforce(t *testing.T) {
	types, err := Load([]byte(sceneDoc))
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	inst := types["Scene"].MustNew()

	if err := inst.SetValue("opacity", 0.5); err != nil {
		t.Fatalf("valid opacity rejected: %v", err)
	}
	if err := inst.SetValue("opacity", 1.5); !pack.IsValidationError(err) {
		t.Fatalf("expected ValidationError from rule, got %v", err)
	}
	if err := inst.SetValue("window.minimum", 99.0); !pack.IsValidationError(err) {
		t.Fatalf("expected ValidationError from invariant, got %v", err)
	}
}

func TestLoadResolvesSeededTypes(t *testing.T) {
	point, err := pack.NewType("Point", []pack.Field{
		{Name: "x", Type: pack.Float()},
		{Name: "y", Type: pack.Float()},
	})
	if err != nil {
		t.Fatalf("building Point: %v", err)
	}

	doc := `
packs:
  - name: Segment
    fields:
      - name: start
        type: Point
      - name: end
        type: Point
`
	types, err := Load([]byte(doc), WithTypes(map[string]*pack.Type{"Point": point}))
	if err != nil {
		t.Fatalf("loading with seeded types: %v", err)
	}
	dt, err := types["Segment"].DataType("start")
	if err != nil {
		t.Fatalf("resolving start: %v", err)
	}
	if dt.Pack != point {
		t.Fatalf("seeded type not used for the nested field")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{name: "empty document", doc: "packs: []"},
		{name: "pack without name", doc: "packs:\n  - fields:\n      - name: x\n        type: int"},
		{name: "field without type", doc: "packs:\n  - name: P\n    fields:\n      - name: x"},
		{name: "unknown type", doc: "packs:\n  - name: P\n    fields:\n      - name: x\n        type: Mystery"},
		{name: "forward reference", doc: `
packs:
  - name: Outer
    fields:
      - name: inner
        type: Inner
  - name: Inner
    fields:
      - name: x
        type: int
`},
		{name: "duplicate pack", doc: `
packs:
  - name: P
    fields:
      - name: x
        type: int
  - name: P
    fields:
      - name: x
        type: int
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load([]byte(tc.doc)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
