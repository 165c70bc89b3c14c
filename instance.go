package pack

import (
	"fmt"
	"reflect"
	"strings"
)

// parentRef is the non-owning back-link from a nested pack instance to
// the instance that owns it and the field name it lives under. It is
// only ever followed for invariant lookup.
type parentRef struct {
	parent *Instance
	name   string
}

// Instance is one pack value: a slot per field descriptor, an optional
// parent reference when nested inside another pack's field, and, for
// observed instances, the store binding.
type Instance struct {
	typ      *Type
	slots    map[string]any
	attrs    map[string]any
	parent   *parentRef
	observed *observedState
}

// IsPack reports whether value is a pack instance. The check is a
// capability marker; it never invokes behavior on value.
func IsPack(value any) bool {
	inst, ok := value.(*Instance)
	return ok && inst != nil
}

func (t *Type) newBare() *Instance {
	return &Instance{
		typ:   t,
		slots: make(map[string]any, len(t.fields)),
	}
}

// New constructs an instance binding the given values to fields in
// declaration order. Fields left unbound receive a deep copy of their
// default. All bindings commit together through the multi-value write
// path, so a cross-field invariant sees the complete initial state once.
func (t *Type) New(positional ...any) (*Instance, error) {
	return t.NewWith(positional, nil)
}

// NewNamed constructs an instance from keyword bindings only.
func (t *Type) NewNamed(named map[string]any) (*Instance, error) {
	return t.NewWith(nil, named)
}

// NewWith constructs an instance from positional and keyword bindings.
// Binding an undeclared name, or binding a field both positionally and
// by name, fails the call without creating an instance.
func (t *Type) NewWith(positional []any, named map[string]any) (*Instance, error) {
	inst := t.newBare()
	if t.ctor != nil {
		if err := t.ctor(inst, positional, named); err != nil {
			return nil, err
		}
		return inst, nil
	}
	values, err := t.bindArgs(positional, named)
	if err != nil {
		return nil, err
	}
	if err := inst.writeValues(values); err != nil {
		return nil, err
	}
	return inst, nil
}

// MustNew is New panicking on error. Intended for tests and examples.
func (t *Type) MustNew(positional ...any) *Instance {
	inst, err := t.New(positional...)
	if err != nil {
		panic(err)
	}
	return inst
}

func (t *Type) bindArgs(positional []any, named map[string]any) (map[string]any, error) {
	if len(positional) > len(t.fields) {
		return nil, callErrorf(t.name, "", "constructor takes at most %d positional arguments (%d given)", len(t.fields), len(positional))
	}
	values := make(map[string]any, len(t.fields))
	for i, arg := range positional {
		values[t.fields[i].basename] = arg
	}
	for name, value := range named {
		if _, ok := t.index[name]; !ok {
			return nil, callErrorf(t.name, "", "constructor got an unexpected keyword argument %q", name)
		}
		if _, bound := values[name]; bound {
			return nil, callErrorf(t.name, "", "constructor got multiple values for argument %q", name)
		}
		values[name] = value
	}
	for _, desc := range t.fields {
		if _, bound := values[desc.basename]; bound {
			continue
		}
		copied, err := copyValue(desc.defaultVal)
		if err != nil {
			return nil, err
		}
		values[desc.basename] = copied
	}
	return values, nil
}

// Type returns the instance's pack type.
func (inst *Instance) Type() *Type { return inst.typ }

// Parent returns the owning instance and field name when inst is nested
// inside another pack's field.
func (inst *Instance) Parent() (*Instance, string, bool) {
	if inst.parent == nil {
		return nil, "", false
	}
	return inst.parent.parent, inst.parent.name, true
}

// Get returns the value stored for the named field.
func (inst *Instance) Get(name string) (any, error) {
	if _, ok := inst.typ.index[name]; !ok {
		return nil, callErrorf(inst.typ.name, name, "no field %q", name)
	}
	value, ok := inst.slots[implKey(name)]
	if !ok {
		return nil, callErrorf(inst.typ.name, name, "field %q is not set", name)
	}
	return value, nil
}

// MustGet is Get panicking on error. Intended for tests and examples.
func (inst *Instance) MustGet(name string) any {
	value, err := inst.Get(name)
	if err != nil {
		panic(err)
	}
	return value
}

// Set writes one field through the single-value write path, so invariants
// and parent propagation always run. Observed instances additionally
// mirror the mutation into their bound store.
func (inst *Instance) Set(name string, value any) error {
	if _, ok := inst.typ.index[name]; !ok {
		return callErrorf(inst.typ.name, name, "no field %q", name)
	}
	if err := inst.writeValues(map[string]any{name: value}); err != nil {
		return err
	}
	return inst.saveIfObserved()
}

// Attr returns a free-form attribute previously stored with SetAttr.
func (inst *Instance) Attr(name string) (any, bool) {
	value, ok := inst.attrs[name]
	return value, ok
}

// SetAttr stores a free-form, non-field attribute on the instance. Once
// an observed instance finishes construction its attribute set is closed:
// names not already present are rejected.
func (inst *Instance) SetAttr(name string, value any) error {
	if inst.observed != nil && inst.observed.frozen {
		if _, known := inst.attrs[name]; !known {
			return &FrozenError{Type: inst.typ.name, Attr: name}
		}
	}
	if inst.attrs == nil {
		inst.attrs = make(map[string]any)
	}
	inst.attrs[name] = value
	return nil
}

// writeValues is the single synchronization point all mutation passes
// through: ancestor-chain invariant pre-check on clones, per-field
// validation, local invariant, then commit with re-parenting. Any failure
// aborts with no partial effect.
func (inst *Instance) writeValues(values map[string]any) error {
	if err := checkParentInvariant(inst, values); err != nil {
		return err
	}
	for name, value := range values {
		desc, ok := inst.typ.index[name]
		if !ok {
			return callErrorf(inst.typ.name, name, "no field %q", name)
		}
		if err := desc.serializer.Validate(value); err != nil {
			return validationError(inst.typ.name, name, err)
		}
	}
	if inv := inst.typ.invariantFn(); inv != nil {
		if err := inv(inst, values); err != nil {
			return validationError(inst.typ.name, "", err)
		}
	}
	for name, value := range values {
		if old, ok := inst.slots[implKey(name)]; ok {
			if oldPack, ok := old.(*Instance); ok && oldPack != nil {
				oldPack.parent = nil
			}
		}
		if sub, ok := value.(*Instance); ok && sub != nil {
			// Ownership is single and exclusive: this instance becomes
			// the sub-pack's new parent, and any previous parent's link
			// was cleared when the sub-pack left that field.
			sub.parent = &parentRef{parent: inst, name: name}
		}
		inst.slots[implKey(name)] = value
	}
	return nil
}

// checkParentInvariant validates the whole ancestor chain against the
// proposed values before anything mutates: the current instance is cloned,
// the values are applied to the clone, and each ancestor's invariant runs
// as if the clone were substituted into its field.
func checkParentInvariant(inst *Instance, values map[string]any) error {
	if inst.parent == nil {
		return nil
	}
	parent := inst.parent.parent
	fieldName := inst.parent.name

	clone, err := Clone(inst)
	if err != nil {
		return err
	}
	if err := clone.SetValues(values); err != nil {
		return err
	}

	updated := map[string]any{fieldName: clone}
	if inv := parent.typ.invariantFn(); inv != nil {
		if err := inv(parent, updated); err != nil {
			return validationError(parent.typ.name, fieldName, err)
		}
	}
	return checkParentInvariant(parent, updated)
}

// Equal compares field-by-field. Observed instances compare equal to
// plain instances of their underlying type; a caller-supplied equality
// predicate applies when both sides share the exact same type.
func (inst *Instance) Equal(other *Instance) bool {
	if inst == nil || other == nil {
		return inst == other
	}
	if inst.typ.Underlying() != other.typ.Underlying() {
		return false
	}
	if inst.typ == other.typ && inst.typ.eq != nil {
		return inst.typ.eq(inst, other)
	}
	for _, desc := range inst.typ.fields {
		a, aok := inst.slots[implKey(desc.basename)]
		b, bok := other.slots[implKey(desc.basename)]
		if aok != bok {
			return false
		}
		if !valueEqual(a, b) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	pa, aIsPack := a.(*Instance)
	pb, bIsPack := b.(*Instance)
	if aIsPack || bIsPack {
		if !aIsPack || !bIsPack {
			return false
		}
		return pa.Equal(pb)
	}
	return reflect.DeepEqual(a, b)
}

// String renders "Name(field=value, ...)", quoting strings, with an
// "Observed(...)" wrapper for store-bound instances. A caller-supplied
// stringer replaces the synthesized rendering for plain instances.
func (inst *Instance) String() string {
	if inst == nil {
		return "<nil>"
	}
	if inst.observed == nil && inst.typ.str != nil {
		return inst.typ.str(inst)
	}
	parts := make([]string, 0, len(inst.typ.fields))
	for _, desc := range inst.typ.fields {
		value, ok := inst.slots[implKey(desc.basename)]
		if !ok {
			parts = append(parts, fmt.Sprintf("%s=<unset>", desc.basename))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", desc.basename, quoteIfString(value)))
	}
	rendered := fmt.Sprintf("%s(%s)", inst.typ.name, strings.Join(parts, ", "))
	if inst.observed != nil {
		return fmt.Sprintf("Observed(%s)", rendered)
	}
	return rendered
}

func quoteIfString(value any) string {
	if s, ok := value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(value)
}

// snapshot exports the currently set field values for rule-expression
// environments, flattening nested packs into maps.
func (inst *Instance) snapshot() map[string]any {
	env := make(map[string]any, len(inst.typ.fields))
	for _, desc := range inst.typ.fields {
		if value, ok := inst.slots[implKey(desc.basename)]; ok {
			env[desc.basename] = exportValue(value)
		}
	}
	return env
}

// ValueMap returns the instance's field values as a plain map, with
// nested packs rendered as nested maps.
func (inst *Instance) ValueMap() map[string]any {
	return inst.snapshot()
}

func exportValue(value any) any {
	if sub, ok := value.(*Instance); ok && sub != nil {
		return sub.ValueMap()
	}
	return value
}
