package pack

import (
	"fmt"
	"strings"
)

// Type is a built pack type: the ordered field descriptor table plus the
// behaviors synthesized (or preserved) for it. Build a Type once with
// NewType and share it; instances are created through New and friends.
type Type struct {
	name   string
	fields []*fieldDescriptor
	index  map[string]*fieldDescriptor

	invariant Invariant
	ctor      Constructor
	eq        func(a, b *Instance) bool
	str       func(*Instance) string

	// plain points at the underlying type when this is the derived
	// observed variant, nil otherwise.
	plain *Type
}

// NewType builds a pack type from an ordered field declaration list.
// Field discovery order is preserved and equals declaration order. All
// configuration problems (zero fields, duplicate or reserved names, a
// default value failing validation) are fatal here, never deferred to
// first use.
func NewType(name string, fields []Field, opts ...TypeOption) (*Type, error) {
	cfg := applyTypeOptions(opts)

	if name == "" {
		return nil, configErrorf(name, "", "pack type name must not be empty")
	}
	if len(fields) == 0 {
		return nil, configErrorf(name, "", "unable to find any fields in pack type")
	}

	declared := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return nil, configErrorf(name, f.Name, "field name must not be empty")
		}
		if strings.Contains(f.Name, ".") {
			return nil, configErrorf(name, f.Name, "field name must not contain '.'")
		}
		if _, dup := declared[f.Name]; dup {
			return nil, configErrorf(name, f.Name, "field declared twice")
		}
		declared[f.Name] = struct{}{}
	}

	// The serializer-backing names derived from each field must stay
	// free; a collision means the descriptor table cannot be addressed
	// unambiguously.
	for _, f := range fields {
		for _, reserved := range []string{implKey(f.Name), serializerKey(f.Name)} {
			if _, taken := declared[reserved]; taken {
				return nil, configErrorf(name, f.Name, "reserved name %q derived from field name is also declared", reserved)
			}
		}
	}

	t := &Type{
		name:      name,
		index:     make(map[string]*fieldDescriptor, len(fields)),
		invariant: cfg.invariant,
		ctor:      cfg.constructor,
		eq:        cfg.equality,
		str:       cfg.stringer,
	}

	for _, f := range fields {
		ser, remaining, err := cfg.registry.Create(f.Type, f.Directives)
		if err != nil {
			return nil, &ConfigError{Type: name, Field: f.Name, Err: err}
		}

		def, remaining := extractDefault(remaining)
		for _, d := range remaining {
			cfg.logger.LogBuild(BuildEvent{
				Type:    name,
				Field:   f.Name,
				Message: fmt.Sprintf("unrecognized directive %T ignored", d),
			})
		}

		var defaultVal any
		if def != nil {
			defaultVal = def.value
		} else {
			defaultVal, err = ser.Default()
			if err != nil {
				return nil, &ConfigError{Type: name, Field: f.Name, Err: err}
			}
		}
		if err := ser.Validate(defaultVal); err != nil {
			return nil, configErrorf(name, f.Name, "the default value %v fails the validation checks: %v", defaultVal, err)
		}

		desc := &fieldDescriptor{
			basename:   f.Name,
			serializer: ser,
			defaultVal: defaultVal,
			declared:   f.Type,
		}
		t.fields = append(t.fields, desc)
		t.index[f.Name] = desc
	}

	return t, nil
}

// MustNewType is NewType panicking on configuration errors. Intended for
// package-level pack type declarations.
func MustNewType(name string, fields []Field, opts ...TypeOption) *Type {
	t, err := NewType(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func extractDefault(directives []Directive) (*defaultDirective, []Directive) {
	var def *defaultDirective
	var rest []Directive
	for _, d := range directives {
		if dd, ok := d.(defaultDirective); ok && def == nil {
			copied := dd
			def = &copied
			continue
		}
		rest = append(rest, d)
	}
	return def, rest
}

// Name returns the pack type's name.
func (t *Type) Name() string { return t.name }

// FieldNames returns the declared field names in declaration order.
func (t *Type) FieldNames() []string {
	names := make([]string, len(t.fields))
	for i, desc := range t.fields {
		names[i] = desc.basename
	}
	return names
}

// FieldSerializer returns the serializer resolved for the named field.
func (t *Type) FieldSerializer(name string) (Serializer, bool) {
	desc, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return desc.serializer, true
}

// FieldDefault returns the build-time default for the named field.
func (t *Type) FieldDefault(name string) (any, bool) {
	desc, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return desc.defaultVal, true
}

// HasField reports whether name is a declared field.
func (t *Type) HasField(name string) bool {
	_, ok := t.index[name]
	return ok
}

// IsObserved reports whether t is the derived observed variant of another
// pack type.
func (t *Type) IsObserved() bool { return t.plain != nil }

// Underlying returns the plain pack type: t itself, or the type an
// observed variant derives from.
func (t *Type) Underlying() *Type {
	if t.plain != nil {
		return t.plain
	}
	return t
}

func (t *Type) invariantFn() Invariant { return t.invariant }

// NestedFieldNames returns every leaf field path reachable from t,
// dot-joined, in declaration order.
func NestedFieldNames(t *Type) []string {
	var names []string
	for _, desc := range t.fields {
		if desc.declared.Kind == KindPack && desc.declared.Pack != nil {
			for _, sub := range NestedFieldNames(desc.declared.Pack) {
				names = append(names, desc.basename+"."+sub)
			}
			continue
		}
		names = append(names, desc.basename)
	}
	return names
}
