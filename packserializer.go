package pack

import "fmt"

// PackSerializer lets a pack type participate in the field-serializer
// protocol, so packs nest inside other serializable containers at any
// depth. Each field is stored under key.fieldName, delegating to the
// field's own serializer.
type PackSerializer struct {
	typ *Type
}

// NewPackSerializer constructs the serializer bridge for a pack type.
func NewPackSerializer(t *Type) *PackSerializer {
	return &PackSerializer{typ: t.Underlying()}
}

// PackType returns the plain pack type this serializer bridges.
func (s *PackSerializer) PackType() *Type { return s.typ }

func (s *PackSerializer) fieldKey(key, basename string) string {
	return key + "." + basename
}

// Default constructs a default-valued plain instance.
func (s *PackSerializer) Default() (any, error) {
	return s.typ.New()
}

// Validate rejects values that are not instances of the bridged type.
func (s *PackSerializer) Validate(value any) error {
	inst, ok := value.(*Instance)
	if !ok || inst == nil {
		return fmt.Errorf("expected a %s pack instance, got %T", s.typ.name, value)
	}
	if inst.typ.Underlying() != s.typ {
		return fmt.Errorf("expected a %s pack instance, got %s", s.typ.name, inst.typ.name)
	}
	return nil
}

// Has reports whether the store holds this pack's first field under key.
func (s *PackSerializer) Has(st Store, key string) (bool, error) {
	first := s.typ.fields[0]
	return first.serializer.Has(st, s.fieldKey(key, first.basename))
}

// Remove deletes every field's entry under key.
func (s *PackSerializer) Remove(st Store, key string) error {
	for _, desc := range s.typ.fields {
		if err := desc.serializer.Remove(st, s.fieldKey(key, desc.basename)); err != nil {
			return err
		}
	}
	return nil
}

// Write stores every field's current value under key.fieldName inside
// one batch scope, so nested writes appear atomic to external observers.
func (s *PackSerializer) Write(st Store, key string, value any) error {
	if err := s.Validate(value); err != nil {
		return err
	}
	inst := value.(*Instance)

	end := st.BeginBatch()
	defer end()
	for _, desc := range s.typ.fields {
		fieldValue, err := inst.Get(desc.basename)
		if err != nil {
			return err
		}
		if err := desc.serializer.Write(st, s.fieldKey(key, desc.basename), fieldValue); err != nil {
			return err
		}
	}
	return nil
}

// Read produces a fresh observed instance bound to (st, key, s), with
// every field's value read from key.fieldName.
func (s *PackSerializer) Read(st Store, key string) (any, error) {
	values, err := s.readValues(st, key)
	if err != nil {
		return nil, err
	}
	return newObserved(s.typ, st, key, s, values)
}

// ReadInto reads every field and commits them as one multi-value write
// onto an existing instance, refreshing it in place without allocating a
// new identity.
func (s *PackSerializer) ReadInto(st Store, key string, inst *Instance) error {
	if err := s.Validate(inst); err != nil {
		return err
	}
	values, err := s.readValues(st, key)
	if err != nil {
		return err
	}
	return inst.writeValues(values)
}

func (s *PackSerializer) readValues(st Store, key string) (map[string]any, error) {
	values := make(map[string]any, len(s.typ.fields))
	for _, desc := range s.typ.fields {
		value, err := desc.serializer.Read(st, s.fieldKey(key, desc.basename))
		if err != nil {
			return nil, err
		}
		values[desc.basename] = value
	}
	return values, nil
}

// SupportsCaching reports whether every field's serializer supports
// caching; a pack is cache-safe only if all its parts are.
func (s *PackSerializer) SupportsCaching() bool {
	for _, desc := range s.typ.fields {
		if !desc.serializer.SupportsCaching() {
			return false
		}
	}
	return true
}

// packInstanceOf validates that a value is an instance of a particular
// pack type, observed or plain.
type packInstanceOf struct {
	typ *Type
}

// Validate implements Validator.
func (v packInstanceOf) Validate(value any) error {
	inst, ok := value.(*Instance)
	if !ok || inst == nil {
		return fmt.Errorf("value must be a %s pack instance, got %T", v.typ.name, value)
	}
	if inst.typ.Underlying() != v.typ.Underlying() {
		return fmt.Errorf("value must be a %s pack instance, got %s", v.typ.name, inst.typ.name)
	}
	return nil
}

// packFactory resolves KindPack declared types to a validated
// PackSerializer. Registered in the default registry so any
// container-of-pack composes transparently.
type packFactory struct{}

func (packFactory) CanSerialize(dt DataType) bool {
	return dt.Kind == KindPack && dt.Pack != nil
}

func (packFactory) Create(dt DataType, directives []Directive) (Serializer, []Directive, error) {
	validators, rest := splitValidatorDirectives(directives)
	all := append([]Validator{NotNil{}, packInstanceOf{typ: dt.Pack}}, validators...)
	return NewValidatedSerializer(NewPackSerializer(dt.Pack), all), rest, nil
}
