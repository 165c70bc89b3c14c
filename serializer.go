package pack

import (
	"fmt"
	"sync"
)

// Serializer is the per-field codec capability. One serializer is resolved
// for every declared field at build time; it owns the field's default
// value, validation, and its representation in a Store.
type Serializer interface {
	// Default returns the type-appropriate default value.
	Default() (any, error)
	// Validate rejects values the field must never hold.
	Validate(value any) error
	// Has reports whether the store holds an entry for this field under key.
	Has(st Store, key string) (bool, error)
	// Remove deletes this field's entry under key.
	Remove(st Store, key string) error
	// Write stores value under key.
	Write(st Store, key string, value any) error
	// Read loads the value under key, falling back to the default when the
	// store has no entry.
	Read(st Store, key string) (any, error)
	// SupportsCaching reports whether read results may be cached.
	SupportsCaching() bool
}

// ValidatedSerializer decorates a serializer with extra validators that
// run before the inner serializer's own validation.
type ValidatedSerializer struct {
	Inner      Serializer
	Validators []Validator
}

// NewValidatedSerializer wraps inner, flattening nested ValidatedSerializer
// layers so validators accumulate on a single wrapper.
func NewValidatedSerializer(inner Serializer, validators []Validator) *ValidatedSerializer {
	if vs, ok := inner.(*ValidatedSerializer); ok {
		combined := append(append([]Validator{}, validators...), vs.Validators...)
		return &ValidatedSerializer{Inner: vs.Inner, Validators: combined}
	}
	return &ValidatedSerializer{Inner: inner, Validators: validators}
}

func (s *ValidatedSerializer) Default() (any, error) { return s.Inner.Default() }

func (s *ValidatedSerializer) Validate(value any) error {
	for _, v := range s.Validators {
		if err := v.Validate(value); err != nil {
			return err
		}
	}
	return s.Inner.Validate(value)
}

func (s *ValidatedSerializer) Has(st Store, key string) (bool, error) { return s.Inner.Has(st, key) }
func (s *ValidatedSerializer) Remove(st Store, key string) error      { return s.Inner.Remove(st, key) }

func (s *ValidatedSerializer) Write(st Store, key string, value any) error {
	if err := s.Validate(value); err != nil {
		return err
	}
	return s.Inner.Write(st, key, value)
}

func (s *ValidatedSerializer) Read(st Store, key string) (any, error) { return s.Inner.Read(st, key) }
func (s *ValidatedSerializer) SupportsCaching() bool                  { return s.Inner.SupportsCaching() }

// SerializerFactory resolves declared types to serializers. Create
// consumes the directives it understands and returns the remainder.
type SerializerFactory interface {
	CanSerialize(dt DataType) bool
	Create(dt DataType, directives []Directive) (Serializer, []Directive, error)
}

// Registry is the type-to-serializer resolver consulted once per field at
// build time. Factories are tried in registration order.
type Registry struct {
	mu        sync.RWMutex
	factories []SerializerFactory
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a factory to the resolution order.
func (r *Registry) Register(factory SerializerFactory) {
	if factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = append(r.factories, factory)
}

// Create resolves dt to a serializer, returning the directives no factory
// consumed. Validator directives are consumed here by wrapping the
// resolved serializer in a ValidatedSerializer.
func (r *Registry) Create(dt DataType, directives []Directive) (Serializer, []Directive, error) {
	r.mu.RLock()
	factories := append([]SerializerFactory{}, r.factories...)
	r.mu.RUnlock()

	for _, factory := range factories {
		if !factory.CanSerialize(dt) {
			continue
		}
		ser, remaining, err := factory.Create(dt, directives)
		if err != nil {
			return nil, nil, err
		}
		return ser, remaining, nil
	}
	return nil, nil, fmt.Errorf("pack: no serializer registered for type %s", dt)
}

// splitValidatorDirectives separates validator directives from the rest,
// preserving order within each group.
func splitValidatorDirectives(directives []Directive) ([]Validator, []Directive) {
	var validators []Validator
	var rest []Directive
	for _, d := range directives {
		if v, ok := d.(Validator); ok {
			validators = append(validators, v)
			continue
		}
		rest = append(rest, d)
	}
	return validators, rest
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the process-wide registry pre-populated with the
// scalar serializer factories and the pack serializer factory.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.Register(scalarFactory{})
		defaultRegistry.Register(packFactory{})
	})
	return defaultRegistry
}
