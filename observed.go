package pack

import "sync"

// observedState binds an instance to one store key. Once frozen (after
// construction completes) the instance's attribute set is closed.
type observedState struct {
	store  Store
	key    string
	ser    *PackSerializer
	frozen bool
}

// observed-type registry: one derived variant per plain pack type,
// populated lazily, never evicted (pack types are process-lifetime).
var (
	observedMu    sync.Mutex
	observedTypes = make(map[*Type]*Type)
)

// ObservedType returns the derived observed variant for a plain pack
// type, creating and caching it on first request.
func ObservedType(t *Type) *Type {
	plain := t.Underlying()
	observedMu.Lock()
	defer observedMu.Unlock()
	if derived, ok := observedTypes[plain]; ok {
		return derived
	}
	derived := &Type{
		name:      plain.name,
		fields:    plain.fields,
		index:     plain.index,
		invariant: plain.invariant,
		eq:        plain.eq,
		str:       plain.str,
		plain:     plain,
	}
	observedTypes[plain] = derived
	return derived
}

// Observe binds a pack type to a store key and returns the store-backed
// instance. If the key already holds a serialized pack its values load;
// otherwise the type's defaults write first, so the store and the
// returned instance always agree.
func Observe(t *Type, st Store, key string) (*Instance, error) {
	ser := NewPackSerializer(t)
	has, err := ser.Has(st, key)
	if err != nil {
		return nil, err
	}
	if !has {
		def, err := ser.Default()
		if err != nil {
			return nil, err
		}
		if err := ser.Write(st, key, def); err != nil {
			return nil, err
		}
	}
	value, err := ser.Read(st, key)
	if err != nil {
		return nil, err
	}
	return value.(*Instance), nil
}

// IsObservedInstance reports whether inst is bound to a store.
func IsObservedInstance(inst *Instance) bool {
	return inst != nil && inst.observed != nil
}

// StoreBinding returns the store and key an observed instance mirrors
// into.
func (inst *Instance) StoreBinding() (Store, string, bool) {
	if inst.observed == nil {
		return nil, "", false
	}
	return inst.observed.store, inst.observed.key, true
}

// newObserved constructs a store-bound instance from field values already
// read out of the store. The values commit through the standard
// multi-value write path, so stored state that violates an invariant
// fails the read. The attribute set freezes once construction completes.
func newObserved(plain *Type, st Store, key string, ser *PackSerializer, values map[string]any) (*Instance, error) {
	inst := ObservedType(plain).newBare()
	inst.observed = &observedState{store: st, key: key, ser: ser}
	if err := inst.writeValues(values); err != nil {
		return nil, err
	}
	inst.observed.frozen = true
	return inst, nil
}

func (inst *Instance) saveIfObserved() error {
	if inst.observed == nil {
		return nil
	}
	return inst.save()
}

// save re-serializes the whole instance into the bound store and reads
// the result back into itself, inside one batch scope. The read-back
// matters because the store may canonicalize what was written; the
// in-memory mirror must reflect exactly what is retrievable.
func (inst *Instance) save() error {
	obs := inst.observed
	end := obs.store.BeginBatch()
	defer end()

	writeErr := obs.ser.Write(obs.store, obs.key, inst)
	readErr := obs.ser.ReadInto(obs.store, obs.key, inst)
	if writeErr != nil {
		return writeErr
	}
	return readErr
}
