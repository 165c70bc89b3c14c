package pack

import "reflect"

// Clone produces a new, parent-less instance of the same pack type with
// every field deep-copied (recursively cloned for pack-typed fields). An
// observed instance clones into a plain instance of its underlying type.
func Clone(inst *Instance) (*Instance, error) {
	target := inst.typ.Underlying()
	out := target.newBare()
	values := make(map[string]any, len(target.fields))
	for _, desc := range target.fields {
		value, err := inst.Get(desc.basename)
		if err != nil {
			return nil, err
		}
		copied, err := copyValue(value)
		if err != nil {
			return nil, err
		}
		values[desc.basename] = copied
	}
	if err := out.writeValues(values); err != nil {
		return nil, err
	}
	return out, nil
}

// copyValue deep-copies a field value. Pack instances are cloned;
// everything else is copied structurally.
func copyValue(value any) (any, error) {
	if sub, ok := value.(*Instance); ok && sub != nil {
		return Clone(sub)
	}
	if value == nil {
		return nil, nil
	}
	return deepCopy(reflect.ValueOf(value)).Interface(), nil
}

func deepCopy(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(deepCopy(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := deepCopy(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(deepCopy(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(deepCopy(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(deepCopy(v.Index(i)))
		}
		return clone
	default:
		return v
	}
}
