package pack

import (
	"fmt"
	"strconv"
)

// intSerializer codecs int fields as base-10 strings.
type intSerializer struct{}

func (intSerializer) Default() (any, error) { return 0, nil }

func (intSerializer) Validate(value any) error {
	if _, ok := value.(int); !ok {
		return fmt.Errorf("expected int, got %T", value)
	}
	return nil
}

func (s intSerializer) Has(st Store, key string) (bool, error) { return st.Has(key) }
func (s intSerializer) Remove(st Store, key string) error      { return st.Delete(key) }

func (s intSerializer) Write(st Store, key string, value any) error {
	if err := s.Validate(value); err != nil {
		return err
	}
	return st.Set(key, strconv.Itoa(value.(int)))
}

func (s intSerializer) Read(st Store, key string) (any, error) {
	raw, ok, err := st.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.Default()
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("pack: key %q holds %q, not an int: %w", key, raw, err)
	}
	return parsed, nil
}

func (intSerializer) SupportsCaching() bool { return true }

// floatSerializer codecs float64 fields with full round-trip precision.
type floatSerializer struct{}

func (floatSerializer) Default() (any, error) { return float64(0), nil }

func (floatSerializer) Validate(value any) error {
	if _, ok := value.(float64); !ok {
		return fmt.Errorf("expected float64, got %T", value)
	}
	return nil
}

func (s floatSerializer) Has(st Store, key string) (bool, error) { return st.Has(key) }
func (s floatSerializer) Remove(st Store, key string) error      { return st.Delete(key) }

func (s floatSerializer) Write(st Store, key string, value any) error {
	if err := s.Validate(value); err != nil {
		return err
	}
	return st.Set(key, strconv.FormatFloat(value.(float64), 'g', -1, 64))
}

func (s floatSerializer) Read(st Store, key string) (any, error) {
	raw, ok, err := st.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.Default()
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("pack: key %q holds %q, not a float: %w", key, raw, err)
	}
	return parsed, nil
}

func (floatSerializer) SupportsCaching() bool { return true }

// boolSerializer codecs bool fields as "true"/"false".
type boolSerializer struct{}

func (boolSerializer) Default() (any, error) { return false, nil }

func (boolSerializer) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

func (s boolSerializer) Has(st Store, key string) (bool, error) { return st.Has(key) }
func (s boolSerializer) Remove(st Store, key string) error      { return st.Delete(key) }

func (s boolSerializer) Write(st Store, key string, value any) error {
	if err := s.Validate(value); err != nil {
		return err
	}
	return st.Set(key, strconv.FormatBool(value.(bool)))
}

func (s boolSerializer) Read(st Store, key string) (any, error) {
	raw, ok, err := st.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.Default()
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("pack: key %q holds %q, not a bool: %w", key, raw, err)
	}
	return parsed, nil
}

func (boolSerializer) SupportsCaching() bool { return true }

// stringSerializer stores strings verbatim.
type stringSerializer struct{}

func (stringSerializer) Default() (any, error) { return "", nil }

func (stringSerializer) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

func (s stringSerializer) Has(st Store, key string) (bool, error) { return st.Has(key) }
func (s stringSerializer) Remove(st Store, key string) error      { return st.Delete(key) }

func (s stringSerializer) Write(st Store, key string, value any) error {
	if err := s.Validate(value); err != nil {
		return err
	}
	return st.Set(key, value.(string))
}

func (s stringSerializer) Read(st Store, key string) (any, error) {
	raw, ok, err := st.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.Default()
	}
	return raw, nil
}

func (stringSerializer) SupportsCaching() bool { return true }

// scalarFactory resolves the built-in scalar kinds, consuming validator
// directives by wrapping the base serializer.
type scalarFactory struct{}

func (scalarFactory) CanSerialize(dt DataType) bool {
	switch dt.Kind {
	case KindInt, KindFloat, KindBool, KindString:
		return true
	default:
		return false
	}
}

func (scalarFactory) Create(dt DataType, directives []Directive) (Serializer, []Directive, error) {
	var base Serializer
	switch dt.Kind {
	case KindInt:
		base = intSerializer{}
	case KindFloat:
		base = floatSerializer{}
	case KindBool:
		base = boolSerializer{}
	case KindString:
		base = stringSerializer{}
	default:
		return nil, nil, fmt.Errorf("pack: scalar factory cannot serialize %s", dt)
	}
	validators, rest := splitValidatorDirectives(directives)
	if len(validators) == 0 {
		return base, rest, nil
	}
	return NewValidatedSerializer(base, validators), rest, nil
}
