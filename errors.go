package pack

import (
	"errors"
	"fmt"
)

// ConfigError reports a fatal problem detected while a pack type is being
// built: zero fields, duplicate or reserved names, or a default value that
// fails validation. Build errors are never deferred to first use.
type ConfigError struct {
	Type  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Field != "" {
		return fmt.Sprintf("pack: type %q field %q: %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("pack: type %q: %v", e.Type, e.Err)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func configErrorf(typeName, field, format string, args ...any) error {
	return &ConfigError{Type: typeName, Field: field, Err: fmt.Errorf(format, args...)}
}

// CallError reports a malformed call: an unknown keyword argument, a field
// bound twice, an unknown path segment, or a path descending into a value
// that is not a pack. The target instance is left unchanged.
type CallError struct {
	Type string
	Path string
	Err  error
}

func (e *CallError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Path != "" {
		return fmt.Sprintf("pack: %s: path %q: %v", e.Type, e.Path, e.Err)
	}
	return fmt.Sprintf("pack: %s: %v", e.Type, e.Err)
}

func (e *CallError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func callErrorf(typeName, path, format string, args ...any) error {
	return &CallError{Type: typeName, Path: path, Err: fmt.Errorf(format, args...)}
}

// ValidationError reports a proposed value rejected by a field validator
// or by a local or ancestor invariant. The write it aborts has no partial
// effect.
type ValidationError struct {
	Type  string
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Field != "" {
		return fmt.Sprintf("pack: %s.%s: %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("pack: %s: %v", e.Type, e.Err)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func validationError(typeName, field string, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return &ValidationError{Type: typeName, Field: field, Err: err}
}

// FrozenError reports an attempt to add an undeclared attribute to an
// observed instance after its construction completed.
type FrozenError struct {
	Type string
	Attr string
}

func (e *FrozenError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("pack: observed %s has no attribute %q and attributes cannot be added dynamically", e.Type, e.Attr)
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCallError reports whether err is, or wraps, a CallError.
func IsCallError(err error) bool {
	var ce *CallError
	return errors.As(err, &ce)
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsFrozenError reports whether err is, or wraps, a FrozenError.
func IsFrozenError(err error) bool {
	var fe *FrozenError
	return errors.As(err, &fe)
}
