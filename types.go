package pack

import "fmt"

// Kind enumerates the declared data types the default serializer registry
// understands. KindPack marks a field whose value is itself a pack.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindPack
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindPack:
		return "pack"
	default:
		return "invalid"
	}
}

// DataType is the declared-type expression attached to a field. For
// KindPack the Pack pointer identifies the nested pack type.
type DataType struct {
	Kind Kind
	Pack *Type
}

// Int declares an integer field type.
func Int() DataType { return DataType{Kind: KindInt} }

// Float declares a float64 field type.
func Float() DataType { return DataType{Kind: KindFloat} }

// Bool declares a boolean field type.
func Bool() DataType { return DataType{Kind: KindBool} }

// String declares a string field type.
func String() DataType { return DataType{Kind: KindString} }

// PackOf declares a nested pack field type.
func PackOf(t *Type) DataType { return DataType{Kind: KindPack, Pack: t} }

func (dt DataType) String() string {
	if dt.Kind == KindPack && dt.Pack != nil {
		return dt.Pack.Name()
	}
	return dt.Kind.String()
}

// Directive is a declaration-time annotation attached to a field. The
// builder recognizes the value produced by Default and any Validator;
// everything else is reported through the build logger and ignored.
type Directive any

type defaultDirective struct {
	value any
}

// Default declares an explicit default value for a field, overriding the
// serializer's type-appropriate default.
func Default(value any) Directive {
	return defaultDirective{value: value}
}

// Field declares one pack field at build time. Declaration order is
// preserved and doubles as constructor positional-argument order.
type Field struct {
	Name       string
	Type       DataType
	Directives []Directive
}

// Invariant is a cross-field constraint checked strictly before a write
// commits. changing holds the proposed values keyed by field name; values
// for untouched fields are read from inst.
type Invariant func(inst *Instance, changing map[string]any) error

// Constructor replaces the synthesized constructor for a pack type. It
// receives a bare instance and the raw call arguments and must populate
// every field through the instance write path.
type Constructor func(inst *Instance, positional []any, named map[string]any) error

// BuildLogger receives non-fatal diagnostics emitted while a pack type is
// being built, such as unrecognized field directives.
type BuildLogger interface {
	LogBuild(event BuildEvent)
}

// BuildEvent describes one build-time diagnostic.
type BuildEvent struct {
	Type    string
	Field   string
	Message string
}

// BuildLoggerFunc adapts a function to BuildLogger.
type BuildLoggerFunc func(BuildEvent)

// LogBuild implements BuildLogger.
func (f BuildLoggerFunc) LogBuild(event BuildEvent) {
	if f != nil {
		f(event)
	}
}

type noopBuildLogger struct{}

func (noopBuildLogger) LogBuild(BuildEvent) {}

// TypeOption configures a pack type under construction.
type TypeOption func(*typeConfig)

type typeConfig struct {
	invariant   Invariant
	constructor Constructor
	equality    func(a, b *Instance) bool
	stringer    func(*Instance) string
	registry    *Registry
	logger      BuildLogger
}

// WithInvariant attaches a cross-field invariant to the pack type.
func WithInvariant(inv Invariant) TypeOption {
	return func(cfg *typeConfig) {
		cfg.invariant = inv
	}
}

// WithConstructor preserves a caller-supplied constructor instead of the
// synthesized positional/keyword binding.
func WithConstructor(ctor Constructor) TypeOption {
	return func(cfg *typeConfig) {
		cfg.constructor = ctor
	}
}

// WithEquality preserves a caller-supplied equality predicate instead of
// the synthesized field-by-field comparison.
func WithEquality(eq func(a, b *Instance) bool) TypeOption {
	return func(cfg *typeConfig) {
		cfg.equality = eq
	}
}

// WithStringer preserves a caller-supplied string conversion instead of
// the synthesized "Name(field=value, ...)" rendering.
func WithStringer(str func(*Instance) string) TypeOption {
	return func(cfg *typeConfig) {
		cfg.stringer = str
	}
}

// WithRegistry resolves field serializers against a custom registry
// instead of DefaultRegistry.
func WithRegistry(registry *Registry) TypeOption {
	return func(cfg *typeConfig) {
		cfg.registry = registry
	}
}

// WithBuildLogger routes build diagnostics to logger.
func WithBuildLogger(logger BuildLogger) TypeOption {
	return func(cfg *typeConfig) {
		if logger == nil {
			cfg.logger = noopBuildLogger{}
			return
		}
		cfg.logger = logger
	}
}

func applyTypeOptions(opts []TypeOption) typeConfig {
	cfg := typeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.registry == nil {
		cfg.registry = DefaultRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = noopBuildLogger{}
	}
	return cfg
}

// fieldDescriptor is the immutable per-field metadata a built pack type
// carries: the basename, the resolved serializer, the validated default,
// and the declared type expression.
type fieldDescriptor struct {
	basename   string
	serializer Serializer
	defaultVal any
	declared   DataType
}

func implKey(name string) string {
	return fmt.Sprintf("_pack_%s_impl", name)
}

func serializerKey(name string) string {
	return fmt.Sprintf("_pack_%s_serializer", name)
}
