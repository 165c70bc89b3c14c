// Package schema builds pack types from declarative YAML documents.
//
// A document lists pack definitions in dependency order; a field's type
// is either a scalar kind (int, float, bool, string) or the name of a
// pack defined earlier in the same document (or seeded via WithTypes).
// Validator rules and invariants are boolean expressions compiled by the
// default rule evaluator.
//
//	packs:
//	  - name: FloatRange
//	    invariant: minimum <= maximum
//	    fields:
//	      - name: minimum
//	        type: float
//	      - name: maximum
//	        type: float
//	        default: 10
package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"

	pack "github.com/goliatone/go-parampack"
)

// Document is the root of a pack-definition file.
type Document struct {
	Packs []PackDef `yaml:"packs"`
}

// PackDef declares one pack type.
type PackDef struct {
	Name      string     `yaml:"name"`
	Invariant string     `yaml:"invariant"`
	Fields    []FieldDef `yaml:"fields"`
}

// FieldDef declares one field of a pack.
type FieldDef struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	Default any      `yaml:"default"`
	Rules   []string `yaml:"rules"`
}

// Option configures the loader.
type Option func(*config)

type config struct {
	types       map[string]*pack.Type
	ruleOptions []pack.RuleOption
	typeOptions []pack.TypeOption
}

// WithTypes seeds pack types referenceable by name from field
// declarations.
func WithTypes(types map[string]*pack.Type) Option {
	return func(cfg *config) {
		for name, t := range types {
			cfg.types[name] = t
		}
	}
}

// WithRuleOptions configures how rule and invariant expressions compile.
func WithRuleOptions(opts ...pack.RuleOption) Option {
	return func(cfg *config) {
		cfg.ruleOptions = append(cfg.ruleOptions, opts...)
	}
}

// WithTypeOptions applies extra options to every built pack type.
func WithTypeOptions(opts ...pack.TypeOption) Option {
	return func(cfg *config) {
		cfg.typeOptions = append(cfg.typeOptions, opts...)
	}
}

// Load parses a YAML document and builds its pack types, returned keyed
// by name in addition to the declaration-ordered slice.
func Load(data []byte, opts ...Option) (map[string]*pack.Type, error) {
	cfg := config{types: make(map[string]*pack.Type)}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: parse document: %w", err)
	}
	if len(doc.Packs) == 0 {
		return nil, fmt.Errorf("schema: document declares no packs")
	}

	built := make(map[string]*pack.Type, len(doc.Packs))
	for _, def := range doc.Packs {
		if def.Name == "" {
			return nil, fmt.Errorf("schema: pack with empty name")
		}
		if _, dup := cfg.types[def.Name]; dup {
			return nil, fmt.Errorf("schema: pack %q declared twice", def.Name)
		}

		fields := make([]pack.Field, 0, len(def.Fields))
		for _, fd := range def.Fields {
			field, err := cfg.buildField(def.Name, fd)
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}

		typeOpts := append([]pack.TypeOption{}, cfg.typeOptions...)
		if def.Invariant != "" {
			typeOpts = append(typeOpts, pack.WithInvariant(pack.RuleInvariant(def.Invariant, cfg.ruleOptions...)))
		}

		t, err := pack.NewType(def.Name, fields, typeOpts...)
		if err != nil {
			return nil, fmt.Errorf("schema: pack %q: %w", def.Name, err)
		}
		cfg.types[def.Name] = t
		built[def.Name] = t
	}
	return built, nil
}

func (cfg *config) buildField(packName string, fd FieldDef) (pack.Field, error) {
	if fd.Name == "" {
		return pack.Field{}, fmt.Errorf("schema: pack %q has a field with an empty name", packName)
	}

	dt, err := cfg.resolveType(fd.Type)
	if err != nil {
		return pack.Field{}, fmt.Errorf("schema: pack %q field %q: %w", packName, fd.Name, err)
	}

	var directives []pack.Directive
	if fd.Default != nil {
		directives = append(directives, pack.Default(coerceDefault(dt, fd.Default)))
	}
	for _, rule := range fd.Rules {
		directives = append(directives, pack.NewRule(rule, cfg.ruleOptions...))
	}

	return pack.Field{Name: fd.Name, Type: dt, Directives: directives}, nil
}

func (cfg *config) resolveType(name string) (pack.DataType, error) {
	switch name {
	case "int":
		return pack.Int(), nil
	case "float":
		return pack.Float(), nil
	case "bool":
		return pack.Bool(), nil
	case "string":
		return pack.String(), nil
	case "":
		return pack.DataType{}, fmt.Errorf("missing type")
	}
	if t, ok := cfg.types[name]; ok {
		return pack.PackOf(t), nil
	}
	return pack.DataType{}, fmt.Errorf("unknown type %q (packs must be declared before use)", name)
}

// coerceDefault aligns YAML's scalar decoding with the declared kind:
// an integer literal declared on a float field becomes a float64.
func coerceDefault(dt pack.DataType, value any) any {
	if dt.Kind != pack.KindFloat {
		return value
	}
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return value
	}
}
