package pack

import (
	"fmt"
	"sync"
)

// Validator rejects field values. Validator values double as field
// directives: attaching one to a Field wraps the resolved serializer so
// the value is checked before it is ever stored.
type Validator interface {
	Validate(value any) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(value any) error

// Validate implements Validator.
func (f ValidatorFunc) Validate(value any) error {
	if f == nil {
		return nil
	}
	return f(value)
}

// NotNil rejects nil values.
type NotNil struct{}

// Validate implements Validator.
func (NotNil) Validate(value any) error {
	if value == nil {
		return fmt.Errorf("value must not be nil")
	}
	return nil
}

// WithinRange rejects numeric values outside [Min, Max].
type WithinRange struct {
	Min float64
	Max float64
}

// Validate implements Validator.
func (r WithinRange) Validate(value any) error {
	num, ok := asFloat(value)
	if !ok {
		return fmt.Errorf("value %v is not numeric", value)
	}
	if num < r.Min || num > r.Max {
		return fmt.Errorf("value %v is outside the range [%v, %v]", value, r.Min, r.Max)
	}
	return nil
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Choice rejects values not present in Values.
type Choice struct {
	Values []any
}

// Validate implements Validator.
func (c Choice) Validate(value any) error {
	for _, candidate := range c.Values {
		if candidate == value {
			return nil
		}
	}
	return fmt.Errorf("value %v is not one of %v", value, c.Values)
}

// RuleOption configures an expression-backed rule.
type RuleOption func(*ruleConfig)

type ruleConfig struct {
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
}

// RuleWithEvaluator selects the evaluator engine the rule compiles with.
// The default is the expr engine.
func RuleWithEvaluator(e Evaluator) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.evaluator = e
	}
}

// RuleWithProgramCache shares a compiled-program cache across rules.
func RuleWithProgramCache(cache ProgramCache) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.cache = cache
	}
}

// RuleWithFunctions exposes registry functions to rule expressions.
func RuleWithFunctions(registry *FunctionRegistry) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.functions = registry
	}
}

func applyRuleOptions(opts []RuleOption) ruleConfig {
	cfg := ruleConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.evaluator == nil {
		evalOpts := []ExprEvaluatorOption{}
		if cfg.cache != nil {
			evalOpts = append(evalOpts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.functions != nil {
			evalOpts = append(evalOpts, ExprWithFunctionRegistry(cfg.functions))
		}
		cfg.evaluator = NewExprEvaluator(evalOpts...)
	}
	return cfg
}

// exprBackedRule validates a field value against a boolean expression
// evaluated with the candidate bound to "value".
type exprBackedRule struct {
	expression string
	evaluator  Evaluator

	once     sync.Once
	compiled CompiledRule
	err      error
}

// NewRule builds a validator from a boolean expression. The candidate
// value is bound to "value" in the expression environment, for example
// NewRule("value >= 0 && value <= 10").
func NewRule(expression string, opts ...RuleOption) Validator {
	cfg := applyRuleOptions(opts)
	return &exprBackedRule{
		expression: expression,
		evaluator:  cfg.evaluator,
	}
}

// Validate implements Validator.
func (r *exprBackedRule) Validate(value any) error {
	r.once.Do(func() {
		r.compiled, r.err = r.evaluator.Compile(r.expression)
	})
	if r.err != nil {
		return r.err
	}
	result, err := r.compiled.Evaluate(RuleContext{
		Snapshot: map[string]any{"value": value},
	})
	if err != nil {
		return err
	}
	ok, isBool := result.(bool)
	if !isBool {
		return fmt.Errorf("rule %q did not evaluate to a boolean (got %T)", r.expression, result)
	}
	if !ok {
		return fmt.Errorf("value %v rejected by rule %q", value, r.expression)
	}
	return nil
}

// RuleInvariant builds a cross-field invariant from a boolean expression.
// The environment holds every field of the pack, with proposed values
// overlaid on the current ones, so an ordering constraint reads naturally:
// RuleInvariant("minimum <= maximum").
func RuleInvariant(expression string, opts ...RuleOption) Invariant {
	cfg := applyRuleOptions(opts)
	rule := &exprBackedRule{expression: expression, evaluator: cfg.evaluator}

	return func(inst *Instance, changing map[string]any) error {
		rule.once.Do(func() {
			rule.compiled, rule.err = rule.evaluator.Compile(rule.expression)
		})
		if rule.err != nil {
			return rule.err
		}
		env := inst.snapshot()
		for name, value := range changing {
			env[name] = exportValue(value)
		}
		result, err := rule.compiled.Evaluate(RuleContext{Snapshot: env})
		if err != nil {
			return err
		}
		ok, isBool := result.(bool)
		if !isBool {
			return fmt.Errorf("invariant %q did not evaluate to a boolean (got %T)", expression, result)
		}
		if !ok {
			return fmt.Errorf("invariant %q violated", expression)
		}
		return nil
	}
}
