package pack

import "time"

// RuleContext carries the environment a rule expression evaluates in.
// Snapshot holds the named bindings: "value" for field validators, the
// merged field values for invariants.
type RuleContext struct {
	Snapshot map[string]any
	Now      *time.Time
	Args     map[string]any
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Snapshot == nil {
		ctx.Snapshot = map[string]any{}
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaults()
	return *ctx.Now
}

// Evaluator executes rule expressions against a context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule is a reusable compiled expression.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

// ProgramCache stores compiled expression programs keyed by expression
// text. Implementations must be safe for the evaluator that owns them.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// EvalLogEvent describes one expression evaluation for logging.
type EvalLogEvent struct {
	Engine   string
	Expr     string
	Duration time.Duration
	Err      error
}

// EvalLogger records evaluator events.
type EvalLogger interface {
	LogEvaluation(EvalLogEvent)
}

// EvalLoggerFunc adapts a function to EvalLogger.
type EvalLoggerFunc func(EvalLogEvent)

// LogEvaluation implements EvalLogger.
func (f EvalLoggerFunc) LogEvaluation(event EvalLogEvent) {
	if f != nil {
		f(event)
	}
}
