package mongoid

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RuleContext carries inputs needed when evaluating a policy rule against a
// pending persistence operation.
type RuleContext struct {
	Operation Operation
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) operationLabel() string {
	if ctx.Operation.Name != "" {
		return ctx.Operation.Name
	}
	return "unknown"
}

// Evaluator executes rule expressions against an operation context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Policy names a write concern applied to operations matching a rule. An
// empty rule matches every operation. Either Concern or Profile must be set;
// Profile names a stored concern resolved through the engine's lookup.
type Policy struct {
	Name    string
	Rule    string
	Concern WriteConcern
	Profile string
}

// ProfileLookup resolves a named concern profile. Implementations report
// ok=false when the profile does not exist.
type ProfileLookup func(ctx context.Context, name string) (WriteConcern, bool, error)

var (
	// ErrPolicyNameRequired indicates a missing policy name.
	ErrPolicyNameRequired = errors.New("mongoid: policy name must be provided")
	// ErrDuplicatePolicyName indicates engine construction received multiple
	// policies with the same name.
	ErrDuplicatePolicyName = errors.New("mongoid: policy names must be unique")
	// ErrPolicyConcernRequired indicates a policy with neither an inline
	// concern nor a profile reference.
	ErrPolicyConcernRequired = errors.New("mongoid: policy needs a concern or profile")
)

// PolicyEngineOption configures a PolicyEngine.
type PolicyEngineOption func(*policyEngineConfig)

type policyEngineConfig struct {
	evaluator Evaluator
	cache     ProgramCache
	registry  *FunctionRegistry
	logger    EvaluatorLogger
	lookup    ProfileLookup
}

// PolicyWithEvaluator replaces the default expr evaluator.
func PolicyWithEvaluator(e Evaluator) PolicyEngineOption {
	return func(cfg *policyEngineConfig) {
		cfg.evaluator = e
	}
}

// PolicyWithProgramCache wires a compiled-program cache into the default
// evaluator.
func PolicyWithProgramCache(cache ProgramCache) PolicyEngineOption {
	return func(cfg *policyEngineConfig) {
		cfg.cache = cache
	}
}

// PolicyWithFunctionRegistry exposes custom functions to rules.
func PolicyWithFunctionRegistry(registry *FunctionRegistry) PolicyEngineOption {
	return func(cfg *policyEngineConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

// PolicyWithLogger records rule evaluations.
func PolicyWithLogger(logger EvaluatorLogger) PolicyEngineOption {
	return func(cfg *policyEngineConfig) {
		cfg.logger = logger
	}
}

// PolicyWithProfileLookup wires the resolver for Profile references.
func PolicyWithProfileLookup(lookup ProfileLookup) PolicyEngineOption {
	return func(cfg *policyEngineConfig) {
		cfg.lookup = lookup
	}
}

// PolicyEngine selects a write concern for an operation by evaluating
// policies in declaration order; the first truthy rule wins.
type PolicyEngine struct {
	policies []compiledPolicy
	logger   EvaluatorLogger
	lookup   ProfileLookup
}

type compiledPolicy struct {
	policy Policy
	rule   CompiledRule
	engine string
}

// NewPolicyEngine validates and compiles the supplied policies.
func NewPolicyEngine(policies []Policy, opts ...PolicyEngineOption) (*PolicyEngine, error) {
	cfg := policyEngineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	evaluator := cfg.evaluator
	if evaluator == nil {
		var exprOpts []ExprEvaluatorOption
		if cfg.cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.registry != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.registry))
		}
		evaluator = NewExprEvaluator(exprOpts...)
	}

	logger := cfg.logger
	if logger == nil {
		logger = noopEvaluatorLogger{}
	}

	engine := &PolicyEngine{
		policies: make([]compiledPolicy, 0, len(policies)),
		logger:   logger,
		lookup:   cfg.lookup,
	}

	seen := make(map[string]struct{}, len(policies))
	for _, policy := range policies {
		if policy.Name == "" {
			return nil, ErrPolicyNameRequired
		}
		if _, ok := seen[policy.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePolicyName, policy.Name)
		}
		seen[policy.Name] = struct{}{}
		if policy.Concern.IsZero() && policy.Profile == "" {
			return nil, fmt.Errorf("%w: %s", ErrPolicyConcernRequired, policy.Name)
		}

		compiled := compiledPolicy{
			policy: policy,
			engine: evaluatorEngineName(evaluator),
		}
		if policy.Rule != "" {
			rule, err := evaluator.Compile(policy.Rule)
			if err != nil {
				return nil, fmt.Errorf("mongoid: compile policy %q: %w", policy.Name, err)
			}
			compiled.rule = rule
		}
		engine.policies = append(engine.policies, compiled)
	}

	return engine, nil
}

// Len returns the number of configured policies.
func (e *PolicyEngine) Len() int {
	if e == nil {
		return 0
	}
	return len(e.policies)
}

// ConcernFor evaluates the policies against the operation annotated on ctx
// and returns the first match. Evaluation failures are logged and treated as
// non-matches so resolution stays error-free.
func (e *PolicyEngine) ConcernFor(ctx context.Context) (WriteConcern, string, bool) {
	if e == nil || len(e.policies) == 0 {
		return WriteConcern{}, "", false
	}

	op, _ := OperationFromContext(ctx)
	ruleCtx := RuleContext{Operation: op, Metadata: op.Metadata}.withDefaultNow().withDefaultMaps()

	for _, candidate := range e.policies {
		if !e.matches(ruleCtx, candidate) {
			continue
		}

		concern := candidate.policy.Concern
		if candidate.policy.Profile != "" {
			resolved, ok := e.resolveProfile(ctx, candidate)
			if !ok {
				continue
			}
			concern = resolved
		}
		return concern.Clone(), candidate.policy.Name, true
	}
	return WriteConcern{}, "", false
}

func (e *PolicyEngine) matches(ruleCtx RuleContext, candidate compiledPolicy) bool {
	if candidate.rule == nil {
		return true
	}

	start := time.Now()
	result, err := candidate.rule.Evaluate(ruleCtx)
	e.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:    candidate.engine,
		Expr:      candidate.policy.Rule,
		Policy:    candidate.policy.Name,
		Operation: ruleCtx.operationLabel(),
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		return false
	}
	matched, ok := result.(bool)
	return ok && matched
}

func (e *PolicyEngine) resolveProfile(ctx context.Context, candidate compiledPolicy) (WriteConcern, bool) {
	if e.lookup == nil {
		return WriteConcern{}, false
	}
	concern, ok, err := e.lookup(ctx, candidate.policy.Profile)
	if err != nil {
		e.logger.LogEvaluation(EvaluatorLogEvent{
			Engine: candidate.engine,
			Policy: candidate.policy.Name,
			Err:    fmt.Errorf("mongoid: profile %q: %w", candidate.policy.Profile, err),
		})
		return WriteConcern{}, false
	}
	return concern, ok
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*mongoid.exprEvaluator":
		return "expr"
	case "*mongoid.celEvaluator":
		return "cel"
	case "*mongoid.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
