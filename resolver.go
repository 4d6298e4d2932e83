package mongoid

import (
	"context"
	"sync/atomic"

	"github.com/zanker/mongoid/pkg/activity"
)

// Config carries the process-wide durability defaults supplied by the host
// application at startup. It is read once at Resolver construction and never
// mutated afterwards.
type Config struct {
	// Default is the optional process-wide write concern.
	Default *WriteConcern
	// SafeMode selects the last-resort default when nothing else applies:
	// w=1 when true, w=0 when false.
	SafeMode bool
}

// ResolverOption configures optional resolver collaborators.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	policies      *PolicyEngine
	hooks         activity.Hooks
	activityCfg   activity.Config
	activityCfgOk bool
}

// WithPolicyEngine wires rule-based concern selection into resolution.
func WithPolicyEngine(engine *PolicyEngine) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.policies = engine
	}
}

// WithActivityHooks attaches audit sinks notified on every resolution.
func WithActivityHooks(hooks activity.Hooks) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.hooks = hooks
	}
}

// WithActivityConfig overrides the emission defaults used with the hooks.
func WithActivityConfig(activityCfg activity.Config) ResolverOption {
	return func(cfg *resolverConfig) {
		cfg.activityCfg = activityCfg
		cfg.activityCfgOk = true
	}
}

// Resolver computes the effective write concern for a persistence call from
// the explicit per-call options, the context override, matching policies, and
// the configured defaults. Resolution never fails; every branch produces a
// usable value.
type Resolver struct {
	cfg      Config
	policies *PolicyEngine
	emitter  *activity.Emitter
}

// NewResolver constructs a resolver around a startup configuration snapshot.
func NewResolver(cfg Config, opts ...ResolverOption) *Resolver {
	rc := resolverConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&rc)
		}
	}

	if cfg.Default != nil {
		cloned := cfg.Default.Clone()
		cfg.Default = &cloned
	}

	activityCfg := rc.activityCfg
	if !rc.activityCfgOk {
		activityCfg = activity.Config{Enabled: rc.hooks.Enabled()}
	}

	return &Resolver{
		cfg:      cfg,
		policies: rc.policies,
		emitter:  activity.NewEmitter(rc.hooks, activityCfg),
	}
}

// Config returns the configuration snapshot the resolver was built with.
func (r *Resolver) Config() Config {
	cfg := r.cfg
	if cfg.Default != nil {
		cloned := cfg.Default.Clone()
		cfg.Default = &cloned
	}
	return cfg
}

// ContextWithOverride derives a context carrying a transient override, like
// the package-level ContextWithOverride, and additionally records the request
// on the resolver's audit hooks.
func (r *Resolver) ContextWithOverride(ctx context.Context, wc WriteConcern) context.Context {
	if r.emitter.Enabled() {
		op, _ := OperationFromContext(ctx)
		_ = r.emitter.Emit(ctx, activity.BuildOverrideSetEvent(activity.ConcernEventInput{
			Operation:  op.Name,
			Database:   op.Database,
			Collection: op.Collection,
			Source:     SourceContext.String(),
			Concern:    wc.Map(),
		}))
	}
	return ContextWithOverride(ctx, wc)
}

// Resolve computes the effective write concern for the next persistence call.
// First matching level wins:
//  1. explicit options that set any acknowledgment dimension are returned
//     unchanged, nothing is merged in
//  2. a context override is merged underneath the explicit options
//  3. a matching policy's concern is merged underneath
//  4. the configured process-wide default is merged underneath
//  5. otherwise the safe-mode flag supplies w=1 or w=0
//
// Only the last level guarantees w is populated; the others propagate
// whatever dimensions the winning level supplied.
func (r *Resolver) Resolve(ctx context.Context, explicit WriteConcern) WriteConcern {
	effective, source, policyName := r.resolve(ctx, explicit)
	r.notify(ctx, effective, source, policyName)
	return effective
}

// Explain resolves like Resolve and also reports which level won along with
// what every level had to offer. It is diagnostic: unlike Resolve it never
// emits audit events, so pairing it with Resolve for one logical operation
// records a single event.
func (r *Resolver) Explain(ctx context.Context, explicit WriteConcern) (WriteConcern, Trace) {
	effective, source, _ := r.resolve(ctx, explicit)

	trace := Trace{
		Concern: effective.Map(),
		Source:  source,
		Levels:  make([]Candidate, 0, 5),
	}

	appendLevel := func(level Source, wc WriteConcern, present bool) {
		candidate := Candidate{
			Source:  level,
			Present: present,
			Applied: level == source,
		}
		if present {
			candidate.Concern = wc.Map()
		}
		trace.Levels = append(trace.Levels, candidate)
	}

	appendLevel(SourceExplicit, explicit, !explicit.IsZero())
	override, hasOverride := OverrideFromContext(ctx)
	appendLevel(SourceContext, override, hasOverride)
	policyConcern, _, hasPolicy := r.policies.ConcernFor(ctx)
	appendLevel(SourcePolicy, policyConcern, hasPolicy)
	if r.cfg.Default != nil {
		appendLevel(SourceGlobal, *r.cfg.Default, true)
	} else {
		appendLevel(SourceGlobal, WriteConcern{}, false)
	}
	appendLevel(SourceFallback, r.fallback(), true)

	return effective, trace
}

func (r *Resolver) resolve(ctx context.Context, explicit WriteConcern) (WriteConcern, Source, string) {
	if !explicit.IsZero() {
		return explicit.Clone(), SourceExplicit, ""
	}
	if override, ok := OverrideFromContext(ctx); ok {
		return explicit.Merge(override), SourceContext, ""
	}
	if concern, name, ok := r.policies.ConcernFor(ctx); ok {
		return explicit.Merge(concern), SourcePolicy, name
	}
	if r.cfg.Default != nil {
		return explicit.Merge(*r.cfg.Default), SourceGlobal, ""
	}
	return explicit.Merge(r.fallback()), SourceFallback, ""
}

func (r *Resolver) fallback() WriteConcern {
	if r.cfg.SafeMode {
		return Safe()
	}
	return Unsafe()
}

// notify emits an audit event when hooks are configured. Emission failures
// never affect resolution.
func (r *Resolver) notify(ctx context.Context, effective WriteConcern, source Source, policyName string) {
	if !r.emitter.Enabled() {
		return
	}
	op, _ := OperationFromContext(ctx)
	input := activity.ConcernEventInput{
		Operation:  op.Name,
		Database:   op.Database,
		Collection: op.Collection,
		Source:     source.String(),
		Concern:    effective.Map(),
	}
	if policyName != "" {
		input.Metadata = map[string]any{"policy": policyName}
	}
	event := activity.BuildConcernResolvedEvent(input)
	if !effective.Acknowledged() {
		event = activity.BuildUnsafeRequestedEvent(input)
	}
	_ = r.emitter.Emit(ctx, event)
}

var defaultResolver atomic.Pointer[Resolver]

// Configure installs the package-level resolver. Call it once during startup
// before issuing persistence operations; the installed configuration is
// read-only afterwards.
func Configure(cfg Config, opts ...ResolverOption) {
	defaultResolver.Store(NewResolver(cfg, opts...))
}

// Default returns the package-level resolver. Before Configure runs it
// behaves as an empty configuration: no global default, safe mode off.
func Default() *Resolver {
	if r := defaultResolver.Load(); r != nil {
		return r
	}
	return zeroResolver
}

var zeroResolver = NewResolver(Config{})

// Resolve computes the effective write concern using the package-level
// resolver.
func Resolve(ctx context.Context, explicit WriteConcern) WriteConcern {
	return Default().Resolve(ctx, explicit)
}
