package mongoid

import "context"

type overrideContextKey struct{}

type operationContextKey struct{}

// ContextWithOverride derives a context carrying a transient write-concern
// override. The override is visible only through the derived context, so its
// lifetime is exactly the scope that context is handed to; independent
// contexts never observe each other's overrides.
func ContextWithOverride(ctx context.Context, wc WriteConcern) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, overrideContextKey{}, wc.Clone())
}

// OverrideFromContext returns the pending override, if any.
func OverrideFromContext(ctx context.Context) (WriteConcern, bool) {
	if ctx == nil {
		return WriteConcern{}, false
	}
	wc, ok := ctx.Value(overrideContextKey{}).(WriteConcern)
	if !ok {
		return WriteConcern{}, false
	}
	return wc.Clone(), true
}

// Operation describes the pending persistence call for policy rules and
// audit events. All fields are optional.
type Operation struct {
	Name       string
	Database   string
	Collection string
	Metadata   map[string]any
}

// ContextWithOperation derives a context annotated with the operation about
// to be issued, making it visible to policy rules during resolution.
func ContextWithOperation(ctx context.Context, op Operation) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, operationContextKey{}, op.clone())
}

// OperationFromContext returns the annotated operation, if any.
func OperationFromContext(ctx context.Context) (Operation, bool) {
	if ctx == nil {
		return Operation{}, false
	}
	op, ok := ctx.Value(operationContextKey{}).(Operation)
	if !ok {
		return Operation{}, false
	}
	return op.clone(), true
}

func (op Operation) clone() Operation {
	cloned := op
	if len(op.Metadata) > 0 {
		cloned.Metadata = make(map[string]any, len(op.Metadata))
		for key, value := range op.Metadata {
			cloned.Metadata[key] = value
		}
	} else {
		cloned.Metadata = nil
	}
	return cloned
}

func (op Operation) binding() map[string]any {
	binding := map[string]any{
		"operation":  op.Name,
		"database":   op.Database,
		"collection": op.Collection,
	}
	if len(op.Metadata) > 0 {
		binding["metadata"] = op.clone().Metadata
	}
	return binding
}
