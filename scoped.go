package mongoid

import "context"

// Scoped pairs a receiver (an entity value, a collection handle) with the
// write-concern override requested for its next persistence operation. It
// replaces the classic "return the receiver and stash the override in
// thread-local state" chaining: the override travels with the pair and is
// handed to exactly the call the caller chooses.
type Scoped[T any] struct {
	receiver T
	concern  WriteConcern
}

// Safely requests single-node acknowledgment for the receiver's next
// operation.
func Safely[T any](receiver T) Scoped[T] {
	return SafelyWith(receiver, Safe())
}

// SafelyW requests acknowledgment from w nodes for the receiver's next
// operation.
func SafelyW[T any](receiver T, w int) Scoped[T] {
	return SafelyWith(receiver, Concern(w))
}

// SafelyWith requests the given concern for the receiver's next operation.
func SafelyWith[T any](receiver T, wc WriteConcern) Scoped[T] {
	return Scoped[T]{receiver: receiver, concern: wc.Clone()}
}

// Unsafely requests a fire-and-forget write for the receiver's next
// operation, overriding any safe-by-default policy.
func Unsafely[T any](receiver T) Scoped[T] {
	return SafelyWith(receiver, Unsafe())
}

// Receiver returns the wrapped receiver unchanged.
func (s Scoped[T]) Receiver() T {
	return s.receiver
}

// Concern returns the override the pair carries.
func (s Scoped[T]) Concern() WriteConcern {
	return s.concern.Clone()
}

// Context derives a context carrying the pair's override for resolution. The
// request is recorded on the package resolver's audit hooks when configured.
func (s Scoped[T]) Context(ctx context.Context) context.Context {
	return Default().ContextWithOverride(ctx, s.concern)
}

// Run invokes op with a derived context carrying the override. The override
// is unreachable once op returns, whatever its exit path, so it can never
// leak into a later operation.
func (s Scoped[T]) Run(ctx context.Context, op func(context.Context, T) error) error {
	if op == nil {
		return nil
	}
	return op(s.Context(ctx), s.receiver)
}
