package query

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// Mutation is a write bound to the cache. OnSuccess runs after a successful write and
// before MutateAsync returns; invalidations it issues refetch in the background, so the
// cache may still hold pre-write data when MutateAsync returns.
type Mutation[In, Out any] struct {
	client    *Client
	name      string
	fn        func(ctx context.Context, in In) (Out, error)
	onSuccess func(ctx context.Context, in In, out Out)
	pending   atomic.Int32
}

// NewMutation binds fn to c. onSuccess may be nil.
func NewMutation[In, Out any](c *Client, name string, fn func(context.Context, In) (Out, error), onSuccess func(context.Context, In, Out)) *Mutation[In, Out] {
	return &Mutation[In, Out]{client: c, name: name, fn: fn, onSuccess: onSuccess}
}

// MutateAsync performs the write, retrying transient failures per the client's mutation
// policy, then runs the success handler.
func (m *Mutation[In, Out]) MutateAsync(ctx context.Context, in In) (Out, error) {
	m.pending.Add(1)
	defer m.pending.Add(-1)

	var out Out
	err := m.client.opts.MutationRetry.Do(ctx, func(ctx context.Context) error {
		v, err := m.fn(ctx, in)
		if err == nil {
			out = v
		}
		return err
	})
	if err != nil {
		m.client.logger.Warn("Mutation failed", zap.String("mutation", m.name), zap.Error(err))
		return out, err
	}
	if m.onSuccess != nil {
		m.onSuccess(ctx, in, out)
	}
	return out, nil
}

// IsPending reports whether a write is in progress.
func (m *Mutation[In, Out]) IsPending() bool {
	return m.pending.Load() > 0
}
