package tx

import (
	"context"
	"sync"
)

// Snapshotter is implemented by in-memory stores that can participate in a
// MemoryRunner transaction. Snapshot must return a value that Restore can use
// to roll the store back to the captured state.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// MemoryRunner gives in-memory stores the same all-or-nothing semantics the
// SQLRunner gets from a database transaction: a coarse lock plus snapshot
// rollback of every participating store. A nested call joins the enclosing
// transaction. Meant for tests and local runs, not for multi-process
// deployments.
type MemoryRunner struct {
	mu     sync.Mutex
	stores []Snapshotter
}

func NewMemoryRunner(stores ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{stores: stores}
}

type memTxKey struct{}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshots := make([]any, len(r.stores))
	for i, store := range r.stores {
		snapshots[i] = store.Snapshot()
	}
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		for i, store := range r.stores {
			store.Restore(snapshots[i])
		}
		return err
	}
	return nil
}
