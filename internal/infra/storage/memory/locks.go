package memory

import (
	"context"
	"sync"

	"gearshare/internal/app/policies"
	domainproduct "gearshare/internal/domain/product"
)

// ProductLocks serializes booking operations per product with one slot per
// product id. Acquire respects context cancellation while waiting.
type ProductLocks struct {
	mu    sync.Mutex
	slots map[domainproduct.ProductID]chan struct{}
}

func NewProductLocks() *ProductLocks {
	return &ProductLocks{slots: make(map[domainproduct.ProductID]chan struct{})}
}

func (l *ProductLocks) Acquire(ctx context.Context, id domainproduct.ProductID) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[id]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[id] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() { <-slot })
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var _ policies.ProductLocker = (*ProductLocks)(nil)
