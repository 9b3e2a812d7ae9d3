package policies

import (
	"context"

	domainproduct "gearshare/internal/domain/product"
)

// ProductLocker serializes create-or-pay operations per product. The
// availability re-check and the subsequent insert or paid transition must
// execute under the same lock to close the check-then-insert race.
type ProductLocker interface {
	// Acquire blocks until the product lock is held or ctx is done.
	// The returned release function must be called exactly once.
	Acquire(ctx context.Context, id domainproduct.ProductID) (release func(), err error)
}
