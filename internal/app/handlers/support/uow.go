package support

import (
	"context"

	"gearshare/internal/app/uow"
	domainavailability "gearshare/internal/domain/availability"
	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/daterange"
)

// BeginReadOnlyUnit reuses a unit of work from context or starts a
// short-lived read-only one. The returned cleanup (if non-nil) must run
// when the caller is done.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := ctx
	if injector, ok := newUnit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = uow.ContextWithUnitOfWork(execCtx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// PaidRanges loads the date ranges of every paid rental for a product,
// optionally excluding one request (the one currently transitioning).
func PaidRanges(ctx context.Context, unit uow.UnitOfWork, id domainproduct.ProductID, exclude domainrental.RentalID) ([]daterange.DateRange, error) {
	paid, err := unit.Rentals().ListByProduct(ctx, id, domainrental.StatusPaid)
	if err != nil {
		return nil, err
	}
	ranges := make([]daterange.DateRange, 0, len(paid))
	for _, r := range paid {
		if exclude != "" && r.ID == exclude {
			continue
		}
		ranges = append(ranges, r.Range)
	}
	return ranges, nil
}

// EnsureBookable runs the paid-overlap and buffer checks for a candidate
// range inside the caller's transaction and lock scope.
func EnsureBookable(ctx context.Context, unit uow.UnitOfWork, id domainproduct.ProductID, candidate daterange.DateRange, exclude domainrental.RentalID) error {
	ranges, err := PaidRanges(ctx, unit, id, exclude)
	if err != nil {
		return err
	}
	result := domainavailability.Check(candidate, ranges)
	if !result.Available {
		return &domainavailability.ConflictError{Blocking: result.Blocking}
	}
	return nil
}
