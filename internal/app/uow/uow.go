package uow

import (
	"context"

	domainbilling "gearshare/internal/domain/billing"
	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Products() domainproduct.Repository
	Rentals() domainrental.Repository
	Payments() domainbilling.PaymentRepository
	Attempts() domainbilling.AttemptRepository
	Invoices() domainbilling.InvoiceRepository
	Returns() domainbilling.ReturnRepository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
