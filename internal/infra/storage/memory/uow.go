package memory

import (
	"context"
	"errors"

	"gearshare/internal/app/uow"
	domainbilling "gearshare/internal/domain/billing"
	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ProductsRepo domainproduct.Repository
	RentalsRepo  domainrental.Repository
	PaymentsRepo domainbilling.PaymentRepository
	AttemptsRepo domainbilling.AttemptRepository
	InvoicesRepo domainbilling.InvoiceRepository
	ReturnsRepo  domainbilling.ReturnRepository

	// OutboxStore, when set, has its staged records discarded on rollback
	// so a failed command cannot leak events into the next flush.
	OutboxStore *Outbox
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports; booking correctness in
// this mode rests on the per-product locks.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ProductsRepo == nil || f.RentalsRepo == nil || f.PaymentsRepo == nil ||
		f.AttemptsRepo == nil || f.InvoicesRepo == nil || f.ReturnsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		products: f.ProductsRepo,
		rentals:  f.RentalsRepo,
		payments: f.PaymentsRepo,
		attempts: f.AttemptsRepo,
		invoices: f.InvoicesRepo,
		returns:  f.ReturnsRepo,
		outbox:   f.OutboxStore,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	products domainproduct.Repository
	rentals  domainrental.Repository
	payments domainbilling.PaymentRepository
	attempts domainbilling.AttemptRepository
	invoices domainbilling.InvoiceRepository
	returns  domainbilling.ReturnRepository
	outbox   *Outbox
}

func (u *Unit) Products() domainproduct.Repository { return u.products }

func (u *Unit) Rentals() domainrental.Repository { return u.rentals }

func (u *Unit) Payments() domainbilling.PaymentRepository { return u.payments }

func (u *Unit) Attempts() domainbilling.AttemptRepository { return u.attempts }

func (u *Unit) Invoices() domainbilling.InvoiceRepository { return u.invoices }

func (u *Unit) Returns() domainbilling.ReturnRepository { return u.returns }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error {
	if u.outbox != nil {
		u.outbox.Discard()
	}
	return nil
}
