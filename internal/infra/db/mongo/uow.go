package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gearshare/internal/app/uow"
	domainbilling "gearshare/internal/domain/billing"
	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
)

// Factory wires Mongo sessions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ProductsRepo domainproduct.Repository
	RentalsRepo  domainrental.Repository
	PaymentsRepo domainbilling.PaymentRepository
	AttemptsRepo domainbilling.AttemptRepository
	InvoicesRepo domainbilling.InvoiceRepository
	ReturnsRepo  domainbilling.ReturnRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(f.DB.ReadConcern()).
		SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:       f.DB,
		session:  session,
		products: f.ProductsRepo,
		rentals:  f.RentalsRepo,
		payments: f.PaymentsRepo,
		attempts: f.AttemptsRepo,
		invoices: f.InvoicesRepo,
		returns:  f.ReturnsRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	products domainproduct.Repository
	rentals  domainrental.Repository
	payments domainbilling.PaymentRepository
	attempts domainbilling.AttemptRepository
	invoices domainbilling.InvoiceRepository
	returns  domainbilling.ReturnRepository
}

func (u *Unit) Products() domainproduct.Repository { return u.products }

func (u *Unit) Rentals() domainrental.Repository { return u.rentals }

func (u *Unit) Payments() domainbilling.PaymentRepository { return u.payments }

func (u *Unit) Attempts() domainbilling.AttemptRepository { return u.attempts }

func (u *Unit) Invoices() domainbilling.InvoiceRepository { return u.invoices }

func (u *Unit) Returns() domainbilling.ReturnRepository { return u.returns }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
