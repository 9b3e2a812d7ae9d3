package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainbilling "gearshare/internal/domain/billing"
	domainpricing "gearshare/internal/domain/pricing"
	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
	domainrange "gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/infra/storage/memory"
)

type testEnv struct {
	products *memory.ProductRepository
	rentals  *memory.RentalRepository
	payments *memory.PaymentRepository
	attempts *memory.AttemptRepository
	invoices *memory.InvoiceRepository
	returns  *memory.ReturnRepository
	factory  memory.Factory
	outbox   *memory.Outbox
	locks    *memory.ProductLocks
}

func newTestEnv() *testEnv {
	env := &testEnv{
		products: memory.NewProductRepository(),
		rentals:  memory.NewRentalRepository(),
		payments: memory.NewPaymentRepository(),
		attempts: memory.NewAttemptRepository(),
		invoices: memory.NewInvoiceRepository(),
		returns:  memory.NewReturnRepository(),
		outbox:   memory.NewOutbox(),
		locks:    memory.NewProductLocks(),
	}
	env.factory = memory.Factory{
		ProductsRepo: env.products,
		RentalsRepo:  env.rentals,
		PaymentsRepo: env.payments,
		AttemptsRepo: env.attempts,
		InvoicesRepo: env.invoices,
		ReturnsRepo:  env.returns,
		OutboxStore:  env.outbox,
	}
	return env
}

func (env *testEnv) seedProduct(t *testing.T, id, owner string) *domainproduct.Product {
	t.Helper()
	prod, err := domainproduct.New(domainproduct.CreateParams{
		ID:           domainproduct.ProductID(id),
		Owner:        domainproduct.OwnerID(owner),
		Title:        "Camera",
		BaseUnit:     domainpricing.UnitDay,
		PricePerUnit: money.Must(5000, "USD"),
		Now:          time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, env.products.Save(context.Background(), prod))
	return prod
}

func (env *testEnv) seedRental(t *testing.T, id string, prod *domainproduct.Product, customer, start, end string, status domainrental.Status) *domainrental.RentalRequest {
	t.Helper()
	dr := testRange(t, start, end)
	quote, err := domainpricing.Price(domainpricing.UnitDay, dr, prod.PricePerUnit)
	require.NoError(t, err)
	now := time.Now().UTC()
	req, err := domainrental.NewRequest(domainrental.CreateParams{
		ID:         domainrental.RentalID(id),
		Product:    prod,
		CustomerID: domainrental.CustomerID(customer),
		Range:      dr,
		Quote:      quote,
		Now:        now,
	})
	require.NoError(t, err)

	switch status {
	case domainrental.StatusPending:
	case domainrental.StatusAccepted:
		require.NoError(t, req.Accept(now))
	case domainrental.StatusPaid:
		require.NoError(t, req.Accept(now))
		require.NoError(t, req.MarkPaid(now))
	default:
		t.Fatalf("unsupported seed status %s", status)
	}
	req.ClearEvents()
	require.NoError(t, env.rentals.Save(context.Background(), req))
	return req
}

// seedPendingPayment stores a payment row with an open attempt hold, the
// state right after a customer started checkout.
func (env *testEnv) seedPendingPayment(t *testing.T, req *domainrental.RentalRequest, ref string) *domainbilling.Payment {
	t.Helper()
	now := time.Now().UTC()
	payment, err := domainbilling.NewPayment(domainbilling.PaymentID("pay-"+string(req.ID)), req.ID, ref, req.Price, now)
	require.NoError(t, err)
	require.NoError(t, env.payments.Save(context.Background(), payment))
	require.NoError(t, env.attempts.Save(context.Background(), &domainbilling.PaymentAttempt{
		RentalID:       req.ID,
		TransactionRef: ref,
		ExpiresAt:      now.Add(30 * time.Minute),
		CreatedAt:      now,
	}))
	return payment
}

func testRange(t *testing.T, start, end string) domainrange.DateRange {
	t.Helper()
	s, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)
	e, err := time.Parse("2006-01-02", end)
	require.NoError(t, err)
	dr, err := domainrange.New(s, e)
	require.NoError(t, err)
	return dr
}
