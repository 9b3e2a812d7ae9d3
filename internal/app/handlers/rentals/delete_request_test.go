package rentals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbilling "gearshare/internal/domain/billing"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/money"
)

func TestDeleteRequestCascades(t *testing.T) {
	env := newTestEnv()
	prod := env.seedProduct(t, "prod-1", "owner-1")
	req := env.seedRental(t, "rent-1", prod, "cust-1", "2024-06-01", "2024-06-04", domainrental.StatusAccepted)

	ctx := context.Background()
	now := time.Now().UTC()
	payment, err := domainbilling.NewPayment("pay-1", req.ID, "ref-1", req.Price, now)
	require.NoError(t, err)
	require.NoError(t, env.payments.Save(ctx, payment))
	require.NoError(t, env.attempts.Save(ctx, &domainbilling.PaymentAttempt{
		RentalID:       req.ID,
		TransactionRef: "ref-1",
		ExpiresAt:      now.Add(30 * time.Minute),
		CreatedAt:      now,
	}))
	invoice, err := domainbilling.NewInvoice("inv-1", req.ID, money.Must(15000, "USD"), now)
	require.NoError(t, err)
	require.NoError(t, env.invoices.Save(ctx, invoice))

	h := &DeleteRequestHandler{UoWFactory: env.factory}
	res, err := h.Handle(ctx, DeleteRequestCommand{RentalID: "rent-1"})
	require.NoError(t, err)
	assert.Equal(t, "rent-1", res.RentalID)

	_, err = env.rentals.ByID(ctx, "rent-1")
	assert.ErrorIs(t, err, domainrental.ErrNotFound)
	_, err = env.payments.ByRentalID(ctx, "rent-1")
	assert.ErrorIs(t, err, domainbilling.ErrPaymentNotFound)
	_, err = env.attempts.ByRentalID(ctx, "rent-1")
	assert.ErrorIs(t, err, domainbilling.ErrAttemptNotFound)
	_, err = env.invoices.ByRentalID(ctx, "rent-1")
	assert.ErrorIs(t, err, domainbilling.ErrInvoiceNotFound)
}

func TestDeleteRequestUnknownRental(t *testing.T) {
	env := newTestEnv()
	h := &DeleteRequestHandler{UoWFactory: env.factory}

	_, err := h.Handle(context.Background(), DeleteRequestCommand{RentalID: "rent-missing"})
	assert.ErrorIs(t, err, domainrental.ErrNotFound)
}

func TestDeleteRequestWithoutBillingRows(t *testing.T) {
	env := newTestEnv()
	prod := env.seedProduct(t, "prod-1", "owner-1")
	env.seedRental(t, "rent-1", prod, "cust-1", "2024-06-01", "2024-06-04", domainrental.StatusPending)

	h := &DeleteRequestHandler{UoWFactory: env.factory}
	_, err := h.Handle(context.Background(), DeleteRequestCommand{RentalID: "rent-1"})
	require.NoError(t, err)

	_, err = env.rentals.ByID(context.Background(), "rent-1")
	assert.ErrorIs(t, err, domainrental.ErrNotFound)
}
