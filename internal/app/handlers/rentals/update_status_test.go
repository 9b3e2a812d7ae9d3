package rentals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
)

func newUpdateHandler(env *testEnv) *UpdateStatusHandler {
	return &UpdateStatusHandler{UoWFactory: env.factory, Outbox: env.outbox}
}

func TestUpdateStatusReject(t *testing.T) {
	env := newTestEnv()
	prod := env.seedProduct(t, "prod-1", "owner-1")
	env.seedRental(t, "rent-1", prod, "cust-1", "2024-06-01", "2024-06-04", domainrental.StatusPending)
	h := newUpdateHandler(env)

	res, err := h.Handle(context.Background(), UpdateStatusCommand{
		RentalID:  "rent-1",
		NewStatus: string(domainrental.StatusRejected),
		ActorID:   "owner-1",
		Reason:    "not available that week",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainrental.StatusRejected), res.Status)

	stored, err := env.rentals.ByID(context.Background(), "rent-1")
	require.NoError(t, err)
	assert.Equal(t, "not available that week", stored.CancelReason)
}

func TestUpdateStatusGuardedTargets(t *testing.T) {
	env := newTestEnv()
	prod := env.seedProduct(t, "prod-1", "owner-1")
	env.seedRental(t, "rent-1", prod, "cust-1", "2024-06-01", "2024-06-04", domainrental.StatusAccepted)
	h := newUpdateHandler(env)

	for _, target := range []string{string(domainrental.StatusPaid), string(domainrental.StatusPending), "ARCHIVED"} {
		_, err := h.Handle(context.Background(), UpdateStatusCommand{RentalID: "rent-1", NewStatus: target})
		assert.ErrorIs(t, err, ErrStatusNotDirect, "target %s", target)
	}
}

func TestUpdateStatusCancelPaidReleasesProduct(t *testing.T) {
	env := newTestEnv()
	prod := env.seedProduct(t, "prod-1", "owner-1")
	prod.MarkRented(time.Now())
	require.NoError(t, env.products.Save(context.Background(), prod))
	env.seedRental(t, "rent-1", prod, "cust-1", "2024-06-01", "2024-06-04", domainrental.StatusPaid)
	h := newUpdateHandler(env)

	res, err := h.Handle(context.Background(), UpdateStatusCommand{
		RentalID:  "rent-1",
		NewStatus: string(domainrental.StatusCancelled),
		Reason:    "customer request",
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainrental.StatusCancelled), res.Status)

	stored, err := env.products.ByID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, domainproduct.StatusAvailable, stored.Status)
}

func TestUpdateStatusCancelAcceptedKeepsProductStatus(t *testing.T) {
	env := newTestEnv()
	prod := env.seedProduct(t, "prod-1", "owner-1")
	prod.MarkRented(time.Now())
	require.NoError(t, env.products.Save(context.Background(), prod))
	env.seedRental(t, "rent-1", prod, "cust-1", "2024-06-01", "2024-06-04", domainrental.StatusAccepted)
	h := newUpdateHandler(env)

	_, err := h.Handle(context.Background(), UpdateStatusCommand{
		RentalID:  "rent-1",
		NewStatus: string(domainrental.StatusCancelled),
	})
	require.NoError(t, err)

	stored, err := env.products.ByID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, domainproduct.StatusRented, stored.Status)
}

func TestUpdateStatusReturnedReleasesProduct(t *testing.T) {
	env := newTestEnv()
	prod := env.seedProduct(t, "prod-1", "owner-1")
	prod.MarkRented(time.Now())
	require.NoError(t, env.products.Save(context.Background(), prod))
	env.seedRental(t, "rent-1", prod, "cust-1", "2024-06-01", "2024-06-04", domainrental.StatusPaid)
	h := newUpdateHandler(env)

	res, err := h.Handle(context.Background(), UpdateStatusCommand{
		RentalID:  "rent-1",
		NewStatus: string(domainrental.StatusReturned),
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainrental.StatusReturned), res.Status)

	stored, err := env.products.ByID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, domainproduct.StatusAvailable, stored.Status)
}

func TestUpdateStatusCompleteFromPaid(t *testing.T) {
	env := newTestEnv()
	prod := env.seedProduct(t, "prod-1", "owner-1")
	prod.MarkRented(time.Now())
	require.NoError(t, env.products.Save(context.Background(), prod))
	env.seedRental(t, "rent-1", prod, "cust-1", "2024-06-01", "2024-06-04", domainrental.StatusPaid)
	h := newUpdateHandler(env)

	res, err := h.Handle(context.Background(), UpdateStatusCommand{
		RentalID:  "rent-1",
		NewStatus: string(domainrental.StatusCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, string(domainrental.StatusCompleted), res.Status)

	stored, err := env.products.ByID(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, domainproduct.StatusAvailable, stored.Status)
}

func TestUpdateStatusIllegalTransition(t *testing.T) {
	env := newTestEnv()
	prod := env.seedProduct(t, "prod-1", "owner-1")
	env.seedRental(t, "rent-1", prod, "cust-1", "2024-06-01", "2024-06-04", domainrental.StatusPaid)
	h := newUpdateHandler(env)

	_, err := h.Handle(context.Background(), UpdateStatusCommand{
		RentalID:  "rent-1",
		NewStatus: string(domainrental.StatusRejected),
	})
	var illegal *domainrental.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, domainrental.StatusPaid, illegal.Current)
	assert.Equal(t, domainrental.StatusRejected, illegal.Attempted)
}

func TestUpdateStatusUnknownRental(t *testing.T) {
	env := newTestEnv()
	h := newUpdateHandler(env)

	_, err := h.Handle(context.Background(), UpdateStatusCommand{
		RentalID:  "rent-missing",
		NewStatus: string(domainrental.StatusRejected),
	})
	assert.ErrorIs(t, err, domainrental.ErrNotFound)
}
