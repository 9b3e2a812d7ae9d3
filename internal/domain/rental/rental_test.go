package rental

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/domain/pricing"
	"gearshare/internal/domain/product"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testProduct(t *testing.T) *product.Product {
	t.Helper()
	prod, err := product.New(product.CreateParams{
		ID:           "prod-1",
		Owner:        "owner-1",
		Title:        "Camera",
		BaseUnit:     pricing.UnitDay,
		PricePerUnit: money.Must(5000, "USD"),
		Now:          testNow,
	})
	require.NoError(t, err)
	return prod
}

func testRequest(t *testing.T) *RentalRequest {
	t.Helper()
	dr, err := daterange.New(testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 4))
	require.NoError(t, err)
	quote, err := pricing.Price(pricing.UnitDay, dr, money.Must(5000, "USD"))
	require.NoError(t, err)
	req, err := NewRequest(CreateParams{
		ID:         "rental-1",
		Product:    testProduct(t),
		CustomerID: "customer-1",
		Range:      dr,
		Quote:      quote,
		Now:        testNow,
	})
	require.NoError(t, err)
	return req
}

func TestNewRequestStartsPendingWithEvent(t *testing.T) {
	req := testRequest(t)

	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, int64(3), req.Periods)
	assert.Equal(t, int64(15000), req.Price.Amount)

	events := req.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "rental.requested", events[0].EventName())
}

func TestNewRequestRejectsSelfRental(t *testing.T) {
	dr, err := daterange.New(testNow.AddDate(0, 0, 1), testNow.AddDate(0, 0, 4))
	require.NoError(t, err)
	quote, err := pricing.Price(pricing.UnitDay, dr, money.Must(5000, "USD"))
	require.NoError(t, err)

	_, err = NewRequest(CreateParams{
		ID:         "rental-1",
		Product:    testProduct(t),
		CustomerID: "owner-1",
		Range:      dr,
		Quote:      quote,
		Now:        testNow,
	})
	assert.ErrorIs(t, err, ErrSelfRental)
}

func TestHappyPathLifecycle(t *testing.T) {
	req := testRequest(t)

	require.NoError(t, req.Accept(testNow))
	assert.Equal(t, StatusAccepted, req.Status)

	require.NoError(t, req.MarkPaid(testNow))
	assert.Equal(t, StatusPaid, req.Status)

	require.NoError(t, req.MarkReturned(testNow))
	assert.Equal(t, StatusReturned, req.Status)

	require.NoError(t, req.Complete(testNow))
	assert.Equal(t, StatusCompleted, req.Status)
	assert.True(t, req.Status.Terminal())
}

func TestCompleteDirectlyFromPaid(t *testing.T) {
	req := testRequest(t)
	require.NoError(t, req.Accept(testNow))
	require.NoError(t, req.MarkPaid(testNow))

	require.NoError(t, req.Complete(testNow))
	assert.Equal(t, StatusCompleted, req.Status)
}

func TestPaidRequiresAccepted(t *testing.T) {
	req := testRequest(t)

	err := req.MarkPaid(testNow)
	var illegal *IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, StatusPending, illegal.Current)
	assert.Equal(t, StatusPaid, illegal.Attempted)
	assert.Equal(t, StatusPending, req.Status)
}

func TestRejectOnlyBeforePaid(t *testing.T) {
	req := testRequest(t)
	require.NoError(t, req.Accept(testNow))
	require.NoError(t, req.MarkPaid(testNow))

	err := req.Reject("too late", testNow)
	var illegal *IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, StatusPaid, illegal.Current)
}

func TestCancelReportsHeldProduct(t *testing.T) {
	req := testRequest(t)
	held, err := req.Cancel("changed my mind", testNow)
	require.NoError(t, err)
	assert.False(t, held)
	assert.Equal(t, StatusCancelled, req.Status)
	assert.Equal(t, "changed my mind", req.CancelReason)

	paid := testRequest(t)
	require.NoError(t, paid.Accept(testNow))
	require.NoError(t, paid.MarkPaid(testNow))
	held, err = paid.Cancel(ReasonDateConflict, testNow)
	require.NoError(t, err)
	assert.True(t, held)
	assert.Equal(t, ReasonDateConflict, paid.CancelReason)
}

func TestTerminalStatesRejectFurtherTransitions(t *testing.T) {
	req := testRequest(t)
	require.NoError(t, req.Reject("not this time", testNow))

	var illegal *IllegalTransitionError
	assert.ErrorAs(t, req.Accept(testNow), &illegal)
	_, err := req.Cancel("again", testNow)
	assert.ErrorAs(t, err, &illegal)
	assert.ErrorAs(t, req.Complete(testNow), &illegal)
}

func TestReturnedRequiresPaid(t *testing.T) {
	req := testRequest(t)
	require.NoError(t, req.Accept(testNow))

	var illegal *IllegalTransitionError
	require.ErrorAs(t, req.MarkReturned(testNow), &illegal)
	assert.Equal(t, StatusAccepted, illegal.Current)
	assert.Equal(t, StatusReturned, illegal.Attempted)
}

func TestLifecycleRecordsEvents(t *testing.T) {
	req := testRequest(t)
	require.NoError(t, req.Accept(testNow))
	require.NoError(t, req.MarkPaid(testNow))
	require.NoError(t, req.MarkReturned(testNow))
	require.NoError(t, req.Complete(testNow))

	names := make([]string, 0)
	for _, ev := range req.PendingEvents() {
		names = append(names, ev.EventName())
	}
	assert.Equal(t, []string{
		"rental.requested",
		"rental.accepted",
		"rental.paid",
		"rental.returned",
		"rental.completed",
	}, names)
}
