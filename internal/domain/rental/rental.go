package rental

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gearshare/internal/domain/pricing"
	"gearshare/internal/domain/product"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/events"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrNotFound   = errors.New("rental: not found")
	ErrSelfRental = errors.New("rental: customers cannot rent their own product")
)

// ReasonDateConflict marks competitors cancelled because another request
// for the same product reached paid with an overlapping range.
const ReasonDateConflict = "date_conflict"

type RentalID string

type CustomerID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusPaid      Status = "PAID"
	StatusReturned  Status = "RETURNED"
	StatusCompleted Status = "COMPLETED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IllegalTransitionError reports a transition the state machine forbids.
// It carries the actual current status so callers can resynchronize.
type IllegalTransitionError struct {
	Current   Status
	Attempted Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("rental: illegal transition %s -> %s", e.Current, e.Attempted)
}

func illegal(current, attempted Status) error {
	return &IllegalTransitionError{Current: current, Attempted: attempted}
}

// RentalRequest is the booking aggregate. It is mutated only through the
// transition methods below; repositories persist it as an opaque whole.
type RentalRequest struct {
	ID             RentalID
	ProductID      product.ProductID
	CustomerID     CustomerID
	Range          daterange.DateRange
	Unit           pricing.PeriodUnit
	Periods        int64
	Price          money.Money
	PickupLocation string
	ReturnLocation string
	Status         Status
	CancelReason   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RentalID) (*RentalRequest, error)
	Save(ctx context.Context, r *RentalRequest) error
	// ListByProduct returns every request for a product holding one of the
	// given statuses. An empty status list means all statuses.
	ListByProduct(ctx context.Context, id product.ProductID, statuses ...Status) ([]*RentalRequest, error)
	Delete(ctx context.Context, id RentalID) error
}

type CreateParams struct {
	ID             RentalID
	Product        *product.Product
	CustomerID     CustomerID
	Range          daterange.DateRange
	Quote          pricing.Quote
	PickupLocation string
	ReturnLocation string
	Now            time.Time
}

func NewRequest(params CreateParams) (*RentalRequest, error) {
	if params.CustomerID == "" {
		return nil, errors.New("rental: customer id required")
	}
	if params.Product == nil {
		return nil, product.ErrNotFound
	}
	if string(params.Product.Owner) == string(params.CustomerID) {
		return nil, ErrSelfRental
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.Quote.Periods <= 0 || !params.Quote.Total.IsPositive() {
		return nil, pricing.ErrInvalidPrice
	}
	now := params.Now.UTC()
	r := &RentalRequest{
		ID:             params.ID,
		ProductID:      params.Product.ID,
		CustomerID:     params.CustomerID,
		Range:          params.Range,
		Unit:           params.Quote.Unit,
		Periods:        params.Quote.Periods,
		Price:          params.Quote.Total,
		PickupLocation: params.PickupLocation,
		ReturnLocation: params.ReturnLocation,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.Record(RequestCreated{RentalID: r.ID, ProductID: r.ProductID, CustomerID: r.CustomerID, Range: r.Range, Price: r.Price, At: now})
	return r, nil
}

// Accept moves a pending request to accepted. Under the instant-rental
// policy this runs at creation time without owner involvement.
func (r *RentalRequest) Accept(now time.Time) error {
	if r.Status != StatusPending {
		return illegal(r.Status, StatusAccepted)
	}
	r.Status = StatusAccepted
	r.UpdatedAt = now.UTC()
	r.Record(RequestAccepted{RentalID: r.ID, At: r.UpdatedAt})
	return nil
}

func (r *RentalRequest) Reject(reason string, now time.Time) error {
	if r.Status != StatusPending && r.Status != StatusAccepted {
		return illegal(r.Status, StatusRejected)
	}
	r.Status = StatusRejected
	r.CancelReason = reason
	r.UpdatedAt = now.UTC()
	r.Record(RequestRejected{RentalID: r.ID, Reason: reason, At: r.UpdatedAt})
	return nil
}

// MarkPaid is driven exclusively by the payment reconciler after a gateway
// success event. Paid-exclusivity against competing requests is re-verified
// by the caller inside the same transaction.
func (r *RentalRequest) MarkPaid(now time.Time) error {
	if r.Status != StatusAccepted {
		return illegal(r.Status, StatusPaid)
	}
	r.Status = StatusPaid
	r.UpdatedAt = now.UTC()
	r.Record(RequestPaid{RentalID: r.ID, ProductID: r.ProductID, Range: r.Range, Price: r.Price, At: r.UpdatedAt})
	return nil
}

// Cancel aborts the request. HeldProduct reports whether the prior status
// implied the product was held, so the caller can release the status cache.
func (r *RentalRequest) Cancel(reason string, now time.Time) (heldProduct bool, err error) {
	switch r.Status {
	case StatusPending, StatusAccepted, StatusPaid:
	default:
		return false, illegal(r.Status, StatusCancelled)
	}
	heldProduct = r.Status == StatusPaid
	r.Status = StatusCancelled
	r.CancelReason = reason
	r.UpdatedAt = now.UTC()
	r.Record(RequestCancelled{RentalID: r.ID, ProductID: r.ProductID, CustomerID: r.CustomerID, Reason: reason, At: r.UpdatedAt})
	return heldProduct, nil
}

// MarkReturned records the customer handing the product back. The owner
// still has to confirm condition, so the status is not yet terminal.
func (r *RentalRequest) MarkReturned(now time.Time) error {
	if r.Status != StatusPaid {
		return illegal(r.Status, StatusReturned)
	}
	r.Status = StatusReturned
	r.UpdatedAt = now.UTC()
	r.Record(RequestReturned{RentalID: r.ID, ProductID: r.ProductID, At: r.UpdatedAt})
	return nil
}

// Complete is the owner confirming the return.
func (r *RentalRequest) Complete(now time.Time) error {
	if r.Status != StatusPaid && r.Status != StatusReturned {
		return illegal(r.Status, StatusCompleted)
	}
	r.Status = StatusCompleted
	r.UpdatedAt = now.UTC()
	r.Record(RequestCompleted{RentalID: r.ID, ProductID: r.ProductID, At: r.UpdatedAt})
	return nil
}
