package billing

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/events"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrPaymentNotFound  = errors.New("billing: payment not found")
	ErrAttemptNotFound  = errors.New("billing: payment attempt not found")
	ErrAttemptInFlight  = errors.New("billing: an unexpired payment attempt already holds this rental")
	ErrPaymentFinalized = errors.New("billing: payment already finalized")
)

type PaymentID string

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Payment is one charge attempt against a rental request, keyed externally
// by the gateway's transaction reference.
type Payment struct {
	ID             PaymentID
	RentalID       rental.RentalID
	TransactionRef string
	Amount         money.Money
	Status         PaymentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
	events.EventRecorder
}

func NewPayment(id PaymentID, rentalID rental.RentalID, ref string, amount money.Money, now time.Time) (*Payment, error) {
	if ref == "" {
		return nil, errors.New("billing: transaction reference required")
	}
	if !amount.IsPositive() {
		return nil, errors.New("billing: payment amount must be positive")
	}
	t := now.UTC()
	return &Payment{
		ID:             id,
		RentalID:       rentalID,
		TransactionRef: ref,
		Amount:         amount,
		Status:         PaymentPending,
		CreatedAt:      t,
		UpdatedAt:      t,
	}, nil
}

func (p *Payment) MarkCompleted(now time.Time) error {
	if p.Status == PaymentCompleted {
		return ErrPaymentFinalized
	}
	p.Status = PaymentCompleted
	p.UpdatedAt = now.UTC()
	p.Record(PaymentSettled{PaymentID: p.ID, RentalID: p.RentalID, TransactionRef: p.TransactionRef, Amount: p.Amount, At: p.UpdatedAt})
	return nil
}

func (p *Payment) MarkFailed(now time.Time) {
	p.Status = PaymentFailed
	p.UpdatedAt = now.UTC()
	p.Record(PaymentDeclined{PaymentID: p.ID, RentalID: p.RentalID, TransactionRef: p.TransactionRef, At: p.UpdatedAt})
}

// Reissue points the payment at a fresh gateway attempt after the previous
// one failed or its hold expired.
func (p *Payment) Reissue(ref string, now time.Time) error {
	if p.Status == PaymentCompleted {
		return ErrPaymentFinalized
	}
	if ref == "" {
		return errors.New("billing: transaction reference required")
	}
	p.TransactionRef = ref
	p.Status = PaymentPending
	p.UpdatedAt = now.UTC()
	return nil
}

func (p *Payment) MarkRefunded(now time.Time) {
	p.Status = PaymentRefunded
	p.UpdatedAt = now.UTC()
}

// PaymentAttempt is the transient hold reserving a rental request while a
// payment is in flight. It is deleted on success and ignored once expired.
type PaymentAttempt struct {
	RentalID       rental.RentalID
	TransactionRef string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

func (a PaymentAttempt) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now.UTC())
}

type PaymentRepository interface {
	ByTransactionRef(ctx context.Context, ref string) (*Payment, error)
	ByRentalID(ctx context.Context, id rental.RentalID) (*Payment, error)
	Save(ctx context.Context, p *Payment) error
	DeleteByRental(ctx context.Context, id rental.RentalID) error
}

type AttemptRepository interface {
	ByRentalID(ctx context.Context, id rental.RentalID) (*PaymentAttempt, error)
	Save(ctx context.Context, a *PaymentAttempt) error
	DeleteByRental(ctx context.Context, id rental.RentalID) error
}
