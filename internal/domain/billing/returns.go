package billing

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrReturnNotFound     = errors.New("billing: product return not found")
	ErrAssessmentNotFound = errors.New("billing: damage assessment not found")
	ErrNegativeCost       = errors.New("billing: estimated cost cannot be negative")
	ErrUnknownSeverity    = errors.New("billing: unknown damage severity")
)

type ReturnID string

type ReturnStatus string

const (
	ReturnInitiated  ReturnStatus = "INITIATED"
	ReturnInProgress ReturnStatus = "IN_PROGRESS"
	ReturnCompleted  ReturnStatus = "COMPLETED"
	ReturnCancelled  ReturnStatus = "CANCELLED"
)

// ProductReturn tracks the hand-back of a rented product. One per rental.
type ProductReturn struct {
	ID         ReturnID
	RentalID   rental.RentalID
	ReturnDate time.Time
	Status     ReturnStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewProductReturn(id ReturnID, rentalID rental.RentalID, returnDate, now time.Time) *ProductReturn {
	t := now.UTC()
	return &ProductReturn{
		ID:         id,
		RentalID:   rentalID,
		ReturnDate: returnDate.UTC(),
		Status:     ReturnInitiated,
		CreatedAt:  t,
		UpdatedAt:  t,
	}
}

func (pr *ProductReturn) Complete(now time.Time) {
	pr.Status = ReturnCompleted
	pr.UpdatedAt = now.UTC()
}

type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
)

func (s Severity) Validate() error {
	switch s {
	case SeverityMinor, SeverityModerate, SeverityMajor:
		return nil
	}
	return ErrUnknownSeverity
}

// DamageAssessment records the owner's condition verdict for a return.
// At most one per product return; re-assessment replaces the previous one.
type DamageAssessment struct {
	ID            string
	ReturnID      ReturnID
	Severity      Severity
	EstimatedCost money.Money
	Approved      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewDamageAssessment(id string, returnID ReturnID, severity Severity, cost money.Money, now time.Time) (*DamageAssessment, error) {
	if err := severity.Validate(); err != nil {
		return nil, err
	}
	if cost.Amount < 0 {
		return nil, ErrNegativeCost
	}
	t := now.UTC()
	return &DamageAssessment{
		ID:            id,
		ReturnID:      returnID,
		Severity:      severity,
		EstimatedCost: cost,
		CreatedAt:     t,
		UpdatedAt:     t,
	}, nil
}

func (a *DamageAssessment) Reassess(severity Severity, cost money.Money, now time.Time) error {
	if err := severity.Validate(); err != nil {
		return err
	}
	if cost.Amount < 0 {
		return ErrNegativeCost
	}
	a.Severity = severity
	a.EstimatedCost = cost
	a.UpdatedAt = now.UTC()
	return nil
}

type ReturnRepository interface {
	ByID(ctx context.Context, id ReturnID) (*ProductReturn, error)
	ByRentalID(ctx context.Context, id rental.RentalID) (*ProductReturn, error)
	Save(ctx context.Context, pr *ProductReturn) error
	AssessmentByReturn(ctx context.Context, id ReturnID) (*DamageAssessment, error)
	SaveAssessment(ctx context.Context, a *DamageAssessment) error
}
