package product

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/pricing"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrNotFound     = errors.New("product: not found")
	ErrInvalidPrice = errors.New("product: price per unit must be positive")
)

type ProductID string

type OwnerID string

// Status is a derived cache of availability. The authoritative source of
// truth is the set of paid rental requests; the state machine recomputes
// this field on every relevant transition and request handlers never write
// it directly.
type Status string

const (
	StatusAvailable   Status = "AVAILABLE"
	StatusRented      Status = "RENTED"
	StatusUnavailable Status = "UNAVAILABLE"
)

type Product struct {
	ID           ProductID
	Owner        OwnerID
	Title        string
	BaseUnit     pricing.PeriodUnit
	PricePerUnit money.Money
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
}

type Repository interface {
	ByID(ctx context.Context, id ProductID) (*Product, error)
	Save(ctx context.Context, p *Product) error
}

type CreateParams struct {
	ID           ProductID
	Owner        OwnerID
	Title        string
	BaseUnit     pricing.PeriodUnit
	PricePerUnit money.Money
	Now          time.Time
}

func New(params CreateParams) (*Product, error) {
	if params.Owner == "" {
		return nil, errors.New("product: owner id required")
	}
	if !params.PricePerUnit.IsPositive() {
		return nil, ErrInvalidPrice
	}
	unit := params.BaseUnit
	if unit == "" {
		unit = pricing.UnitDay
	}
	if err := unit.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	return &Product{
		ID:           params.ID,
		Owner:        params.Owner,
		Title:        params.Title,
		BaseUnit:     unit,
		PricePerUnit: params.PricePerUnit,
		Status:       StatusAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// MarkRented flips the cached status after a rental reached paid.
func (p *Product) MarkRented(now time.Time) {
	p.Status = StatusRented
	p.UpdatedAt = now.UTC()
}

// MarkAvailable flips the cached status after a rental released the product.
func (p *Product) MarkAvailable(now time.Time) {
	p.Status = StatusAvailable
	p.UpdatedAt = now.UTC()
}

// MarkUnavailable takes the product off the market (owner action).
func (p *Product) MarkUnavailable(now time.Time) {
	p.Status = StatusUnavailable
	p.UpdatedAt = now.UTC()
}
