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
	ErrInvoiceNotFound = errors.New("billing: invoice not found")
)

const (
	// DefaultTaxRatePercent applies to invoices issued by the engine.
	DefaultTaxRatePercent = 10
	// DefaultDueIn is the payment window for freshly issued invoices.
	DefaultDueIn = 7 * 24 * time.Hour
)

type InvoiceID string

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "PENDING"
	InvoiceSent      InvoiceStatus = "SENT"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

type ItemType string

const (
	ItemRentalFee        ItemType = "rental_fee"
	ItemTax              ItemType = "tax"
	ItemLateFee          ItemType = "late_fee"
	ItemDamageFee        ItemType = "damage_fee"
	ItemAdditionalCharge ItemType = "additional_charge"
)

type InvoiceItem struct {
	Description string
	Quantity    int64
	UnitPrice   money.Money
	TotalPrice  money.Money
	Type        ItemType
}

// Invoice is the single bill attached to a rental request. Amount folds the
// damage fee into AdditionalCharges; DamageFee mirrors the latest assessed
// cost for display.
type Invoice struct {
	ID                InvoiceID
	RentalID          rental.RentalID
	Subtotal          money.Money
	TaxRatePercent    int64
	TaxAmount         money.Money
	LateFee           money.Money
	DamageFee         money.Money
	AdditionalCharges money.Money
	Amount            money.Money
	Status            InvoiceStatus
	DueDate           time.Time
	PaidDate          *time.Time
	Items             []InvoiceItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64
	events.EventRecorder
}

func NewInvoice(id InvoiceID, rentalID rental.RentalID, rentalPrice money.Money, now time.Time) (*Invoice, error) {
	if !rentalPrice.IsPositive() {
		return nil, errors.New("billing: invoice subtotal must be positive")
	}
	t := now.UTC()
	tax := rentalPrice.Percent(DefaultTaxRatePercent)
	inv := &Invoice{
		ID:             id,
		RentalID:       rentalID,
		Subtotal:       rentalPrice,
		TaxRatePercent: DefaultTaxRatePercent,
		TaxAmount:      tax,
		Status:         InvoicePending,
		DueDate:        t.Add(DefaultDueIn),
		CreatedAt:      t,
		UpdatedAt:      t,
		Items: []InvoiceItem{
			{Description: "Rental fee", Quantity: 1, UnitPrice: rentalPrice, TotalPrice: rentalPrice, Type: ItemRentalFee},
			{Description: "Tax", Quantity: 1, UnitPrice: tax, TotalPrice: tax, Type: ItemTax},
		},
	}
	inv.recomputeAmount()
	inv.Record(InvoiceIssued{InvoiceID: inv.ID, RentalID: inv.RentalID, Amount: inv.Amount, DueDate: inv.DueDate, At: t})
	return inv, nil
}

func (inv *Invoice) MarkPaid(now time.Time) {
	t := now.UTC()
	inv.Status = InvoicePaid
	inv.PaidDate = &t
	inv.UpdatedAt = t
}

// ApplyDamageFee upserts the single damage_fee item and recomputes
// AdditionalCharges without double-counting a previous assessment.
func (inv *Invoice) ApplyDamageFee(cost money.Money, description string, now time.Time) error {
	if cost.Amount < 0 {
		return ErrNegativeCost
	}
	previous := inv.DamageFee
	if previous.Currency == "" {
		previous = money.Money{Amount: 0, Currency: cost.Currency}
	}
	delta, err := cost.Sub(previous)
	if err != nil {
		return err
	}
	additional := inv.AdditionalCharges
	if additional.Currency == "" {
		additional = money.Money{Amount: 0, Currency: cost.Currency}
	}
	additional, err = additional.Add(delta)
	if err != nil {
		return err
	}
	inv.AdditionalCharges = additional
	inv.DamageFee = cost

	item := InvoiceItem{Description: description, Quantity: 1, UnitPrice: cost, TotalPrice: cost, Type: ItemDamageFee}
	replaced := false
	for i := range inv.Items {
		if inv.Items[i].Type == ItemDamageFee {
			inv.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		inv.Items = append(inv.Items, item)
	}
	inv.UpdatedAt = now.UTC()
	inv.recomputeAmount()
	inv.Record(DamageFeeApplied{InvoiceID: inv.ID, RentalID: inv.RentalID, Fee: cost, At: inv.UpdatedAt})
	return nil
}

// DamageItem returns the damage fee line if present.
func (inv *Invoice) DamageItem() (InvoiceItem, bool) {
	for _, item := range inv.Items {
		if item.Type == ItemDamageFee {
			return item, true
		}
	}
	return InvoiceItem{}, false
}

func (inv *Invoice) recomputeAmount() {
	total := inv.Subtotal
	add := func(m money.Money) {
		if m.Currency == "" {
			return
		}
		res, err := total.Add(m)
		if err == nil {
			total = res
		}
	}
	add(inv.TaxAmount)
	add(inv.LateFee)
	add(inv.AdditionalCharges)
	inv.Amount = total
}

type InvoiceRepository interface {
	ByRentalID(ctx context.Context, id rental.RentalID) (*Invoice, error)
	Save(ctx context.Context, inv *Invoice) error
	DeleteByRental(ctx context.Context, id rental.RentalID) error
}
