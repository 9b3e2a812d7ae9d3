package billing

import (
	"time"

	"gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/money"
)

type PaymentSettled struct {
	PaymentID      PaymentID
	RentalID       rental.RentalID
	TransactionRef string
	Amount         money.Money
	At             time.Time
}

func (e PaymentSettled) EventName() string     { return "payment.settled" }
func (e PaymentSettled) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentSettled) OccurredAt() time.Time { return e.At }

type PaymentDeclined struct {
	PaymentID      PaymentID
	RentalID       rental.RentalID
	TransactionRef string
	At             time.Time
}

func (e PaymentDeclined) EventName() string     { return "payment.declined" }
func (e PaymentDeclined) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentDeclined) OccurredAt() time.Time { return e.At }

type InvoiceIssued struct {
	InvoiceID InvoiceID
	RentalID  rental.RentalID
	Amount    money.Money
	DueDate   time.Time
	At        time.Time
}

func (e InvoiceIssued) EventName() string     { return "invoice.issued" }
func (e InvoiceIssued) AggregateID() string   { return string(e.InvoiceID) }
func (e InvoiceIssued) OccurredAt() time.Time { return e.At }

type DamageFeeApplied struct {
	InvoiceID InvoiceID
	RentalID  rental.RentalID
	Fee       money.Money
	At        time.Time
}

func (e DamageFeeApplied) EventName() string     { return "invoice.damage_fee_applied" }
func (e DamageFeeApplied) AggregateID() string   { return string(e.InvoiceID) }
func (e DamageFeeApplied) OccurredAt() time.Time { return e.At }
