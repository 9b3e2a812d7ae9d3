package rental

import (
	"time"

	"gearshare/internal/domain/product"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

type RequestCreated struct {
	RentalID   RentalID
	ProductID  product.ProductID
	CustomerID CustomerID
	Range      daterange.DateRange
	Price      money.Money
	At         time.Time
}

func (e RequestCreated) EventName() string     { return "rental.requested" }
func (e RequestCreated) AggregateID() string   { return string(e.RentalID) }
func (e RequestCreated) OccurredAt() time.Time { return e.At }

type RequestAccepted struct {
	RentalID RentalID
	At       time.Time
}

func (e RequestAccepted) EventName() string     { return "rental.accepted" }
func (e RequestAccepted) AggregateID() string   { return string(e.RentalID) }
func (e RequestAccepted) OccurredAt() time.Time { return e.At }

type RequestRejected struct {
	RentalID RentalID
	Reason   string
	At       time.Time
}

func (e RequestRejected) EventName() string     { return "rental.rejected" }
func (e RequestRejected) AggregateID() string   { return string(e.RentalID) }
func (e RequestRejected) OccurredAt() time.Time { return e.At }

type RequestPaid struct {
	RentalID  RentalID
	ProductID product.ProductID
	Range     daterange.DateRange
	Price     money.Money
	At        time.Time
}

func (e RequestPaid) EventName() string     { return "rental.paid" }
func (e RequestPaid) AggregateID() string   { return string(e.RentalID) }
func (e RequestPaid) OccurredAt() time.Time { return e.At }

type RequestCancelled struct {
	RentalID   RentalID
	ProductID  product.ProductID
	CustomerID CustomerID
	Reason     string
	At         time.Time
}

func (e RequestCancelled) EventName() string     { return "rental.cancelled" }
func (e RequestCancelled) AggregateID() string   { return string(e.RentalID) }
func (e RequestCancelled) OccurredAt() time.Time { return e.At }

type RequestReturned struct {
	RentalID  RentalID
	ProductID product.ProductID
	At        time.Time
}

func (e RequestReturned) EventName() string     { return "rental.returned" }
func (e RequestReturned) AggregateID() string   { return string(e.RentalID) }
func (e RequestReturned) OccurredAt() time.Time { return e.At }

type RequestCompleted struct {
	RentalID  RentalID
	ProductID product.ProductID
	At        time.Time
}

func (e RequestCompleted) EventName() string     { return "rental.completed" }
func (e RequestCompleted) AggregateID() string   { return string(e.RentalID) }
func (e RequestCompleted) OccurredAt() time.Time { return e.At }
