package pricing

import (
	"errors"
	"time"

	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrUnknownUnit  = errors.New("pricing: unknown rental period unit")
	ErrInvalidPrice = errors.New("pricing: period count and total must be positive")
)

// PeriodUnit is the rental billing unit. Longer units use fixed-length
// approximations, not calendar months or years.
type PeriodUnit string

const (
	UnitHour    PeriodUnit = "hour"
	UnitDay     PeriodUnit = "day"
	UnitWeek    PeriodUnit = "week"
	UnitMonth   PeriodUnit = "month"
	UnitQuarter PeriodUnit = "quarter"
	UnitYear    PeriodUnit = "year"
)

func (u PeriodUnit) Validate() error {
	switch u {
	case UnitHour, UnitDay, UnitWeek, UnitMonth, UnitQuarter, UnitYear:
		return nil
	}
	return ErrUnknownUnit
}

// Length returns the fixed duration of one unit.
func (u PeriodUnit) Length() time.Duration {
	switch u {
	case UnitHour:
		return time.Hour
	case UnitDay:
		return 24 * time.Hour
	case UnitWeek:
		return 7 * 24 * time.Hour
	case UnitMonth:
		return 30 * 24 * time.Hour
	case UnitQuarter:
		return 90 * 24 * time.Hour
	case UnitYear:
		return 365 * 24 * time.Hour
	}
	return 0
}

// Multiplier scales the per-day base rate up to the unit length. Hourly and
// daily units bill the base rate as-is; longer units bill base × day-count.
func (u PeriodUnit) Multiplier() int64 {
	switch u {
	case UnitWeek:
		return 7
	case UnitMonth:
		return 30
	case UnitQuarter:
		return 90
	case UnitYear:
		return 365
	default:
		return 1
	}
}

type Quote struct {
	Unit    PeriodUnit
	Periods int64
	Total   money.Money
}

// Price computes the deterministic rental price for a date range.
// periods = ceil(duration / unit length), total = periods × base × multiplier.
func Price(unit PeriodUnit, dr daterange.DateRange, basePerDay money.Money) (Quote, error) {
	if err := unit.Validate(); err != nil {
		return Quote{}, err
	}
	if err := dr.Validate(); err != nil {
		return Quote{}, err
	}
	length := unit.Length()
	duration := dr.Duration()
	periods := int64(duration / length)
	if duration%length != 0 {
		periods++
	}
	total := basePerDay.Multiply(periods * unit.Multiplier())
	if periods <= 0 || !total.IsPositive() {
		return Quote{}, ErrInvalidPrice
	}
	return Quote{Unit: unit, Periods: periods, Total: total}, nil
}
