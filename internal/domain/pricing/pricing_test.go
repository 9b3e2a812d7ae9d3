package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

func rangeBetween(t *testing.T, start, end string) daterange.DateRange {
	t.Helper()
	s, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)
	e, err := time.Parse("2006-01-02", end)
	require.NoError(t, err)
	dr, err := daterange.New(s, e)
	require.NoError(t, err)
	return dr
}

func TestPriceDailyThreeDays(t *testing.T) {
	quote, err := Price(UnitDay, rangeBetween(t, "2024-01-01", "2024-01-04"), money.Must(5000, "USD"))
	require.NoError(t, err)

	assert.Equal(t, UnitDay, quote.Unit)
	assert.Equal(t, int64(3), quote.Periods)
	assert.Equal(t, int64(15000), quote.Total.Amount)
	assert.Equal(t, "USD", quote.Total.Currency)
}

func TestPriceWeeklyScalesWithDayCount(t *testing.T) {
	quote, err := Price(UnitWeek, rangeBetween(t, "2024-01-01", "2024-01-08"), money.Must(5000, "USD"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), quote.Periods)
	// one week billed as 7x the daily base rate
	assert.Equal(t, int64(35000), quote.Total.Amount)
}

func TestPricePartialPeriodRoundsUp(t *testing.T) {
	quote, err := Price(UnitWeek, rangeBetween(t, "2024-01-01", "2024-01-09"), money.Must(5000, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), quote.Periods)
	assert.Equal(t, int64(70000), quote.Total.Amount)

	quote, err = Price(UnitDay, rangeBetween(t, "2024-01-01", "2024-01-04"), money.Must(100, "EUR"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), quote.Periods)
}

func TestPriceHourly(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)
	dr, err := daterange.New(start, end)
	require.NoError(t, err)

	quote, err := Price(UnitHour, dr, money.Must(900, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), quote.Periods)
	assert.Equal(t, int64(2700), quote.Total.Amount)
}

func TestPriceLongUnitsUseFixedLengths(t *testing.T) {
	cases := []struct {
		unit    PeriodUnit
		end     string
		periods int64
		total   int64
	}{
		{UnitMonth, "2024-01-31", 1, 30 * 5000},
		{UnitQuarter, "2024-03-31", 1, 90 * 5000},
		{UnitYear, "2024-12-31", 1, 365 * 5000},
	}
	for _, tc := range cases {
		quote, err := Price(tc.unit, rangeBetween(t, "2024-01-01", tc.end), money.Must(5000, "USD"))
		require.NoError(t, err, tc.unit)
		assert.Equal(t, tc.periods, quote.Periods, tc.unit)
		assert.Equal(t, tc.total, quote.Total.Amount, tc.unit)
	}
}

func TestPriceIsDeterministic(t *testing.T) {
	dr := rangeBetween(t, "2024-01-01", "2024-01-04")
	first, err := Price(UnitDay, dr, money.Must(5000, "USD"))
	require.NoError(t, err)
	second, err := Price(UnitDay, dr, money.Must(5000, "USD"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPriceRejectsBadInput(t *testing.T) {
	_, err := Price(PeriodUnit("fortnight"), rangeBetween(t, "2024-01-01", "2024-01-04"), money.Must(5000, "USD"))
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = Price(UnitDay, rangeBetween(t, "2024-01-01", "2024-01-04"), money.Money{Amount: 0, Currency: "USD"})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = Price(UnitDay, daterange.DateRange{}, money.Must(5000, "USD"))
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}
