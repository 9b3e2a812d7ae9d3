package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/domain/shared/money"
)

var invNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func testInvoice(t *testing.T) *Invoice {
	t.Helper()
	inv, err := NewInvoice("inv-1", "rental-1", money.Must(15000, "USD"), invNow)
	require.NoError(t, err)
	return inv
}

func TestNewInvoiceAppliesTaxAndDueDate(t *testing.T) {
	inv := testInvoice(t)

	assert.Equal(t, int64(15000), inv.Subtotal.Amount)
	assert.Equal(t, int64(DefaultTaxRatePercent), inv.TaxRatePercent)
	assert.Equal(t, int64(1500), inv.TaxAmount.Amount)
	assert.Equal(t, int64(16500), inv.Amount.Amount)
	assert.Equal(t, invNow.Add(7*24*time.Hour), inv.DueDate)
	assert.Equal(t, InvoicePending, inv.Status)
	assert.Nil(t, inv.PaidDate)

	require.Len(t, inv.Items, 2)
	assert.Equal(t, ItemRentalFee, inv.Items[0].Type)
	assert.Equal(t, ItemTax, inv.Items[1].Type)

	events := inv.PendingEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "invoice.issued", events[0].EventName())
}

func TestNewInvoiceRequiresPositiveSubtotal(t *testing.T) {
	_, err := NewInvoice("inv-1", "rental-1", money.Money{Amount: 0, Currency: "USD"}, invNow)
	assert.Error(t, err)
}

func TestMarkPaidStampsDate(t *testing.T) {
	inv := testInvoice(t)
	inv.MarkPaid(invNow.Add(time.Hour))

	assert.Equal(t, InvoicePaid, inv.Status)
	require.NotNil(t, inv.PaidDate)
	assert.Equal(t, invNow.Add(time.Hour), *inv.PaidDate)
}

func TestApplyDamageFeeAddsSingleItem(t *testing.T) {
	inv := testInvoice(t)
	require.NoError(t, inv.ApplyDamageFee(money.Must(2000, "USD"), "Damage fee (minor)", invNow))

	assert.Equal(t, int64(2000), inv.DamageFee.Amount)
	assert.Equal(t, int64(2000), inv.AdditionalCharges.Amount)
	assert.Equal(t, int64(16500+2000), inv.Amount.Amount)

	item, ok := inv.DamageItem()
	require.True(t, ok)
	assert.Equal(t, int64(2000), item.TotalPrice.Amount)
	assert.Equal(t, "Damage fee (minor)", item.Description)
}

func TestReassessmentDoesNotDoubleCount(t *testing.T) {
	inv := testInvoice(t)
	require.NoError(t, inv.ApplyDamageFee(money.Must(2000, "USD"), "Damage fee (minor)", invNow))
	require.NoError(t, inv.ApplyDamageFee(money.Must(8000, "USD"), "Damage fee (major)", invNow.Add(time.Hour)))

	// Only the latest assessed cost counts, with exactly one damage line.
	assert.Equal(t, int64(8000), inv.DamageFee.Amount)
	assert.Equal(t, int64(8000), inv.AdditionalCharges.Amount)
	assert.Equal(t, int64(16500+8000), inv.Amount.Amount)

	damageItems := 0
	for _, item := range inv.Items {
		if item.Type == ItemDamageFee {
			damageItems++
		}
	}
	assert.Equal(t, 1, damageItems)

	item, ok := inv.DamageItem()
	require.True(t, ok)
	assert.Equal(t, "Damage fee (major)", item.Description)
	assert.Equal(t, int64(8000), item.TotalPrice.Amount)
}

func TestReassessmentCanLowerTheFee(t *testing.T) {
	inv := testInvoice(t)
	require.NoError(t, inv.ApplyDamageFee(money.Must(8000, "USD"), "Damage fee (major)", invNow))
	require.NoError(t, inv.ApplyDamageFee(money.Must(500, "USD"), "Damage fee (minor)", invNow))

	assert.Equal(t, int64(500), inv.DamageFee.Amount)
	assert.Equal(t, int64(500), inv.AdditionalCharges.Amount)
	assert.Equal(t, int64(16500+500), inv.Amount.Amount)
}

func TestApplyDamageFeeRejectsNegativeCost(t *testing.T) {
	inv := testInvoice(t)
	err := inv.ApplyDamageFee(money.Money{Amount: -1, Currency: "USD"}, "bad", invNow)
	assert.ErrorIs(t, err, ErrNegativeCost)
}
