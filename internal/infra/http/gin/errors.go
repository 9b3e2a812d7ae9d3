package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	billinghandlers "gearshare/internal/app/handlers/billing"
	rentalhandlers "gearshare/internal/app/handlers/rentals"
	domainavailability "gearshare/internal/domain/availability"
	domainbilling "gearshare/internal/domain/billing"
	domainpricing "gearshare/internal/domain/pricing"
	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
	domainrange "gearshare/internal/domain/shared/daterange"
)

// writeError maps domain failures onto HTTP statuses. Conflicts carry
// enough body for the client to resolve them without a second round trip.
func writeError(c *gin.Context, err error) {
	var conflict *domainavailability.ConflictError
	if errors.As(err, &conflict) {
		blocking := make([]gin.H, 0, len(conflict.Blocking))
		for _, r := range conflict.Blocking {
			blocking = append(blocking, gin.H{"start": r.Start, "end": r.End})
		}
		c.JSON(http.StatusConflict, gin.H{
			"error":           "requested range is not available",
			"blocking_ranges": blocking,
		})
		_ = c.Error(err)
		return
	}

	var illegal *domainrental.IllegalTransitionError
	if errors.As(err, &illegal) {
		c.JSON(http.StatusConflict, gin.H{
			"error":          err.Error(),
			"current_status": string(illegal.Current),
		})
		_ = c.Error(err)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domainrental.ErrNotFound),
		errors.Is(err, domainproduct.ErrNotFound),
		errors.Is(err, domainbilling.ErrPaymentNotFound),
		errors.Is(err, domainbilling.ErrReturnNotFound),
		errors.Is(err, domainbilling.ErrInvoiceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domainrental.ErrSelfRental):
		status = http.StatusForbidden
	case errors.Is(err, domainbilling.ErrAttemptInFlight):
		status = http.StatusConflict
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainpricing.ErrUnknownUnit),
		errors.Is(err, domainpricing.ErrInvalidPrice),
		errors.Is(err, domainbilling.ErrUnknownSeverity),
		errors.Is(err, domainbilling.ErrNegativeCost),
		errors.Is(err, billinghandlers.ErrUnknownOutcome),
		errors.Is(err, rentalhandlers.ErrStatusNotDirect):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
	_ = c.Error(err)
}
