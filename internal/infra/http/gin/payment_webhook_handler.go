package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"gearshare/internal/app/commands"
	billinghandlers "gearshare/internal/app/handlers/billing"
)

// PaymentWebhookHandler receives gateway callbacks over HTTP. The same
// command also arrives over the broker; idempotency on the transaction
// reference makes the duplicate path harmless.
type PaymentWebhookHandler struct {
	Commands commands.Bus
}

type paymentWebhookRequest struct {
	TransactionRef string `json:"transaction_ref" binding:"required"`
	Status         string `json:"status" binding:"required"`
}

func (h PaymentWebhookHandler) Receive(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := billinghandlers.PaymentEventCommand{
		TransactionRef: req.TransactionRef,
		Outcome:        req.Status,
	}
	result, err := commands.Dispatch[billinghandlers.PaymentEventCommand, *billinghandlers.PaymentEventResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PaymentWebhookHTTP = PaymentWebhookHandler{}
