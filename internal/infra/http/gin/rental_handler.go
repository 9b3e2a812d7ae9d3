package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gearshare/internal/app/commands"
	rentalhandlers "gearshare/internal/app/handlers/rentals"
)

type RentalHandler struct {
	Commands commands.Bus
}

type createRentalRequest struct {
	ProductID      string    `json:"product_id" binding:"required"`
	CustomerID     string    `json:"customer_id" binding:"required"`
	Start          time.Time `json:"start" binding:"required"`
	End            time.Time `json:"end" binding:"required"`
	Unit           string    `json:"unit"`
	PickupLocation string    `json:"pickup_location"`
	ReturnLocation string    `json:"return_location"`
}

func (h RentalHandler) Create(c *gin.Context) {
	var req createRentalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rentalhandlers.CreateRequestCommand{
		CommandID:       uuid.NewString(),
		ProductID:       req.ProductID,
		CustomerID:      req.CustomerID,
		Start:           req.Start,
		End:             req.End,
		Unit:            req.Unit,
		PickupLocation:  req.PickupLocation,
		ReturnLocation:  req.ReturnLocation,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[rentalhandlers.CreateRequestCommand, *rentalhandlers.CreateRequestResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type updateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
}

func (h RentalHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rentalhandlers.UpdateStatusCommand{
		RentalID:  c.Param("id"),
		NewStatus: req.Status,
		ActorID:   req.ActorID,
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[rentalhandlers.UpdateStatusCommand, *rentalhandlers.UpdateStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RentalHandler) StartPayment(c *gin.Context) {
	cmd := rentalhandlers.StartPaymentCommand{
		CommandID:       uuid.NewString(),
		RentalID:        c.Param("id"),
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[rentalhandlers.StartPaymentCommand, *rentalhandlers.StartPaymentResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

func (h RentalHandler) Delete(c *gin.Context) {
	cmd := rentalhandlers.DeleteRequestCommand{RentalID: c.Param("id")}
	result, err := commands.Dispatch[rentalhandlers.DeleteRequestCommand, *rentalhandlers.DeleteRequestResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ RentalHTTP = RentalHandler{}
