package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"gearshare/internal/app/commands"
	billinghandlers "gearshare/internal/app/handlers/billing"
)

type ReturnHandler struct {
	Commands commands.Bus
}

type initiateReturnRequest struct {
	RentalID   string    `json:"rental_id" binding:"required"`
	ReturnDate time.Time `json:"return_date"`
}

func (h ReturnHandler) Initiate(c *gin.Context) {
	var req initiateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ReturnDate.IsZero() {
		req.ReturnDate = time.Now().UTC()
	}
	cmd := billinghandlers.InitiateReturnCommand{RentalID: req.RentalID, ReturnDate: req.ReturnDate}
	result, err := commands.Dispatch[billinghandlers.InitiateReturnCommand, *billinghandlers.InitiateReturnResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type damageAssessmentRequest struct {
	Severity      string `json:"severity" binding:"required"`
	EstimatedCost int64  `json:"estimated_cost_cents"`
	Currency      string `json:"currency"`
	Approved      bool   `json:"approved"`
}

func (h ReturnHandler) AssessDamage(c *gin.Context) {
	var req damageAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := billinghandlers.ApplyDamageCommand{
		ReturnID:      c.Param("id"),
		Severity:      req.Severity,
		EstimatedCost: req.EstimatedCost,
		Currency:      req.Currency,
		Approved:      req.Approved,
	}
	result, err := commands.Dispatch[billinghandlers.ApplyDamageCommand, *billinghandlers.ApplyDamageResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReturnHTTP = ReturnHandler{}
