package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainbilling "gearshare/internal/domain/billing"
	"gearshare/internal/domain/shared/money"
)

const applyDamageKey = "billing.apply_damage"

type ApplyDamageCommand struct {
	ReturnID      string
	Severity      string
	EstimatedCost int64
	Currency      string
	Approved      bool
}

func (c ApplyDamageCommand) Key() string { return applyDamageKey }

type ApplyDamageResult struct {
	InvoiceID         string `json:"invoice_id"`
	DamageFeeCents    int64  `json:"damage_fee_cents"`
	AdditionalCents   int64  `json:"additional_charges_cents"`
	TotalAmountCents  int64  `json:"total_amount_cents"`
	AssessmentsUpdate bool   `json:"reassessed"`
}

type ApplyDamageHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

// Handle records (or replaces) the damage assessment for a product return
// and folds the estimated cost into the rental's invoice, creating the
// invoice first if none exists. Re-assessment never double-counts: the
// single damage_fee item reflects only the latest cost.
func (h *ApplyDamageHandler) Handle(ctx context.Context, cmd ApplyDamageCommand) (*ApplyDamageResult, error) {
	severity := domainbilling.Severity(cmd.Severity)
	if err := severity.Validate(); err != nil {
		return nil, err
	}
	if cmd.EstimatedCost < 0 {
		return nil, domainbilling.ErrNegativeCost
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	ret, err := unit.Returns().ByID(ctx, domainbilling.ReturnID(cmd.ReturnID))
	if err != nil {
		return nil, err
	}
	req, err := unit.Rentals().ByID(ctx, ret.RentalID)
	if err != nil {
		return nil, err
	}

	currency := cmd.Currency
	if currency == "" {
		currency = req.Price.Currency
	}
	cost, err := money.New(cmd.EstimatedCost, currency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reassessed := false
	assessment, err := unit.Returns().AssessmentByReturn(ctx, ret.ID)
	switch {
	case err == nil:
		if err := assessment.Reassess(severity, cost, now); err != nil {
			return nil, err
		}
		assessment.Approved = cmd.Approved
		reassessed = true
	case errors.Is(err, domainbilling.ErrAssessmentNotFound):
		assessment, err = domainbilling.NewDamageAssessment(uuid.NewString(), ret.ID, severity, cost, now)
		if err != nil {
			return nil, err
		}
		assessment.Approved = cmd.Approved
	default:
		return nil, err
	}
	if err := unit.Returns().SaveAssessment(ctx, assessment); err != nil {
		return nil, err
	}

	inv, err := unit.Invoices().ByRentalID(ctx, req.ID)
	if errors.Is(err, domainbilling.ErrInvoiceNotFound) {
		inv, err = domainbilling.NewInvoice(domainbilling.InvoiceID(uuid.NewString()), req.ID, req.Price, now)
	}
	if err != nil {
		return nil, err
	}
	if err := inv.ApplyDamageFee(cost, "Damage fee ("+string(severity)+")", now); err != nil {
		return nil, err
	}
	if err := unit.Invoices().Save(ctx, inv); err != nil {
		return nil, err
	}
	if err := outbox.Drain(ctx, h.Outbox, h.encoder(), &inv.EventRecorder); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &ApplyDamageResult{
		InvoiceID:         string(inv.ID),
		DamageFeeCents:    inv.DamageFee.Amount,
		AdditionalCents:   inv.AdditionalCharges.Amount,
		TotalAmountCents:  inv.Amount.Amount,
		AssessmentsUpdate: reassessed,
	}, nil
}

func (h *ApplyDamageHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[ApplyDamageCommand, *ApplyDamageResult] = (*ApplyDamageHandler)(nil)
