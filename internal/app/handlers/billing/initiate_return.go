package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/uow"
	domainbilling "gearshare/internal/domain/billing"
	domainrental "gearshare/internal/domain/rental"
)

const initiateReturnKey = "billing.initiate_return"

type InitiateReturnCommand struct {
	RentalID   string
	ReturnDate time.Time
}

func (c InitiateReturnCommand) Key() string { return initiateReturnKey }

type InitiateReturnResult struct {
	ReturnID string `json:"return_id"`
	Status   string `json:"status"`
}

type InitiateReturnHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle opens the return record for a paid (or already customer-returned)
// rental so the owner can record condition notes against it. One return per
// rental; a repeat call yields the existing record.
func (h *InitiateReturnHandler) Handle(ctx context.Context, cmd InitiateReturnCommand) (*InitiateReturnResult, error) {
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

	req, err := unit.Rentals().ByID(ctx, domainrental.RentalID(cmd.RentalID))
	if err != nil {
		return nil, err
	}
	if req.Status != domainrental.StatusPaid && req.Status != domainrental.StatusReturned {
		return nil, &domainrental.IllegalTransitionError{Current: req.Status, Attempted: domainrental.StatusReturned}
	}

	existing, err := unit.Returns().ByRentalID(ctx, req.ID)
	if err == nil {
		return &InitiateReturnResult{ReturnID: string(existing.ID), Status: string(existing.Status)}, nil
	}
	if !errors.Is(err, domainbilling.ErrReturnNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	returnDate := cmd.ReturnDate
	if returnDate.IsZero() {
		returnDate = now
	}
	ret := domainbilling.NewProductReturn(domainbilling.ReturnID(uuid.NewString()), req.ID, returnDate, now)
	if err := unit.Returns().Save(ctx, ret); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &InitiateReturnResult{ReturnID: string(ret.ID), Status: string(ret.Status)}, nil
}

var _ commands.Handler[InitiateReturnCommand, *InitiateReturnResult] = (*InitiateReturnHandler)(nil)
