package rentals

import (
	"context"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/uow"
	domainrental "gearshare/internal/domain/rental"
)

const deleteRequestKey = "rental.delete_request"

type DeleteRequestCommand struct {
	RentalID string
}

func (c DeleteRequestCommand) Key() string { return deleteRequestKey }

type DeleteRequestResult struct {
	RentalID string `json:"rental_id"`
}

type DeleteRequestHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle removes a rental request together with its payment-attempt hold,
// payment and invoice rows in one transaction. A partially deleted request
// is never an observable state.
func (h *DeleteRequestHandler) Handle(ctx context.Context, cmd DeleteRequestCommand) (*DeleteRequestResult, error) {
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

	id := domainrental.RentalID(cmd.RentalID)
	if _, err := unit.Rentals().ByID(ctx, id); err != nil {
		return nil, err
	}
	if err := unit.Attempts().DeleteByRental(ctx, id); err != nil {
		return nil, err
	}
	if err := unit.Payments().DeleteByRental(ctx, id); err != nil {
		return nil, err
	}
	if err := unit.Invoices().DeleteByRental(ctx, id); err != nil {
		return nil, err
	}
	if err := unit.Rentals().Delete(ctx, id); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &DeleteRequestResult{RentalID: cmd.RentalID}, nil
}

var _ commands.Handler[DeleteRequestCommand, *DeleteRequestResult] = (*DeleteRequestHandler)(nil)
