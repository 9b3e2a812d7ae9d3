package rentals

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainrental "gearshare/internal/domain/rental"
)

const updateStatusKey = "rental.update_status"

// ErrStatusNotDirect means the requested status can only be reached through
// a dedicated flow (paid comes from the payment reconciler, pending only
// from creation).
var ErrStatusNotDirect = errors.New("rentals: status cannot be set directly")

type UpdateStatusCommand struct {
	RentalID  string
	NewStatus string
	ActorID   string
	Reason    string
}

func (c UpdateStatusCommand) Key() string { return updateStatusKey }

type UpdateStatusResult struct {
	RentalID string `json:"rental_id"`
	Status   string `json:"status"`
}

type UpdateStatusHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

// Handle drives a state machine transition requested over the API. Actor
// authorization is the caller's concern; the transition table is enforced
// here regardless of actor.
func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*UpdateStatusResult, error) {
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

	now := time.Now().UTC()
	releaseProduct := false

	switch domainrental.Status(cmd.NewStatus) {
	case domainrental.StatusAccepted:
		err = req.Accept(now)
	case domainrental.StatusRejected:
		err = req.Reject(cmd.Reason, now)
	case domainrental.StatusCancelled:
		releaseProduct, err = req.Cancel(cmd.Reason, now)
	case domainrental.StatusReturned:
		err = req.MarkReturned(now)
		releaseProduct = err == nil
	case domainrental.StatusCompleted:
		wasHeld := req.Status == domainrental.StatusPaid || req.Status == domainrental.StatusReturned
		err = req.Complete(now)
		releaseProduct = err == nil && wasHeld
	default:
		return nil, ErrStatusNotDirect
	}
	if err != nil {
		return nil, err
	}

	if err := unit.Rentals().Save(ctx, req); err != nil {
		return nil, err
	}
	if releaseProduct {
		prod, err := unit.Products().ByID(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		prod.MarkAvailable(now)
		if err := unit.Products().Save(ctx, prod); err != nil {
			return nil, err
		}
	}
	if err := outbox.Drain(ctx, h.Outbox, h.encoder(), &req.EventRecorder); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &UpdateStatusResult{RentalID: string(req.ID), Status: string(req.Status)}, nil
}

func (h *UpdateStatusHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[UpdateStatusCommand, *UpdateStatusResult] = (*UpdateStatusHandler)(nil)
