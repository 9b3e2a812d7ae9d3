package rentals

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/middleware"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/uow"
	domainpricing "gearshare/internal/domain/pricing"
	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
	domainrange "gearshare/internal/domain/shared/daterange"
)

const createRequestKey = "rental.create_request"

var ErrUnitOfWorkRequired = errors.New("rentals: unit of work required")

type CreateRequestCommand struct {
	CommandID       string
	ProductID       string
	CustomerID      string
	Start           time.Time
	End             time.Time
	Unit            string
	PickupLocation  string
	ReturnLocation  string
	IdempotencyKeyV string
}

func (c CreateRequestCommand) Key() string { return createRequestKey }

func (c CreateRequestCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateRequestCommand) ResultPrototype() any { return &CreateRequestResult{} }

type CreateRequestResult struct {
	RentalID   string `json:"rental_id"`
	Status     string `json:"status"`
	Periods    int64  `json:"periods"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

type CreateRequestHandler struct {
	UoWFactory uow.UoWFactory
	Locks      policies.ProductLocker
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

// Handle creates a rental request under the instant-rental policy. The
// availability re-check and the insert run inside one unit of work under
// the per-product lock, so two concurrent creates cannot both pass a stale
// read and later both reach paid.
func (h *CreateRequestHandler) Handle(ctx context.Context, cmd CreateRequestCommand) (*CreateRequestResult, error) {
	dr, err := domainrange.New(cmd.Start, cmd.End)
	if err != nil {
		return nil, err
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
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

	if h.Locks != nil {
		release, err := h.Locks.Acquire(ctx, domainproduct.ProductID(cmd.ProductID))
		if err != nil {
			return nil, err
		}
		defer release()
	}

	prod, err := unit.Products().ByID(ctx, domainproduct.ProductID(cmd.ProductID))
	if err != nil {
		return nil, err
	}

	unitKind := domainpricing.PeriodUnit(cmd.Unit)
	if cmd.Unit == "" {
		unitKind = prod.BaseUnit
	}
	quote, err := domainpricing.Price(unitKind, dr, prod.PricePerUnit)
	if err != nil {
		return nil, err
	}

	if err := support.EnsureBookable(ctx, unit, prod.ID, dr, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req, err := domainrental.NewRequest(domainrental.CreateParams{
		ID:             domainrental.RentalID(cmd.CommandID),
		Product:        prod,
		CustomerID:     domainrental.CustomerID(cmd.CustomerID),
		Range:          dr,
		Quote:          quote,
		PickupLocation: cmd.PickupLocation,
		ReturnLocation: cmd.ReturnLocation,
		Now:            now,
	})
	if err != nil {
		return nil, err
	}
	if err := req.Accept(now); err != nil {
		return nil, err
	}

	if err := unit.Rentals().Save(ctx, req); err != nil {
		return nil, err
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

	return &CreateRequestResult{
		RentalID:   string(req.ID),
		Status:     string(req.Status),
		Periods:    req.Periods,
		PriceCents: req.Price.Amount,
		Currency:   req.Price.Currency,
	}, nil
}

func (h *CreateRequestHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateRequestCommand, *CreateRequestResult] = (*CreateRequestHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateRequestCommand)(nil)
