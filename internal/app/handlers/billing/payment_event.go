package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/middleware"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/uow"
	domainavailability "gearshare/internal/domain/availability"
	domainbilling "gearshare/internal/domain/billing"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/events"
)

const paymentEventKey = "billing.payment_event"

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

var (
	ErrUnitOfWorkRequired = errors.New("billing: unit of work required")
	ErrUnknownOutcome     = errors.New("billing: unknown payment outcome")
)

// PaymentEventCommand carries one gateway notification. The gateway
// redelivers, so the command is idempotent on transaction reference plus
// outcome and the handler additionally short-circuits on an already
// completed payment row.
type PaymentEventCommand struct {
	TransactionRef string
	Outcome        string
}

func (c PaymentEventCommand) Key() string { return paymentEventKey }

func (c PaymentEventCommand) IdempotencyKey() string {
	return c.TransactionRef + ":" + c.Outcome
}

func (c PaymentEventCommand) ResultPrototype() any { return &PaymentEventResult{} }

type PaymentEventResult struct {
	RentalID      string `json:"rental_id"`
	PaymentStatus string `json:"payment_status"`
	RentalStatus  string `json:"rental_status"`
	Applied       bool   `json:"applied"`
}

type PaymentEventHandler struct {
	UoWFactory uow.UoWFactory
	Locks      policies.ProductLocker
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

// Handle reconciles an asynchronous payment-gateway event against the
// booking state machine. All effects of a success event commit in one
// transaction: payment completed, rental paid, product rented, invoice
// ensured and marked paid, attempt hold deleted, conflicting competitors
// cancelled. Notification delivery rides the outbox and cannot fail this.
func (h *PaymentEventHandler) Handle(ctx context.Context, cmd PaymentEventCommand) (*PaymentEventResult, error) {
	if cmd.Outcome != OutcomeSucceeded && cmd.Outcome != OutcomeFailed {
		return nil, ErrUnknownOutcome
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

	payment, err := unit.Payments().ByTransactionRef(ctx, cmd.TransactionRef)
	if err != nil {
		return nil, err
	}
	if payment.Status == domainbilling.PaymentCompleted {
		// Redelivered event; every effect already applied.
		req, err := unit.Rentals().ByID(ctx, payment.RentalID)
		if err != nil {
			return nil, err
		}
		return &PaymentEventResult{
			RentalID:      string(payment.RentalID),
			PaymentStatus: string(payment.Status),
			RentalStatus:  string(req.Status),
			Applied:       false,
		}, nil
	}

	now := time.Now().UTC()

	if cmd.Outcome == OutcomeFailed {
		payment.MarkFailed(now)
		if err := unit.Payments().Save(ctx, payment); err != nil {
			return nil, err
		}
		if err := outbox.Drain(ctx, h.Outbox, h.encoder(), &payment.EventRecorder); err != nil {
			return nil, err
		}
		if managed {
			if err := unit.Commit(ctx); err != nil {
				return nil, err
			}
			committed = true
		}
		return &PaymentEventResult{
			RentalID:      string(payment.RentalID),
			PaymentStatus: string(payment.Status),
			Applied:       true,
		}, nil
	}

	req, err := unit.Rentals().ByID(ctx, payment.RentalID)
	if err != nil {
		return nil, err
	}

	if h.Locks != nil {
		release, err := h.Locks.Acquire(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	// A competitor that reached paid first may have auto-cancelled this
	// request while the charge was in flight at the gateway.
	if req.Status != domainrental.StatusAccepted {
		return h.settleLostRace(ctx, unit, payment, req, now, managed, &committed)
	}

	// Paid-exclusivity is authoritative here, at the moment of committing
	// the paid transition, never from the product status cache.
	var conflict *domainavailability.ConflictError
	if err := support.EnsureBookable(ctx, unit, req.ProductID, req.Range, req.ID); err != nil {
		if !errors.As(err, &conflict) {
			return nil, err
		}
	}
	if conflict != nil {
		return h.settleLostRace(ctx, unit, payment, req, now, managed, &committed)
	}

	if err := payment.MarkCompleted(now); err != nil {
		return nil, err
	}
	if err := req.MarkPaid(now); err != nil {
		return nil, err
	}

	prod, err := unit.Products().ByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	prod.MarkRented(now)

	inv, err := unit.Invoices().ByRentalID(ctx, req.ID)
	if errors.Is(err, domainbilling.ErrInvoiceNotFound) {
		inv, err = domainbilling.NewInvoice(domainbilling.InvoiceID(uuid.NewString()), req.ID, req.Price, now)
	}
	if err != nil {
		return nil, err
	}
	inv.MarkPaid(now)

	if err := unit.Attempts().DeleteByRental(ctx, req.ID); err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(ctx, payment); err != nil {
		return nil, err
	}
	if err := unit.Rentals().Save(ctx, req); err != nil {
		return nil, err
	}
	if err := unit.Products().Save(ctx, prod); err != nil {
		return nil, err
	}
	if err := unit.Invoices().Save(ctx, inv); err != nil {
		return nil, err
	}

	if err := h.cancelConflictingCompetitors(ctx, unit, req, now); err != nil {
		return nil, err
	}

	for _, rec := range []*events.EventRecorder{&payment.EventRecorder, &req.EventRecorder, &inv.EventRecorder} {
		if err := outbox.Drain(ctx, h.Outbox, h.encoder(), rec); err != nil {
			return nil, err
		}
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &PaymentEventResult{
		RentalID:      string(req.ID),
		PaymentStatus: string(payment.Status),
		RentalStatus:  string(req.Status),
		Applied:       true,
	}, nil
}

// settleLostRace handles a success event for a rental whose range got paid
// by someone else first: the charge is flagged for refund and the request
// is cancelled with a date_conflict reason.
func (h *PaymentEventHandler) settleLostRace(ctx context.Context, unit uow.UnitOfWork, payment *domainbilling.Payment, req *domainrental.RentalRequest, now time.Time, managed bool, committed *bool) (*PaymentEventResult, error) {
	if h.Logger != nil {
		h.Logger.Warn("payment succeeded for a range no longer available",
			"rental_id", req.ID, "transaction_ref", payment.TransactionRef)
	}
	payment.MarkRefunded(now)
	if !req.Status.Terminal() {
		if _, err := req.Cancel(domainrental.ReasonDateConflict, now); err != nil {
			return nil, err
		}
	}
	if err := unit.Attempts().DeleteByRental(ctx, req.ID); err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(ctx, payment); err != nil {
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
		*committed = true
	}
	return &PaymentEventResult{
		RentalID:      string(req.ID),
		PaymentStatus: string(payment.Status),
		RentalStatus:  string(req.Status),
		Applied:       true,
	}, nil
}

// cancelConflictingCompetitors cancels every competing pending or accepted
// request whose range now conflicts with the freshly paid one, so their
// customers are notified instead of failing later at payment time.
func (h *PaymentEventHandler) cancelConflictingCompetitors(ctx context.Context, unit uow.UnitOfWork, winner *domainrental.RentalRequest, now time.Time) error {
	competitors, err := unit.Rentals().ListByProduct(ctx, winner.ProductID,
		domainrental.StatusPending, domainrental.StatusAccepted)
	if err != nil {
		return err
	}
	for _, competitor := range competitors {
		if competitor.ID == winner.ID {
			continue
		}
		if !domainavailability.Blocks(competitor.Range, winner.Range) {
			continue
		}
		if _, err := competitor.Cancel(domainrental.ReasonDateConflict, now); err != nil {
			return err
		}
		if err := unit.Rentals().Save(ctx, competitor); err != nil {
			return err
		}
		if err := outbox.Drain(ctx, h.Outbox, h.encoder(), &competitor.EventRecorder); err != nil {
			return err
		}
	}
	return nil
}

func (h *PaymentEventHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[PaymentEventCommand, *PaymentEventResult] = (*PaymentEventHandler)(nil)
var _ middleware.IdempotentCommand = (*PaymentEventCommand)(nil)
