package rentals

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/middleware"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/uow"
	domainbilling "gearshare/internal/domain/billing"
	domainrental "gearshare/internal/domain/rental"
)

const startPaymentKey = "rental.start_payment"

// DefaultAttemptTTL bounds how long a payment attempt holds a rental
// request before it is treated as abandoned.
const DefaultAttemptTTL = 30 * time.Minute

type StartPaymentCommand struct {
	CommandID       string
	RentalID        string
	IdempotencyKeyV string
}

func (c StartPaymentCommand) Key() string { return startPaymentKey }

func (c StartPaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c StartPaymentCommand) ResultPrototype() any { return &StartPaymentResult{} }

type StartPaymentResult struct {
	RentalID       string    `json:"rental_id"`
	TransactionRef string    `json:"transaction_ref"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type StartPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Locks      policies.ProductLocker
	AttemptTTL time.Duration
	RefGen     func() string
}

// Handle opens a payment attempt for an accepted rental request. The
// availability check is re-run here as the pre-charge validation step; an
// unexpired hold blocks a second attempt, an expired one is replaced.
func (h *StartPaymentHandler) Handle(ctx context.Context, cmd StartPaymentCommand) (*StartPaymentResult, error) {
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
	if req.Status != domainrental.StatusAccepted {
		return nil, &domainrental.IllegalTransitionError{Current: req.Status, Attempted: domainrental.StatusPaid}
	}

	if h.Locks != nil {
		release, err := h.Locks.Acquire(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	if err := support.EnsureBookable(ctx, unit, req.ProductID, req.Range, req.ID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	attempt, err := unit.Attempts().ByRentalID(ctx, req.ID)
	if err != nil && !errors.Is(err, domainbilling.ErrAttemptNotFound) {
		return nil, err
	}
	if attempt != nil && !attempt.Expired(now) {
		return nil, domainbilling.ErrAttemptInFlight
	}

	ref := h.newRef()
	payment, err := unit.Payments().ByRentalID(ctx, req.ID)
	switch {
	case err == nil:
		if err := payment.Reissue(ref, now); err != nil {
			return nil, err
		}
	case errors.Is(err, domainbilling.ErrPaymentNotFound):
		payment, err = domainbilling.NewPayment(domainbilling.PaymentID(cmd.CommandID), req.ID, ref, req.Price, now)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if err := unit.Payments().Save(ctx, payment); err != nil {
		return nil, err
	}

	ttl := h.AttemptTTL
	if ttl <= 0 {
		ttl = DefaultAttemptTTL
	}
	hold := &domainbilling.PaymentAttempt{
		RentalID:       req.ID,
		TransactionRef: ref,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
	}
	if err := unit.Attempts().Save(ctx, hold); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &StartPaymentResult{
		RentalID:       string(req.ID),
		TransactionRef: ref,
		AmountCents:    payment.Amount.Amount,
		Currency:       payment.Amount.Currency,
		ExpiresAt:      hold.ExpiresAt,
	}, nil
}

func (h *StartPaymentHandler) newRef() string {
	if h.RefGen != nil {
		return h.RefGen()
	}
	return uuid.NewString()
}

var _ commands.Handler[StartPaymentCommand, *StartPaymentResult] = (*StartPaymentHandler)(nil)
var _ middleware.IdempotentCommand = (*StartPaymentCommand)(nil)
