package availability

import (
	"context"
	"time"

	"gearshare/internal/app/handlers/support"
	"gearshare/internal/app/queries"
	"gearshare/internal/app/uow"
	domainavailability "gearshare/internal/domain/availability"
	domainproduct "gearshare/internal/domain/product"
	domainrange "gearshare/internal/domain/shared/daterange"
)

const checkKey = "availability.check"

type CheckQuery struct {
	ProductID string
	Start     time.Time
	End       time.Time
}

func (q CheckQuery) Key() string { return checkKey }

type BlockedRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CheckResult struct {
	Available bool           `json:"available"`
	Blocking  []BlockedRange `json:"blocking_ranges,omitempty"`
}

type CheckHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle answers whether a product can be booked for a candidate range.
// Read-only: an available product status short-circuits the paid scan (the
// cache is refreshed on every relevant transition, so bounded staleness is
// acceptable here), and nothing is serialized; booking creation re-runs
// the same checks inside its own transaction.
func (h *CheckHandler) Handle(ctx context.Context, q CheckQuery) (*CheckResult, error) {
	dr, err := domainrange.New(q.Start, q.End)
	if err != nil {
		return nil, err
	}

	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prod, err := unit.Products().ByID(execCtx, domainproduct.ProductID(q.ProductID))
	if err != nil {
		return nil, err
	}
	if prod.Status == domainproduct.StatusAvailable {
		return &CheckResult{Available: true}, nil
	}

	ranges, err := support.PaidRanges(execCtx, unit, prod.ID, "")
	if err != nil {
		return nil, err
	}
	result := domainavailability.Check(dr, ranges)
	out := &CheckResult{Available: result.Available}
	for _, blocked := range result.Blocking {
		out.Blocking = append(out.Blocking, BlockedRange{Start: blocked.Start, End: blocked.End})
	}
	return out, nil
}

var _ queries.Handler[CheckQuery, *CheckResult] = (*CheckHandler)(nil)
