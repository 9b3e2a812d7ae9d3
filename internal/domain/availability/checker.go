package availability

import (
	"fmt"
	"time"

	"gearshare/internal/domain/shared/daterange"
)

// BufferDays is the mandatory turnaround gap after a paid rental's end date
// before the same product can be booked again.
const BufferDays = 2

// ConflictError reports a blocked date range together with the paid ranges
// that block it, so the caller can surface alternatives.
type ConflictError struct {
	Blocking []daterange.DateRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("availability: date range blocked by %d existing paid rentals", len(e.Blocking))
}

type Result struct {
	Available bool
	Blocking  []daterange.DateRange
}

// Blocks reports whether an existing paid range blocks the candidate:
// direct half-open overlap, or the existing end date falling inside the
// turnaround buffer window [candidate.Start, candidate.Start+BufferDays).
func Blocks(candidate, existing daterange.DateRange) bool {
	if existing.Overlaps(candidate) {
		return true
	}
	bufferEnd := candidate.Start.Add(BufferDays * 24 * time.Hour)
	e := existing.End
	return (e.Equal(candidate.Start) || e.After(candidate.Start)) && e.Before(bufferEnd)
}

// Check evaluates a candidate range against every paid range for the same
// product. Read-only and safe for concurrent use; serialization of bookings
// happens at creation time, not here.
func Check(candidate daterange.DateRange, paid []daterange.DateRange) Result {
	var blocking []daterange.DateRange
	for _, existing := range paid {
		if Blocks(candidate, existing) {
			blocking = append(blocking, existing)
		}
	}
	return Result{Available: len(blocking) == 0, Blocking: blocking}
}
