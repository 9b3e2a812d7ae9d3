package memory

import (
	"context"
	"sync"

	appoutbox "gearshare/internal/app/outbox"
)

// Outbox keeps event records in memory. Flush promotes staged records to
// the ready queue where Drain (used by tests and the dev-mode worker) can
// pick them up.
type Outbox struct {
	mu     sync.Mutex
	staged []appoutbox.EventRecord
	ready  []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.staged = append(o.staged, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ready = append(o.ready, o.staged...)
	o.staged = nil
	return nil
}

// Discard drops staged records, mirroring a transaction rollback.
func (o *Outbox) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.staged = nil
}

// Drain returns and clears all flushed records.
func (o *Outbox) Drain() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.ready
	o.ready = nil
	return out
}

var _ appoutbox.Outbox = (*Outbox)(nil)
