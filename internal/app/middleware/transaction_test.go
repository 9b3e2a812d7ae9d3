package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/uow"
	domainbilling "gearshare/internal/domain/billing"
	domainproduct "gearshare/internal/domain/product"
	domainrental "gearshare/internal/domain/rental"
)

type fakeUnit struct {
	commits   int
	rollbacks int
}

func (u *fakeUnit) Products() domainproduct.Repository        { return nil }
func (u *fakeUnit) Rentals() domainrental.Repository          { return nil }
func (u *fakeUnit) Payments() domainbilling.PaymentRepository { return nil }
func (u *fakeUnit) Attempts() domainbilling.AttemptRepository { return nil }
func (u *fakeUnit) Invoices() domainbilling.InvoiceRepository { return nil }
func (u *fakeUnit) Returns() domainbilling.ReturnRepository   { return nil }
func (u *fakeUnit) Commit(ctx context.Context) error          { u.commits++; return nil }
func (u *fakeUnit) Rollback(ctx context.Context) error        { u.rollbacks++; return nil }

type fakeFactory struct {
	unit *fakeUnit
}

func (f *fakeFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return f.unit, nil
}

type txCommand struct{}

func (txCommand) Key() string { return "test.tx" }

func TestTransactionCommitsOnSuccess(t *testing.T) {
	unit := &fakeUnit{}
	base := commands.NewInMemoryBus()
	base.RegisterRaw(txCommand{}.Key(), func(ctx context.Context, cmd commands.Command) (any, error) {
		got, ok := uow.FromContext(ctx)
		require.True(t, ok)
		assert.Same(t, unit, got)
		return "done", nil
	})
	bus := ChainCommands(base, Transaction(&fakeFactory{unit: unit}, nil))

	res, err := bus.Dispatch(context.Background(), txCommand{})
	require.NoError(t, err)
	assert.Equal(t, "done", res)
	assert.Equal(t, 1, unit.commits)
	assert.Equal(t, 0, unit.rollbacks)
}

func TestTransactionRollsBackOnHandlerError(t *testing.T) {
	unit := &fakeUnit{}
	base := commands.NewInMemoryBus()
	boom := errors.New("boom")
	base.RegisterRaw(txCommand{}.Key(), func(ctx context.Context, cmd commands.Command) (any, error) {
		return nil, boom
	})
	bus := ChainCommands(base, Transaction(&fakeFactory{unit: unit}, nil))

	_, err := bus.Dispatch(context.Background(), txCommand{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, unit.commits)
	assert.Equal(t, 1, unit.rollbacks)
}

type flushCounter struct {
	flushes int
}

func (o *flushCounter) Add(ctx context.Context, rec outbox.EventRecord) error { return nil }

func (o *flushCounter) Flush(ctx context.Context) error {
	o.flushes++
	return nil
}

func TestOutboxFlushRunsAfterSuccess(t *testing.T) {
	box := &flushCounter{}
	base := commands.NewInMemoryBus()
	base.RegisterRaw(txCommand{}.Key(), func(ctx context.Context, cmd commands.Command) (any, error) {
		return "ok", nil
	})
	bus := ChainCommands(base, OutboxFlush(box))

	_, err := bus.Dispatch(context.Background(), txCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, box.flushes)
}

func TestOutboxFlushSkippedOnError(t *testing.T) {
	box := &flushCounter{}
	base := commands.NewInMemoryBus()
	base.RegisterRaw(txCommand{}.Key(), func(ctx context.Context, cmd commands.Command) (any, error) {
		return nil, errors.New("boom")
	})
	bus := ChainCommands(base, OutboxFlush(box))

	_, err := bus.Dispatch(context.Background(), txCommand{})
	require.Error(t, err)
	assert.Equal(t, 0, box.flushes)
}
