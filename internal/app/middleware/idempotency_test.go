package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare/internal/app/commands"
)

type memoryStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[string]IdempotencyRecord)}
}

func (s *memoryStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memoryStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

type replayCommand struct {
	KeyV string
}

func (c replayCommand) Key() string { return "test.replay" }

func (c replayCommand) IdempotencyKey() string { return c.KeyV }

func (c replayCommand) ResultPrototype() any { return &replayResult{} }

type replayResult struct {
	Value string `json:"value"`
}

type plainCommand struct{}

func (plainCommand) Key() string { return "test.plain" }

type countingHandler struct {
	calls int
	fail  error
}

func (h *countingHandler) Handle(ctx context.Context, cmd replayCommand) (*replayResult, error) {
	h.calls++
	if h.fail != nil {
		return nil, h.fail
	}
	return &replayResult{Value: "run-" + cmd.KeyV}, nil
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	base := commands.NewInMemoryBus()
	handler := &countingHandler{}
	commands.RegisterHandler(base, replayCommand{}.Key(), handler)
	bus := ChainCommands(base, Idempotency(newMemoryStore(), nil))

	cmd := replayCommand{KeyV: "key-1"}
	first, err := commands.Dispatch[replayCommand, *replayResult](context.Background(), bus, cmd)
	require.NoError(t, err)
	assert.Equal(t, "run-key-1", first.Value)

	second, err := commands.Dispatch[replayCommand, *replayResult](context.Background(), bus, cmd)
	require.NoError(t, err)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, 1, handler.calls)
}

func TestIdempotencyDistinctKeysExecuteSeparately(t *testing.T) {
	base := commands.NewInMemoryBus()
	handler := &countingHandler{}
	commands.RegisterHandler(base, replayCommand{}.Key(), handler)
	bus := ChainCommands(base, Idempotency(newMemoryStore(), nil))

	_, err := bus.Dispatch(context.Background(), replayCommand{KeyV: "key-1"})
	require.NoError(t, err)
	_, err = bus.Dispatch(context.Background(), replayCommand{KeyV: "key-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, handler.calls)
}

func TestIdempotencyDoesNotCacheFailures(t *testing.T) {
	base := commands.NewInMemoryBus()
	handler := &countingHandler{fail: errors.New("storage temporarily unavailable")}
	commands.RegisterHandler(base, replayCommand{}.Key(), handler)
	store := newMemoryStore()
	bus := ChainCommands(base, Idempotency(store, nil))

	cmd := replayCommand{KeyV: "key-1"}
	_, err := bus.Dispatch(context.Background(), cmd)
	require.EqualError(t, err, "storage temporarily unavailable")

	// The failure left no record, so the redelivered command re-executes
	// and its result is servable from then on.
	handler.fail = nil
	res, err := commands.Dispatch[replayCommand, *replayResult](context.Background(), bus, cmd)
	require.NoError(t, err)
	assert.Equal(t, "run-key-1", res.Value)
	assert.Equal(t, 2, handler.calls)

	_, err = bus.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 2, handler.calls)
}

func TestIdempotencyEmptyKeyPassesThrough(t *testing.T) {
	base := commands.NewInMemoryBus()
	handler := &countingHandler{}
	commands.RegisterHandler(base, replayCommand{}.Key(), handler)
	bus := ChainCommands(base, Idempotency(newMemoryStore(), nil))

	for n := 0; n < 3; n++ {
		_, err := bus.Dispatch(context.Background(), replayCommand{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, handler.calls)
}

func TestIdempotencyIgnoresNonIdempotentCommands(t *testing.T) {
	base := commands.NewInMemoryBus()
	calls := 0
	base.RegisterRaw(plainCommand{}.Key(), func(ctx context.Context, cmd commands.Command) (any, error) {
		calls++
		return nil, nil
	})
	bus := ChainCommands(base, Idempotency(newMemoryStore(), nil))

	for n := 0; n < 2; n++ {
		_, err := bus.Dispatch(context.Background(), plainCommand{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}
