package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"

	"gearshare/internal/app/commands"
	billinghandlers "gearshare/internal/app/handlers/billing"
)

var ErrMalformedPaymentEvent = errors.New("kafka: malformed payment event")

// PaymentEventsHandler feeds gateway notifications arriving on the payment
// topic into the reconciler. Messages may be flat gateway JSON or a
// CloudEvents envelope carrying the same fields under "data".
type PaymentEventsHandler struct {
	Bus    commands.Bus
	Logger *slog.Logger
}

type paymentEventMessage struct {
	TransactionRef string          `json:"transaction_ref"`
	Status         string          `json:"status"`
	Data           json.RawMessage `json:"data"`
}

func (h *PaymentEventsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	cmd, err := decodePaymentEvent(msg.Value)
	if err != nil {
		// Poison messages are logged and acked; replaying them cannot help.
		if h.Logger != nil {
			h.Logger.Error("dropping malformed payment event",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
		return nil
	}
	if _, err := h.Bus.Dispatch(ctx, cmd); err != nil {
		if h.Logger != nil {
			h.Logger.Error("payment event dispatch failed",
				"transaction_ref", cmd.TransactionRef, "outcome", cmd.Outcome, "error", err)
		}
		return err
	}
	return nil
}

func decodePaymentEvent(raw []byte) (billinghandlers.PaymentEventCommand, error) {
	var msg paymentEventMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return billinghandlers.PaymentEventCommand{}, errors.Join(ErrMalformedPaymentEvent, err)
	}
	if len(msg.Data) > 0 && msg.TransactionRef == "" {
		var inner paymentEventMessage
		if err := json.Unmarshal(msg.Data, &inner); err != nil {
			return billinghandlers.PaymentEventCommand{}, errors.Join(ErrMalformedPaymentEvent, err)
		}
		msg = inner
	}
	if msg.TransactionRef == "" || msg.Status == "" {
		return billinghandlers.PaymentEventCommand{}, ErrMalformedPaymentEvent
	}
	return billinghandlers.PaymentEventCommand{
		TransactionRef: msg.TransactionRef,
		Outcome:        msg.Status,
	}, nil
}

var _ MessageHandler = (*PaymentEventsHandler)(nil)
