package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer runs a sarama consumer group over the payment event topics.
// Offsets advance only for messages the handler accepted, so gateway
// notifications survive restarts until the reconciler applies them.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	logger  *slog.Logger
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Return.Errors = true
	if logger == nil {
		logger = slog.Default()
	}
	g, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: g, handler: handler, logger: logger}, nil
}

// Run blocks until ctx is cancelled or the group fails. Rebalances make
// Consume return without an error; the loop rejoins the group.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	go c.drainGroupErrors()
	for {
		err := c.group.Consume(ctx, topics, consumerGroupHandler{handler: c.handler, logger: c.logger})
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Info("consumer group rebalanced, rejoining", "topics", topics)
	}
}

func (c *Consumer) drainGroupErrors() {
	for err := range c.group.Errors() {
		c.logger.Error("consumer group error", "error", err)
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	handler MessageHandler
	logger  *slog.Logger
}

func (h consumerGroupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	h.logger.Info("consumer session started", "member_id", sess.MemberID(), "claims", sess.Claims())
	return nil
}

func (h consumerGroupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	h.logger.Info("consumer session closed", "member_id", sess.MemberID())
	return nil
}

func (h consumerGroupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.handler.Handle(sess.Context(), message); err != nil {
			// Leave the offset unmarked so the message is redelivered.
			h.logger.Warn("message left unacked",
				"topic", message.Topic, "partition", message.Partition,
				"offset", message.Offset, "error", err)
			continue
		}
		sess.MarkMessage(message, "")
	}
	return nil
}
