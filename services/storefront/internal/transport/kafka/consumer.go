package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	generalDomain "github.com/sakashimaa/storefront/pkg/domain"
	"github.com/sakashimaa/storefront/pkg/kafka"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.uber.org/zap"
)

type SessionTerminator interface {
	LogoutUser(ctx context.Context, userID string) int
}

type Consumer struct {
	sessions SessionTerminator
	logger   *zap.Logger
}

func NewConsumer(sessions SessionTerminator, logger *zap.Logger) *Consumer {
	return &Consumer{
		sessions: sessions,
		logger:   logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string, groupID, topic string) error {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		groupID,
		[]string{topic},
		c.processMessage,
		c.logger,
	)

	return consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Debug(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	var wrapper generalDomain.EventWrapper
	if err := json.Unmarshal(msg.Value, &wrapper); err != nil {
		mylogger.Error(ctx, c.logger, "Error unmarshalling wrapper", zap.Error(err))
		return nil
	}

	switch wrapper.Event {
	case generalDomain.EventUserLoggedOut:
		var event generalDomain.UserLoggedOutEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Error(ctx, c.logger, "Error parsing logout event", zap.Error(err))
			return nil
		}

		if event.UserID == "" {
			mylogger.Warn(ctx, c.logger, "Logout event without user id")
			return nil
		}

		n := c.sessions.LogoutUser(ctx, event.UserID)
		mylogger.Info(
			ctx,
			c.logger,
			"Handled logout event",
			zap.String("user_id", event.UserID),
			zap.Int("sessions", n),
		)
	default:
		mylogger.Debug(ctx, c.logger, "Skipping event", zap.String("event", wrapper.Event))
	}

	return nil
}
