package messaging

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DeliveryHandler обрабатывает одно сообщение. Возвращенная ошибка
// приводит к nack без requeue (сообщение уходит в отброс, повторная
// доставка зацикливала бы заведомо неисполнимые задачи).
type DeliveryHandler func(ctx context.Context, body []byte) error

// Consumer читает очередь RabbitMQ и передает сообщения обработчику.
type Consumer struct {
	channel   *amqp.Channel
	queueName string
	handler   DeliveryHandler
	logger    *zap.Logger
}

// NewConsumer открывает канал, объявляет очередь и настраивает prefetch=1:
// воркер обрабатывает по одной задаче за раз.
func NewConsumer(conn *amqp.Connection, queueName string, handler DeliveryHandler, logger *zap.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("consumer: failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("consumer: failed to declare queue %q: %w", queueName, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("consumer: failed to set QoS: %w", err)
	}
	return &Consumer{
		channel:   ch,
		queueName: queueName,
		handler:   handler,
		logger:    logger.Named("Consumer").With(zap.String("queue", queueName)),
	}, nil
}

// Run блокируется до отмены контекста или закрытия канала доставки.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consumer: failed to start consuming %q: %w", c.queueName, err)
	}

	c.logger.Info("Consumer started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer stopping: context cancelled")
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Warn("Delivery channel closed")
				return nil
			}
			if err := c.handler(ctx, d.Body); err != nil {
				c.logger.Error("Failed to process delivery", zap.Error(err))
				if nackErr := d.Nack(false, false); nackErr != nil {
					c.logger.Error("Failed to nack delivery", zap.Error(nackErr))
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				c.logger.Error("Failed to ack delivery", zap.Error(ackErr))
			}
		}
	}
}

// Close закрывает канал консьюмера.
func (c *Consumer) Close() error {
	return c.channel.Close()
}
