package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// TaskPublisher публикует задачи полной генерации.
type TaskPublisher interface {
	PublishFullGenerationTask(ctx context.Context, payload FullGenerationTaskPayload) error
}

// ClientUpdatePublisher публикует обновления для клиентов.
type ClientUpdatePublisher interface {
	PublishClientUpdate(ctx context.Context, payload ClientUpdatePayload) error
}

type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQPublisher открывает канал и объявляет durable-очередь.
// Параметры очереди должны совпадать с теми, что использует консьюмер.
func NewRabbitMQPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*rabbitMQPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("publisher: failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		return nil, fmt.Errorf("publisher: failed to declare queue %q: %w", queueName, err)
	}
	return &rabbitMQPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("RabbitMQPublisher").With(zap.String("queue", queueName)),
	}, nil
}

func (p *rabbitMQPublisher) PublishFullGenerationTask(ctx context.Context, payload FullGenerationTaskPayload) error {
	return p.publish(ctx, payload)
}

func (p *rabbitMQPublisher) PublishClientUpdate(ctx context.Context, payload ClientUpdatePayload) error {
	return p.publish(ctx, payload)
}

func (p *rabbitMQPublisher) publish(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("publisher: failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(ctx,
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		p.logger.Error("Failed to publish message", zap.Error(err))
		return fmt.Errorf("publisher: failed to publish to %q: %w", p.queueName, err)
	}
	p.logger.Debug("Message published", zap.Int("bytes", len(body)))
	return nil
}

// Close закрывает канал паблишера.
func (p *rabbitMQPublisher) Close() error {
	return p.channel.Close()
}
