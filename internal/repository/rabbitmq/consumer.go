package rabbitmq

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"esgmonitor/internal/domain/entity"
	"esgmonitor/internal/metrics"
)

// BatchHandler processes one decoded reading batch. A returned error
// requeues the delivery.
type BatchHandler interface {
	ProcessBatch(ctx context.Context, msg *entity.ReadingBatchMessage) (int, error)
}

type Consumer struct {
	channel     *amqp.Channel
	queue       string
	handler     BatchHandler
	prefetchCnt int
}

func NewConsumer(conn *amqp.Connection, exchange, routingKey, queue string, handler BatchHandler) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}

	consumer := &Consumer{
		channel:     ch,
		queue:       queue,
		handler:     handler,
		prefetchCnt: 1,
	}

	if _, err := ch.QueueDeclare(
		queue,
		true, // durable
		false,
		false,
		false,
		nil,
	); err != nil {
		return nil, err
	}

	if err := ch.QueueBind(
		queue,
		routingKey,
		exchange,
		false,
		nil,
	); err != nil {
		return nil, err
	}

	if err := ch.Qos(consumer.prefetchCnt, 0, false); err != nil {
		return nil, err
	}

	return consumer, nil
}

// Start blocks consuming deliveries until the context is canceled or
// the channel closes. Undecodable payloads are dropped, processing
// failures are requeued.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("reading consumer shutting down")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				log.Println("rabbitmq channel closed")
				return nil
			}
			c.handleDelivery(ctx, msg)
		}
	}
}

// handleDelivery decodes one delivery and settles it: malformed
// payloads are dropped without requeue, storage failures go back on
// the queue for another attempt.
func (c *Consumer) handleDelivery(ctx context.Context, msg amqp.Delivery) {
	var batch entity.ReadingBatchMessage
	if err := json.Unmarshal(msg.Body, &batch); err != nil {
		log.Printf("drop malformed batch payload: %v", err)
		metrics.BatchesFailed.Inc()
		msg.Nack(false, false)
		return
	}

	accepted, err := c.handler.ProcessBatch(ctx, &batch)
	if err != nil {
		log.Printf("failed to process batch %s: %v", batch.BatchID, err)
		metrics.BatchesFailed.Inc()
		msg.Nack(false, true)
		return
	}

	log.Printf("stored batch %s: %d readings", batch.BatchID, accepted)
	msg.Ack(false)
}
