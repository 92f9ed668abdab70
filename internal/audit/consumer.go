package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

type consumeChannel interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Consumer reads activity messages from the activity queue. Messages that do
// not decode, or that the handler rejects, go to the dead-letter queue.
type Consumer struct {
	ch consumeChannel
}

func NewConsumer(ch *amqp.Channel) *Consumer {
	return &Consumer{ch: ch}
}

// Run delivers messages to handle until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, handle func(ActivityMessage) error) error {
	msgs, err := c.ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			var msg ActivityMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				log.Printf("[audit][consume][error] bad payload: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			if err := handle(msg); err != nil {
				log.Printf("[audit][consume][error] activity=%d: %v", msg.ID, err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
