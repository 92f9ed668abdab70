package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"pipeline/internal/models"
)

// publishTimeout bounds a single publish so a stuck broker cannot hold a
// request open after its mutation committed.
const publishTimeout = 3 * time.Second

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends committed activity entries to the pipeline exchange.
type Publisher struct {
	ch publishChannel
}

func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

type ActivityMessage struct {
	ID         int64           `json:"id"`
	TenantID   int64           `json:"tenant_id"`
	UserID     int64           `json:"user_id"`
	EntityType string          `json:"entity_type"`
	EntityID   int64           `json:"entity_id"`
	Action     string          `json:"action"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (p *Publisher) Publish(ctx context.Context, e models.ActivityEntry) error {
	msg := ActivityMessage{
		ID:         e.ID,
		TenantID:   e.TenantID,
		UserID:     e.UserID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		CreatedAt:  e.CreatedAt,
	}
	if e.Details != "" {
		msg.Details = json.RawMessage(e.Details)
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err = p.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    fmt.Sprintf("activity-%d", e.ID),
			Timestamp:    e.CreatedAt,
			Type:         e.EntityType + "." + e.Action,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}
