package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

const topicPrefix = "ticketbeast."

type Header struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

func newHeader() Header {
	return Header{ID: uuid.NewString(), PublishedAt: time.Now().UTC()}
}

// OrderPlaced is published once per completed checkout or comp order, after
// the order is stored.
type OrderPlaced struct {
	Header         Header `json:"header"`
	OrderID        string `json:"order_id"`
	ConcertID      string `json:"concert_id"`
	Email          string `json:"email"`
	TicketQuantity int    `json:"ticket_quantity"`
	Amount         int64  `json:"amount"`
}

// Topic returns the topic an event type is published on.
func Topic(eventName string) string {
	return topicPrefix + eventName
}

func NewEventBus(pub message.Publisher, logger watermill.LoggerAdapter) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(pub, cqrs.EventBusConfig{
		GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
			return Topic(params.EventName), nil
		},
		Marshaler: cqrs.JSONMarshaler{GenerateName: cqrs.StructName},
		Logger:    logger,
	})
}

// Publisher emits domain events for the order flow.
type Publisher struct {
	bus *cqrs.EventBus
}

func NewPublisher(bus *cqrs.EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) OrderPlaced(ctx context.Context, order domain.Order) error {
	event := OrderPlaced{
		Header:         newHeader(),
		OrderID:        order.ID,
		ConcertID:      order.ConcertID,
		Email:          order.Email,
		TicketQuantity: order.TicketQuantity(),
		Amount:         order.Amount,
	}
	if err := p.bus.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish OrderPlaced: %w", err)
	}
	return nil
}
