package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/logging"
)

func TestPublisher_OrderPlaced(t *testing.T) {
	t.Parallel()

	logger := NewWatermillLogger(logging.Discard())
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, logger)
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, Topic("OrderPlaced"))
	require.NoError(t, err)

	bus, err := NewEventBus(pubSub, logger)
	require.NoError(t, err)
	publisher := NewPublisher(bus)

	order := domain.Order{
		ID:        "order-1",
		ConcertID: "c1",
		Email:     "john@example.com",
		Amount:    9750,
		Tickets:   make([]domain.Ticket, 3),
	}
	require.NoError(t, publisher.OrderPlaced(ctx, order))

	select {
	case msg := <-messages:
		msg.Ack()
		var event OrderPlaced
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "order-1", event.OrderID)
		assert.Equal(t, "c1", event.ConcertID)
		assert.Equal(t, "john@example.com", event.Email)
		assert.Equal(t, 3, event.TicketQuantity)
		assert.Equal(t, int64(9750), event.Amount)
		assert.NotEmpty(t, event.Header.ID)
	case <-ctx.Done():
		t.Fatal("OrderPlaced was not published")
	}
}
