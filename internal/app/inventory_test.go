package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

func TestInventory_AddTicketsAndRemaining(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	concert := f.unpublishedConcert(t, 2000, 0)
	ctx := context.Background()

	require.NoError(t, f.inventory.AddTickets(ctx, concert.ID, 50))
	remaining, err := f.inventory.TicketsRemaining(ctx, concert.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, remaining)

	require.NoError(t, f.inventory.AddTickets(ctx, concert.ID, 5))
	remaining, err = f.inventory.TicketsRemaining(ctx, concert.ID)
	require.NoError(t, err)
	assert.Equal(t, 55, remaining)

	assert.ErrorIs(t, f.inventory.AddTickets(ctx, concert.ID, 0), domain.ErrInvalidQuantity)
	assert.ErrorIs(t, f.inventory.AddTickets(ctx, "missing", 1), domain.ErrConcertNotFound)
}

func TestInventory_FindAvailableDoesNotClaim(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	concert := f.unpublishedConcert(t, 2000, 3)

	tickets, err := f.inventory.FindAvailable(context.Background(), concert.ID, 2)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Less(t, tickets[0].ID, tickets[1].ID)
	assert.Equal(t, int64(2000), tickets[0].Price)
	assert.Equal(t, domain.TicketCounts{Available: 3}, f.counts(t, concert.ID))

	_, err = f.inventory.FindAvailable(context.Background(), concert.ID, 4)
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
}

func TestInventory_Reserve(t *testing.T) {
	t.Parallel()

	t.Run("reserves lowest ids and captures price", func(t *testing.T) {
		f := newFixture(t)
		concert := f.unpublishedConcert(t, 3250, 5)

		all, err := f.inventory.FindAvailable(context.Background(), concert.ID, 5)
		require.NoError(t, err)

		reservation, err := f.inventory.Reserve(context.Background(), concert.ID, 3, "jane@example.com")
		require.NoError(t, err)

		held := reservation.Tickets()
		require.Len(t, held, 3)
		for i, ticket := range held {
			assert.Equal(t, all[i].ID, ticket.ID)
			assert.Equal(t, domain.TicketReserved, ticket.State)
			assert.Equal(t, int64(3250), ticket.Price)
		}
		assert.Equal(t, "jane@example.com", reservation.Email())
		assert.Equal(t, concert.ID, reservation.ConcertID())
		assert.Equal(t, domain.TicketCounts{Available: 2, Reserved: 3}, f.counts(t, concert.ID))
	})

	t.Run("reserved tickets cannot be reserved again", func(t *testing.T) {
		f := newFixture(t)
		concert := f.unpublishedConcert(t, 1200, 3)

		_, err := f.inventory.Reserve(context.Background(), concert.ID, 2, "a@example.com")
		require.NoError(t, err)

		_, err = f.inventory.Reserve(context.Background(), concert.ID, 2, "b@example.com")
		assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
		assert.Equal(t, domain.TicketCounts{Available: 1, Reserved: 2}, f.counts(t, concert.ID))
	})

	t.Run("sold tickets cannot be reserved", func(t *testing.T) {
		f := newFixture(t)
		concert := f.unpublishedConcert(t, 1200, 3)

		_, err := f.inventory.PurchaseDirect(context.Background(), concert.ID, "a@example.com", 2)
		require.NoError(t, err)

		_, err = f.inventory.Reserve(context.Background(), concert.ID, 2, "b@example.com")
		assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
	})

	t.Run("insufficient inventory leaves tickets untouched", func(t *testing.T) {
		f := newFixture(t)
		concert := f.unpublishedConcert(t, 1200, 50)

		_, err := f.inventory.Reserve(context.Background(), concert.ID, 51, "a@example.com")
		assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
		assert.Equal(t, domain.TicketCounts{Available: 50}, f.counts(t, concert.ID))
	})

	t.Run("validates quantity and concert", func(t *testing.T) {
		f := newFixture(t)
		concert := f.unpublishedConcert(t, 1200, 1)

		_, err := f.inventory.Reserve(context.Background(), concert.ID, 0, "a@example.com")
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

		_, err = f.inventory.Reserve(context.Background(), "missing", 1, "a@example.com")
		assert.ErrorIs(t, err, domain.ErrConcertNotFound)
	})
}

func TestInventory_PurchaseDirect(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	concert := f.unpublishedConcert(t, 1200, 5)
	ctx := context.Background()

	order, err := f.inventory.PurchaseDirect(ctx, concert.ID, "comp@example.com", 5)
	require.NoError(t, err)

	assert.Equal(t, int64(6000), order.Amount)
	assert.Equal(t, 5, order.TicketQuantity())
	assert.Equal(t, "comp@example.com", order.Email)
	assert.Equal(t, fixtureNow, order.CreatedAt)
	assert.Equal(t, domain.TicketCounts{Sold: 5}, f.counts(t, concert.ID))
	assert.Equal(t, int64(0), f.gateway.TotalCharges())

	orders, err := f.concerts.OrdersFor(ctx, concert.ID, "comp@example.com")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.Len(t, orders[0].Tickets, 5)

	placed := f.events.placed()
	require.Len(t, placed, 1)
	assert.Equal(t, order.ID, placed[0].ID)

	_, err = f.inventory.PurchaseDirect(ctx, concert.ID, "comp@example.com", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
	_, err = f.inventory.PurchaseDirect(ctx, concert.ID, "comp@example.com", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestInventory_PurchaseDirectRejectsMalformedEmail(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	concert := f.unpublishedConcert(t, 1200, 2)

	for _, email := range []string{"", "not-an-email"} {
		_, err := f.inventory.PurchaseDirect(context.Background(), concert.ID, email, 1)

		var invalid *domain.ValidationError
		require.ErrorAs(t, err, &invalid, email)
		assert.Contains(t, invalid.Fields, "email")
	}
	assert.Equal(t, domain.TicketCounts{Available: 2}, f.counts(t, concert.ID))
	assert.Empty(t, f.events.placed())
}
