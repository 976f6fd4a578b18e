package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/testutil"
)

func TestConcertRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	testutil.ApplyMigrations(t, context.Background(), pool)
	repo := NewConcertRepository(pool)

	t.Run("create, get and list", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		concert := domain.Concert{
			ID:           "00000000-0000-0000-0000-000000000010",
			Title:        "The Red Chord",
			Subtitle:     "with Animosity",
			Date:         time.Date(2026, 12, 13, 20, 0, 0, 0, time.UTC),
			TicketPrice:  3250,
			Venue:        "The Mosh Pit",
			VenueAddress: "123 Example Lane",
			City:         "Laraville",
			State:        "ON",
			Zip:          "17916",
			CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		require.NoError(t, repo.CreateConcert(ctx, concert))

		got, err := repo.GetConcert(ctx, concert.ID)
		require.NoError(t, err)
		assert.Equal(t, concert.Title, got.Title)
		assert.Equal(t, concert.TicketPrice, got.TicketPrice)
		assert.True(t, concert.Date.Equal(got.Date))
		assert.Nil(t, got.PublishedAt)

		all, err := repo.ListConcerts(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, concert.ID, all[0].ID)

		_, err = repo.GetConcert(ctx, "00000000-0000-0000-0000-000000000099")
		assert.ErrorIs(t, err, domain.ErrConcertNotFound)
		_, err = repo.GetConcert(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})

	t.Run("create rolls back with its unit of work", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		boom := errors.New("boom")

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := repo.CreateConcert(txCtx, domain.Concert{
				ID:          "00000000-0000-0000-0000-000000000011",
				Title:       "Rolled back",
				Date:        time.Date(2026, 12, 13, 20, 0, 0, 0, time.UTC),
				TicketPrice: 1000,
				CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			}); err != nil {
				return err
			}
			if err := NewInventoryRepository(pool).AddTickets(txCtx, "00000000-0000-0000-0000-000000000011", 2); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		all, err := repo.ListConcerts(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("publish keeps the first timestamp", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		id := testutil.InsertConcert(t, ctx, pool, 1000, false, 0)

		first := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		published, err := repo.PublishConcert(ctx, id, first)
		require.NoError(t, err)
		require.NotNil(t, published.PublishedAt)
		assert.True(t, first.Equal(*published.PublishedAt))

		again, err := repo.PublishConcert(ctx, id, first.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, first.Equal(*again.PublishedAt))

		_, err = repo.PublishConcert(ctx, "00000000-0000-0000-0000-000000000099", first)
		assert.ErrorIs(t, err, domain.ErrConcertNotFound)
	})

	t.Run("orders for email include their tickets", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		id := testutil.InsertConcert(t, ctx, pool, 1000, true, 3)
		inv := NewInventoryRepository(pool)

		orderID := "00000000-0000-0000-0000-0000000000a1"
		err := inv.WithTx(ctx, func(txCtx context.Context) error {
			if _, err := inv.GetConcertForUpdate(txCtx, id); err != nil {
				return err
			}
			tickets, err := inv.ListAvailableTickets(txCtx, id, 2)
			if err != nil {
				return err
			}
			for i := range tickets {
				tickets[i].State = domain.TicketReserved
			}
			order, err := domain.OrderForTickets(orderID, "fan@example.com", 2000, tickets, time.Now().UTC())
			if err != nil {
				return err
			}
			if err := inv.CreateOrder(txCtx, order); err != nil {
				return err
			}
			return inv.SaveTicketStates(txCtx, domain.TicketAvailable, order.Tickets)
		})
		require.NoError(t, err)

		orders, err := repo.ListOrdersForEmail(ctx, id, "fan@example.com")
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, orderID, orders[0].ID)
		assert.Equal(t, int64(2000), orders[0].Amount)
		assert.Equal(t, 2, orders[0].TicketQuantity())
		for _, ticket := range orders[0].Tickets {
			assert.Equal(t, domain.TicketSold, ticket.State)
		}

		none, err := repo.ListOrdersForEmail(ctx, id, "other@example.com")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}
