package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

func sampleConcert() domain.Concert {
	published := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return domain.Concert{
		ID:          "c1",
		Title:       "The Red Chord",
		Date:        time.Date(2026, 12, 1, 20, 0, 0, 0, time.UTC),
		TicketPrice: 3250,
		Venue:       "The Mosh Pit",
		PublishedAt: &published,
		CreatedAt:   published,
	}
}

func TestListingCache_SetThenGet(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	c := NewListingCache(rdb, time.Minute)
	concert := sampleConcert()

	payload, err := encode(concert)
	require.NoError(t, err)

	mock.ExpectSet("ticketbeast:concert:c1", payload, time.Minute).SetVal("OK")
	mock.ExpectGet("ticketbeast:concert:c1").SetVal(payload)

	require.NoError(t, c.Set(context.Background(), concert))

	got, ok, err := c.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, concert.ID, got.ID)
	assert.Equal(t, concert.TicketPrice, got.TicketPrice)
	assert.True(t, concert.Date.Equal(got.Date))
	require.NotNil(t, got.PublishedAt)
	assert.True(t, got.IsPublished())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingCache_Miss(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	c := NewListingCache(rdb, time.Minute)

	mock.ExpectGet("ticketbeast:concert:missing").RedisNil()

	_, ok, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingCache_Errors(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	c := NewListingCache(rdb, time.Minute)

	mock.ExpectGet("ticketbeast:concert:c1").SetErr(errors.New("connection refused"))
	mock.ExpectGet("ticketbeast:concert:c2").SetVal("{not json")
	mock.ExpectDel("ticketbeast:concert:c3").SetErr(errors.New("connection refused"))

	_, _, err := c.Get(context.Background(), "c1")
	assert.Error(t, err)
	_, _, err = c.Get(context.Background(), "c2")
	assert.Error(t, err)
	assert.Error(t, c.Invalidate(context.Background(), "c3"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingCache_Invalidate(t *testing.T) {
	t.Parallel()

	rdb, mock := redismock.NewClientMock()
	c := NewListingCache(rdb, time.Minute)

	mock.ExpectDel("ticketbeast:concert:c1").SetVal(1)

	require.NoError(t, c.Invalidate(context.Background(), "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
