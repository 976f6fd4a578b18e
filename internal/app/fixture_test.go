package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/clock"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/logging"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/metrics"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/payment"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/storage/memory"
)

var fixtureNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	clock     *clock.Manual
	metrics   *metrics.Metrics
	inventory *Inventory
	concerts  *ConcertService
	gateway   *payment.FakeGateway
	events    *recordingEvents
	checkout  *CheckoutService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   memory.NewStore(),
		clock:   clock.NewManual(fixtureNow),
		metrics: metrics.New(prometheus.NewRegistry()),
		gateway: payment.NewFakeGateway(),
		events:  &recordingEvents{},
	}
	log := logging.Discard()
	f.inventory = NewInventory(f.store, f.clock,
		WithInventoryLogger(log),
		WithInventoryMetrics(f.metrics),
		WithInventoryEvents(f.events),
	)
	f.concerts = NewConcertService(f.store, f.inventory, f.clock, WithConcertLogger(log))
	f.checkout = NewCheckoutService(f.concerts, f.inventory, f.gateway,
		WithOrderEvents(f.events),
		WithCheckoutMetrics(f.metrics),
		WithCheckoutLogger(log),
	)
	return f
}

func validConcertInput(price int64, tickets int) CreateConcertInput {
	return CreateConcertInput{
		Title:        "The Red Chord",
		Subtitle:     "with Animosity and Lethargy",
		Date:         time.Date(2026, 12, 13, 20, 0, 0, 0, time.UTC),
		TicketPrice:  price,
		Venue:        "The Mosh Pit",
		VenueAddress: "123 Example Lane",
		City:         "Laraville",
		State:        "ON",
		Zip:          "17916",
		TicketQuantity: func() *int {
			if tickets == 0 {
				return nil
			}
			return qty(tickets)
		}(),
	}
}

func (f *fixture) unpublishedConcert(t *testing.T, price int64, tickets int) domain.Concert {
	t.Helper()
	concert, err := f.concerts.CreateConcert(context.Background(), validConcertInput(price, tickets))
	require.NoError(t, err)
	return concert
}

func (f *fixture) publishedConcert(t *testing.T, price int64, tickets int) domain.Concert {
	t.Helper()
	concert := f.unpublishedConcert(t, price, tickets)
	published, err := f.concerts.Publish(context.Background(), concert.ID)
	require.NoError(t, err)
	return published
}

func (f *fixture) counts(t *testing.T, concertID string) domain.TicketCounts {
	t.Helper()
	counts, err := f.inventory.Counts(context.Background(), concertID)
	require.NoError(t, err)
	return counts
}

func qty(n int) *int {
	return &n
}

type recordingEvents struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
}

func (r *recordingEvents) OrderPlaced(ctx context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order)
	return r.err
}

func (r *recordingEvents) placed() []domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Order(nil), r.orders...)
}
