// Package memory is an in-process store for local runs and tests. Each
// concert has its own claim lock; a unit of work holds the claim of every
// concert it loaded for update until it ends, and its writes are rolled back
// if it fails.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

var ErrNotLocked = errors.New("concert not locked by this unit of work")

type concertRecord struct {
	claim   sync.Mutex
	concert domain.Concert
	tickets []domain.Ticket
}

type Store struct {
	mu       sync.RWMutex
	concerts map[string]*concertRecord
	orders   map[string]domain.Order
	ticketID int64
}

func NewStore() *Store {
	return &Store{
		concerts: make(map[string]*concertRecord),
		orders:   make(map[string]domain.Order),
	}
}

type txKey struct{}

type unitOfWork struct {
	claimed   map[string]*concertRecord
	order     []string
	snapshots map[string][]domain.Ticket
	orders    []string
	concerts  []string
}

func txFromContext(ctx context.Context) *unitOfWork {
	uow, _ := ctx.Value(txKey{}).(*unitOfWork)
	return uow
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	uow := &unitOfWork{
		claimed:   make(map[string]*concertRecord),
		snapshots: make(map[string][]domain.Ticket),
	}
	defer func() {
		for i := len(uow.order) - 1; i >= 0; i-- {
			uow.claimed[uow.order[i]].claim.Unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, uow)); err != nil {
		s.rollback(uow)
		return err
	}
	return nil
}

func (s *Store) rollback(uow *unitOfWork) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, tickets := range uow.snapshots {
		s.concerts[id].tickets = tickets
	}
	for _, id := range uow.orders {
		delete(s.orders, id)
	}
	for _, id := range uow.concerts {
		delete(s.concerts, id)
	}
}

func (s *Store) record(concertID string) (*concertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.concerts[concertID]
	if !ok {
		return nil, domain.ErrConcertNotFound
	}
	return rec, nil
}

// GetConcertForUpdate claims the concert for the rest of the unit of work.
func (s *Store) GetConcertForUpdate(ctx context.Context, concertID string) (domain.Concert, error) {
	uow := txFromContext(ctx)
	if uow == nil {
		return domain.Concert{}, fmt.Errorf("get concert for update: %w", ErrNotLocked)
	}
	rec, err := s.record(concertID)
	if err != nil {
		return domain.Concert{}, err
	}

	if _, held := uow.claimed[concertID]; !held {
		rec.claim.Lock()
		uow.claimed[concertID] = rec
		uow.order = append(uow.order, concertID)

		s.mu.RLock()
		snapshot := make([]domain.Ticket, len(rec.tickets))
		copy(snapshot, rec.tickets)
		s.mu.RUnlock()
		uow.snapshots[concertID] = snapshot
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return rec.concert, nil
}

func (s *Store) requireClaim(ctx context.Context, concertID string) error {
	uow := txFromContext(ctx)
	if uow == nil {
		return ErrNotLocked
	}
	if _, held := uow.claimed[concertID]; !held {
		return ErrNotLocked
	}
	return nil
}

func (s *Store) ListAvailableTickets(ctx context.Context, concertID string, limit int) ([]domain.Ticket, error) {
	rec, err := s.record(concertID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Ticket, 0, limit)
	for _, t := range rec.tickets {
		if len(out) == limit {
			break
		}
		if t.State == domain.TicketAvailable {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) SaveTicketStates(ctx context.Context, from domain.TicketState, tickets []domain.Ticket) error {
	for _, t := range tickets {
		if err := s.requireClaim(ctx, t.ConcertID); err != nil {
			return fmt.Errorf("save ticket %d: %w", t.ID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tickets {
		stored := s.concerts[t.ConcertID].tickets
		i := sort.Search(len(stored), func(i int) bool { return stored[i].ID >= t.ID })
		if i == len(stored) || stored[i].ID != t.ID {
			return fmt.Errorf("save ticket %d: not found", t.ID)
		}
		if stored[i].State != from {
			return fmt.Errorf("%w: ticket %d is %s, expected %s", domain.ErrInvalidTicketTransition, t.ID, stored[i].State, from)
		}
		stored[i].State = t.State
		stored[i].OrderID = t.OrderID
	}
	return nil
}

func (s *Store) AddTickets(ctx context.Context, concertID string, quantity int) error {
	if err := s.requireClaim(ctx, concertID); err != nil {
		return fmt.Errorf("add tickets: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.concerts[concertID]
	for i := 0; i < quantity; i++ {
		s.ticketID++
		rec.tickets = append(rec.tickets, domain.Ticket{
			ID:        s.ticketID,
			ConcertID: concertID,
			State:     domain.TicketAvailable,
		})
	}
	return nil
}

func (s *Store) CountTickets(ctx context.Context, concertID string) (domain.TicketCounts, error) {
	rec, err := s.record(concertID)
	if err != nil {
		return domain.TicketCounts{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts domain.TicketCounts
	for _, t := range rec.tickets {
		switch t.State {
		case domain.TicketAvailable:
			counts.Available++
		case domain.TicketReserved:
			counts.Reserved++
		case domain.TicketSold:
			counts.Sold++
		}
	}
	return counts, nil
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) error {
	if err := s.requireClaim(ctx, order.ConcertID); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("create order: duplicate id %s", order.ID)
	}
	stored := order
	stored.Tickets = nil
	s.orders[order.ID] = stored
	txFromContext(ctx).orders = append(txFromContext(ctx).orders, order.ID)
	return nil
}

func (s *Store) CreateConcert(ctx context.Context, concert domain.Concert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.concerts[concert.ID]; exists {
		return fmt.Errorf("create concert: duplicate id %s", concert.ID)
	}
	s.concerts[concert.ID] = &concertRecord{concert: concert}
	if uow := txFromContext(ctx); uow != nil {
		uow.concerts = append(uow.concerts, concert.ID)
	}
	return nil
}

func (s *Store) GetConcert(ctx context.Context, concertID string) (domain.Concert, error) {
	rec, err := s.record(concertID)
	if err != nil {
		return domain.Concert{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rec.concert, nil
}

func (s *Store) ListConcerts(ctx context.Context) ([]domain.Concert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Concert, 0, len(s.concerts))
	for _, rec := range s.concerts {
		out = append(out, rec.concert)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) PublishConcert(ctx context.Context, concertID string, at time.Time) (domain.Concert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.concerts[concertID]
	if !ok {
		return domain.Concert{}, domain.ErrConcertNotFound
	}
	if rec.concert.PublishedAt == nil {
		published := at
		rec.concert.PublishedAt = &published
	}
	return rec.concert, nil
}

func (s *Store) ListOrdersForEmail(ctx context.Context, concertID, email string) ([]domain.Order, error) {
	rec, err := s.record(concertID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Order
	for _, o := range s.orders {
		if o.ConcertID != concertID || o.Email != email {
			continue
		}
		for _, t := range rec.tickets {
			if t.OrderID == o.ID {
				o.Tickets = append(o.Tickets, t)
			}
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Ping always succeeds; it lets the store back the health check.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}
