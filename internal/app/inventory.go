package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/clock"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/metrics"
)

// InventoryRepository is the storage behind Inventory. GetConcertForUpdate
// locks the concert until the surrounding WithTx returns; every ticket write
// happens after it in the same unit of work.
type InventoryRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetConcertForUpdate(ctx context.Context, concertID string) (domain.Concert, error)
	// ListAvailableTickets returns at most limit available tickets in ascending id order.
	ListAvailableTickets(ctx context.Context, concertID string, limit int) ([]domain.Ticket, error)
	// SaveTicketStates persists each ticket's state and order id, failing with
	// domain.ErrInvalidTicketTransition if a stored ticket is not in state from.
	SaveTicketStates(ctx context.Context, from domain.TicketState, tickets []domain.Ticket) error
	AddTickets(ctx context.Context, concertID string, quantity int) error
	CountTickets(ctx context.Context, concertID string) (domain.TicketCounts, error)
	CreateOrder(ctx context.Context, order domain.Order) error
}

// Inventory is the only component that changes ticket states. Each mutating
// call is a single critical section scoped to one concert.
type Inventory struct {
	repo    InventoryRepository
	clock   clock.Clock
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	events  OrderEvents
}

type InventoryOption func(*Inventory)

func WithInventoryLogger(log logrus.FieldLogger) InventoryOption {
	return func(inv *Inventory) {
		if log != nil {
			inv.log = log
		}
	}
}

func WithInventoryMetrics(m *metrics.Metrics) InventoryOption {
	return func(inv *Inventory) {
		inv.metrics = m
	}
}

// WithInventoryEvents announces comp orders placed through PurchaseDirect.
func WithInventoryEvents(events OrderEvents) InventoryOption {
	return func(inv *Inventory) {
		inv.events = events
	}
}

func NewInventory(repo InventoryRepository, clk clock.Clock, opts ...InventoryOption) *Inventory {
	inv := &Inventory{
		repo:  repo,
		clock: clk,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// FindAvailable selects quantity available tickets without claiming them.
func (inv *Inventory) FindAvailable(ctx context.Context, concertID string, quantity int) ([]domain.Ticket, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var tickets []domain.Ticket
	err := inv.repo.WithTx(ctx, func(txCtx context.Context) error {
		concert, err := inv.repo.GetConcertForUpdate(txCtx, concertID)
		if err != nil {
			return err
		}
		tickets, err = inv.findAvailable(txCtx, concert, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// Reserve claims quantity tickets for email and returns the hold.
func (inv *Inventory) Reserve(ctx context.Context, concertID string, quantity int, email string) (*Reservation, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	var held []domain.Ticket
	err := inv.repo.WithTx(ctx, func(txCtx context.Context) error {
		concert, err := inv.repo.GetConcertForUpdate(txCtx, concertID)
		if err != nil {
			return err
		}
		tickets, err := inv.findAvailable(txCtx, concert, quantity)
		if err != nil {
			return err
		}
		for i := range tickets {
			if err := tickets[i].Reserve(); err != nil {
				return err
			}
		}
		if err := inv.repo.SaveTicketStates(txCtx, domain.TicketAvailable, tickets); err != nil {
			return err
		}
		held = tickets
		return nil
	})
	if err != nil {
		return nil, err
	}

	inv.metrics.TicketsMoved(string(domain.TicketReserved), len(held))
	inv.log.WithFields(logrus.Fields{
		"concert_id": concertID,
		"quantity":   len(held),
	}).Debug("tickets reserved")
	return newReservation(inv, concertID, email, held), nil
}

// PurchaseDirect sells quantity tickets to email without payment. Selection,
// reservation and sale happen in one critical section so no other caller can
// observe the tickets as reserved.
func (inv *Inventory) PurchaseDirect(ctx context.Context, concertID, email string, quantity int) (domain.Order, error) {
	if quantity < 1 {
		return domain.Order{}, domain.ErrInvalidQuantity
	}
	if err := ValidateEmail(email); err != nil {
		return domain.Order{}, err
	}

	var order domain.Order
	err := inv.repo.WithTx(ctx, func(txCtx context.Context) error {
		concert, err := inv.repo.GetConcertForUpdate(txCtx, concertID)
		if err != nil {
			return err
		}
		tickets, err := inv.findAvailable(txCtx, concert, quantity)
		if err != nil {
			return err
		}
		for i := range tickets {
			if err := tickets[i].Reserve(); err != nil {
				return err
			}
		}
		order, err = inv.placeOrder(txCtx, email, totalPrice(tickets), tickets)
		if err != nil {
			return err
		}
		return inv.repo.SaveTicketStates(txCtx, domain.TicketAvailable, order.Tickets)
	})
	if err != nil {
		return domain.Order{}, err
	}

	inv.metrics.TicketsMoved(string(domain.TicketSold), order.TicketQuantity())
	inv.log.WithFields(logrus.Fields{
		"concert_id": concertID,
		"order_id":   order.ID,
		"quantity":   order.TicketQuantity(),
	}).Info("direct purchase completed")

	if inv.events != nil {
		if err := inv.events.OrderPlaced(ctx, order); err != nil {
			inv.log.WithError(err).WithField("order_id", order.ID).Warn("order placed event not published")
		}
	}
	return order, nil
}

// AddTickets appends quantity available tickets to the concert.
func (inv *Inventory) AddTickets(ctx context.Context, concertID string, quantity int) error {
	if quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	return inv.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := inv.repo.GetConcertForUpdate(txCtx, concertID); err != nil {
			return err
		}
		return inv.repo.AddTickets(txCtx, concertID, quantity)
	})
}

func (inv *Inventory) TicketsRemaining(ctx context.Context, concertID string) (int, error) {
	counts, err := inv.repo.CountTickets(ctx, concertID)
	if err != nil {
		return 0, err
	}
	return counts.Available, nil
}

func (inv *Inventory) Counts(ctx context.Context, concertID string) (domain.TicketCounts, error) {
	return inv.repo.CountTickets(ctx, concertID)
}

func (inv *Inventory) findAvailable(ctx context.Context, concert domain.Concert, quantity int) ([]domain.Ticket, error) {
	tickets, err := inv.repo.ListAvailableTickets(ctx, concert.ID, quantity)
	if err != nil {
		return nil, err
	}
	if len(tickets) < quantity {
		return nil, domain.ErrInsufficientInventory
	}
	for i := range tickets {
		tickets[i].Price = concert.TicketPrice
	}
	return tickets, nil
}

// release returns reserved tickets to the pool.
func (inv *Inventory) release(ctx context.Context, concertID string, tickets []domain.Ticket) ([]domain.Ticket, error) {
	released := make([]domain.Ticket, len(tickets))
	copy(released, tickets)

	err := inv.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := inv.repo.GetConcertForUpdate(txCtx, concertID); err != nil {
			return err
		}
		for i := range released {
			if err := released[i].Release(); err != nil {
				return err
			}
		}
		return inv.repo.SaveTicketStates(txCtx, domain.TicketReserved, released)
	})
	if err != nil {
		return nil, err
	}

	inv.metrics.TicketsMoved(string(domain.TicketAvailable), len(released))
	return released, nil
}

// finalize sells reserved tickets under a new order.
func (inv *Inventory) finalize(ctx context.Context, concertID, email string, amount int64, tickets []domain.Ticket) (domain.Order, error) {
	var order domain.Order
	err := inv.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := inv.repo.GetConcertForUpdate(txCtx, concertID); err != nil {
			return err
		}
		var err error
		order, err = inv.placeOrder(txCtx, email, amount, tickets)
		if err != nil {
			return err
		}
		return inv.repo.SaveTicketStates(txCtx, domain.TicketReserved, order.Tickets)
	})
	if err != nil {
		return domain.Order{}, err
	}

	inv.metrics.TicketsMoved(string(domain.TicketSold), order.TicketQuantity())
	return order, nil
}

func (inv *Inventory) placeOrder(ctx context.Context, email string, amount int64, tickets []domain.Ticket) (domain.Order, error) {
	order, err := domain.OrderForTickets(newID(), email, amount, tickets, inv.clock.Now())
	if err != nil {
		return domain.Order{}, err
	}
	if err := inv.repo.CreateOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func totalPrice(tickets []domain.Ticket) int64 {
	var total int64
	for _, t := range tickets {
		total += t.Price
	}
	return total
}
