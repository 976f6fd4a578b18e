package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

// PaymentGateway charges a payment token. Failures wrap
// domain.ErrPaymentFailed, domain.ErrPaymentUnavailable or, when the charge
// may have gone through, domain.ErrPaymentOutcomeUnknown.
type PaymentGateway interface {
	Charge(ctx context.Context, amount int64, token string) (string, error)
}

type reservationState int

const (
	reservationHeld reservationState = iota
	reservationCompleted
	reservationCancelled
)

// Reservation is an in-memory hold on reserved tickets for one customer. It
// ends with exactly one successful Complete or Cancel.
type Reservation struct {
	inventory *Inventory
	concertID string
	email     string

	mu      sync.Mutex
	tickets []domain.Ticket
	state   reservationState
}

func newReservation(inv *Inventory, concertID, email string, tickets []domain.Ticket) *Reservation {
	return &Reservation{
		inventory: inv,
		concertID: concertID,
		email:     email,
		tickets:   tickets,
	}
}

func (r *Reservation) ConcertID() string {
	return r.concertID
}

func (r *Reservation) Email() string {
	return r.email
}

func (r *Reservation) Tickets() []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Ticket, len(r.tickets))
	copy(out, r.tickets)
	return out
}

// TotalCost sums the price captured on each held ticket.
func (r *Reservation) TotalCost() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return totalPrice(r.tickets)
}

// Cancel returns every held ticket to the available pool.
func (r *Reservation) Cancel(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != reservationHeld {
		return domain.ErrReservationClosed
	}

	released, err := r.inventory.release(ctx, r.concertID, r.tickets)
	if err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}
	r.tickets = released
	r.state = reservationCancelled
	return nil
}

// Complete charges the total cost and, once the charge succeeds, sells the
// held tickets under a new order. A failed charge leaves the reservation
// held; the caller decides whether to Cancel.
func (r *Reservation) Complete(ctx context.Context, gateway PaymentGateway, token string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != reservationHeld {
		return domain.Order{}, domain.ErrReservationClosed
	}

	amount := totalPrice(r.tickets)

	started := time.Now()
	chargeID, err := gateway.Charge(ctx, amount, token)
	r.inventory.metrics.ChargeObserved(time.Since(started))
	if err != nil {
		return domain.Order{}, err
	}

	order, err := r.inventory.finalize(ctx, r.concertID, r.email, amount, r.tickets)
	if err != nil {
		r.inventory.log.WithError(err).WithFields(logrus.Fields{
			"concert_id": r.concertID,
			"charge_id":  chargeID,
			"amount":     amount,
			"email":      r.email,
		}).Error("charge succeeded but order was not recorded")
		return domain.Order{}, fmt.Errorf("finalize reservation: %w", err)
	}

	r.tickets = order.Tickets
	r.state = reservationCompleted
	return order, nil
}
