package domain

import (
	"fmt"
	"time"
)

// Order is the durable record of a completed sale. Amount is in cents and is
// fixed when the order is created.
type Order struct {
	ID        string
	ConcertID string
	Email     string
	Amount    int64
	Tickets   []Ticket
	CreatedAt time.Time
}

// OrderForTickets builds an order for reserved tickets of a single concert and
// marks each of them sold. The input slice is not modified.
func OrderForTickets(id, email string, amount int64, tickets []Ticket, createdAt time.Time) (Order, error) {
	if len(tickets) == 0 {
		return Order{}, ErrEmptyOrder
	}

	order := Order{
		ID:        id,
		ConcertID: tickets[0].ConcertID,
		Email:     email,
		Amount:    amount,
		Tickets:   make([]Ticket, len(tickets)),
		CreatedAt: createdAt,
	}
	copy(order.Tickets, tickets)

	for i := range order.Tickets {
		if order.Tickets[i].ConcertID != order.ConcertID {
			return Order{}, fmt.Errorf("order spans concerts %s and %s", order.ConcertID, order.Tickets[i].ConcertID)
		}
		if err := order.Tickets[i].MarkSold(id); err != nil {
			return Order{}, err
		}
	}
	return order, nil
}

func (o Order) TicketQuantity() int {
	return len(o.Tickets)
}
