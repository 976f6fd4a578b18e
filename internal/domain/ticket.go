package domain

import "fmt"

type TicketState string

const (
	TicketAvailable TicketState = "available"
	TicketReserved  TicketState = "reserved"
	TicketSold      TicketState = "sold"
)

var ticketTransitions = map[TicketState][]TicketState{
	TicketAvailable: {TicketReserved},
	TicketReserved:  {TicketAvailable, TicketSold},
}

func (s TicketState) Valid() bool {
	switch s {
	case TicketAvailable, TicketReserved, TicketSold:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s TicketState) CanTransitionTo(next TicketState) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Ticket is a single unit of admission. Price is captured from the concert
// when the ticket is selected and is not persisted.
type Ticket struct {
	ID        int64
	ConcertID string
	State     TicketState
	OrderID   string
	Price     int64
}

func (t *Ticket) Reserve() error {
	return t.transition(TicketReserved)
}

func (t *Ticket) Release() error {
	return t.transition(TicketAvailable)
}

func (t *Ticket) MarkSold(orderID string) error {
	if orderID == "" {
		return fmt.Errorf("%w: ticket %d sold without order", ErrInvalidTicketTransition, t.ID)
	}
	if err := t.transition(TicketSold); err != nil {
		return err
	}
	t.OrderID = orderID
	return nil
}

func (t *Ticket) transition(next TicketState) error {
	if !t.State.CanTransitionTo(next) {
		return fmt.Errorf("%w: ticket %d %s -> %s", ErrInvalidTicketTransition, t.ID, t.State, next)
	}
	t.State = next
	return nil
}

// TicketCounts is the state breakdown of a concert's tickets.
type TicketCounts struct {
	Available int
	Reserved  int
	Sold      int
}

func (c TicketCounts) Total() int {
	return c.Available + c.Reserved + c.Sold
}
