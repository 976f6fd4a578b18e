package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

// InventoryRepository stores tickets and orders. The concert row lock taken
// by GetConcertForUpdate is the per-concert critical section.
type InventoryRepository struct {
	conn
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{conn{pool: pool}}
}

func (r *InventoryRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *InventoryRepository) GetConcertForUpdate(ctx context.Context, concertID string) (domain.Concert, error) {
	row := r.queryRow(ctx, `SELECT `+concertColumns+` FROM concerts WHERE id = $1 FOR UPDATE`, concertID)
	c, err := scanConcert(row)
	if err != nil {
		return domain.Concert{}, concertError("get concert for update", err)
	}
	return c, nil
}

func (r *InventoryRepository) ListAvailableTickets(ctx context.Context, concertID string, limit int) ([]domain.Ticket, error) {
	const query = `
SELECT id, concert_id
FROM tickets
WHERE concert_id = $1 AND state = 'available'
ORDER BY id
LIMIT $2`

	rows, err := r.query(ctx, query, concertID, limit)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list available tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0, limit)
	for rows.Next() {
		t := domain.Ticket{State: domain.TicketAvailable}
		if err := rows.Scan(&t.ID, &t.ConcertID); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list available tickets: %w", err)
	}
	return tickets, nil
}

func (r *InventoryRepository) SaveTicketStates(ctx context.Context, from domain.TicketState, tickets []domain.Ticket) error {
	const stmt = `
UPDATE tickets SET state = $3, order_id = $4
WHERE id = $1 AND concert_id = $2 AND state = $5`

	for _, t := range tickets {
		tag, err := r.exec(ctx, stmt, t.ID, t.ConcertID, string(t.State), nullableID(t.OrderID), string(from))
		if err != nil {
			return fmt.Errorf("save ticket %d: %w", t.ID, err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("%w: ticket %d is not %s", domain.ErrInvalidTicketTransition, t.ID, from)
		}
	}
	return nil
}

func (r *InventoryRepository) AddTickets(ctx context.Context, concertID string, quantity int) error {
	_, err := r.exec(ctx, `INSERT INTO tickets (concert_id) SELECT $1 FROM generate_series(1, $2)`, concertID, quantity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrConcertNotFound
		}
		return fmt.Errorf("add tickets: %w", err)
	}
	return nil
}

func (r *InventoryRepository) CountTickets(ctx context.Context, concertID string) (domain.TicketCounts, error) {
	const query = `
SELECT
	COUNT(*) FILTER (WHERE t.state = 'available'),
	COUNT(*) FILTER (WHERE t.state = 'reserved'),
	COUNT(*) FILTER (WHERE t.state = 'sold')
FROM concerts c
LEFT JOIN tickets t ON t.concert_id = c.id
WHERE c.id = $1
GROUP BY c.id`

	var counts domain.TicketCounts
	err := r.queryRow(ctx, query, concertID).Scan(&counts.Available, &counts.Reserved, &counts.Sold)
	if err != nil {
		return domain.TicketCounts{}, concertError("count tickets", err)
	}
	return counts, nil
}

func (r *InventoryRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, concert_id, email, amount, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, order.ID, order.ConcertID, order.Email, order.Amount, order.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrConcertNotFound
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}
