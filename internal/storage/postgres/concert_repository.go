package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

const concertColumns = `id, title, subtitle, date, ticket_price, venue, venue_address, city, state, zip,
additional_information, published_at, created_at`

type ConcertRepository struct {
	conn
}

func NewConcertRepository(pool *pgxpool.Pool) *ConcertRepository {
	return &ConcertRepository{conn{pool: pool}}
}

func (r *ConcertRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ConcertRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *ConcertRepository) CreateConcert(ctx context.Context, c domain.Concert) error {
	const stmt = `
INSERT INTO concerts (id, title, subtitle, date, ticket_price, venue, venue_address, city, state, zip,
	additional_information, published_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.exec(ctx, stmt,
		c.ID, c.Title, c.Subtitle, c.Date, c.TicketPrice, c.Venue, c.VenueAddress, c.City, c.State, c.Zip,
		c.AdditionalInformation, c.PublishedAt, c.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("create concert: duplicate id %s", c.ID)
		}
		return fmt.Errorf("create concert: %w", err)
	}
	return nil
}

func (r *ConcertRepository) GetConcert(ctx context.Context, concertID string) (domain.Concert, error) {
	row := r.queryRow(ctx, `SELECT `+concertColumns+` FROM concerts WHERE id = $1`, concertID)
	c, err := scanConcert(row)
	if err != nil {
		return domain.Concert{}, concertError("get concert", err)
	}
	return c, nil
}

func (r *ConcertRepository) ListConcerts(ctx context.Context) ([]domain.Concert, error) {
	rows, err := r.query(ctx, `SELECT `+concertColumns+` FROM concerts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list concerts: %w", err)
	}
	defer rows.Close()

	var concerts []domain.Concert
	for rows.Next() {
		c, err := scanConcert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan concert: %w", err)
		}
		concerts = append(concerts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list concerts: %w", err)
	}
	return concerts, nil
}

func (r *ConcertRepository) PublishConcert(ctx context.Context, concertID string, at time.Time) (domain.Concert, error) {
	row := r.queryRow(ctx, `
UPDATE concerts SET published_at = COALESCE(published_at, $2)
WHERE id = $1
RETURNING `+concertColumns, concertID, at)
	c, err := scanConcert(row)
	if err != nil {
		return domain.Concert{}, concertError("publish concert", err)
	}
	return c, nil
}

func (r *ConcertRepository) ListOrdersForEmail(ctx context.Context, concertID, email string) ([]domain.Order, error) {
	const query = `
SELECT o.id, o.concert_id, o.email, o.amount, o.created_at, t.id, t.state
FROM orders o
LEFT JOIN tickets t ON t.order_id = o.id
WHERE o.concert_id = $1 AND o.email = $2
ORDER BY o.created_at, o.id, t.id`

	rows, err := r.query(ctx, query, concertID, email)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			o        domain.Order
			ticketID *int64
			state    *string
		)
		if err := rows.Scan(&o.ID, &o.ConcertID, &o.Email, &o.Amount, &o.CreatedAt, &ticketID, &state); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if n := len(orders); n == 0 || orders[n-1].ID != o.ID {
			orders = append(orders, o)
		}
		if ticketID != nil {
			last := &orders[len(orders)-1]
			last.Tickets = append(last.Tickets, domain.Ticket{
				ID:        *ticketID,
				ConcertID: o.ConcertID,
				State:     domain.TicketState(*state),
				OrderID:   o.ID,
			})
		}
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func scanConcert(row pgx.Row) (domain.Concert, error) {
	var c domain.Concert
	err := row.Scan(
		&c.ID, &c.Title, &c.Subtitle, &c.Date, &c.TicketPrice, &c.Venue, &c.VenueAddress, &c.City, &c.State, &c.Zip,
		&c.AdditionalInformation, &c.PublishedAt, &c.CreatedAt,
	)
	return c, err
}

func concertError(op string, err error) error {
	if isInvalidUUID(err) {
		return domain.ErrInvalidID
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrConcertNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
