package app

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/clock"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

type ConcertRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateConcert(ctx context.Context, concert domain.Concert) error
	GetConcert(ctx context.Context, concertID string) (domain.Concert, error)
	ListConcerts(ctx context.Context) ([]domain.Concert, error)
	// PublishConcert sets published_at if it is not set yet and returns the concert.
	PublishConcert(ctx context.Context, concertID string, at time.Time) (domain.Concert, error)
	ListOrdersForEmail(ctx context.Context, concertID, email string) ([]domain.Order, error)
}

// ListingCache holds published concert snapshots.
type ListingCache interface {
	Get(ctx context.Context, concertID string) (domain.Concert, bool, error)
	Set(ctx context.Context, concert domain.Concert) error
	Invalidate(ctx context.Context, concertID string) error
}

type TicketStocker interface {
	AddTickets(ctx context.Context, concertID string, quantity int) error
}

type ConcertService struct {
	repo    ConcertRepository
	tickets TicketStocker
	cache   ListingCache
	clock   clock.Clock
	log     logrus.FieldLogger
}

type ConcertServiceOption func(*ConcertService)

func WithListingCache(cache ListingCache) ConcertServiceOption {
	return func(s *ConcertService) {
		s.cache = cache
	}
}

func WithConcertLogger(log logrus.FieldLogger) ConcertServiceOption {
	return func(s *ConcertService) {
		if log != nil {
			s.log = log
		}
	}
}

func NewConcertService(repo ConcertRepository, tickets TicketStocker, clk clock.Clock, opts ...ConcertServiceOption) *ConcertService {
	svc := &ConcertService{
		repo:    repo,
		tickets: tickets,
		clock:   clk,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CreateConcertInput struct {
	Title                 string    `json:"title"`
	Subtitle              string    `json:"subtitle"`
	Date                  time.Time `json:"date"`
	TicketPrice           int64     `json:"ticket_price"`
	Venue                 string    `json:"venue"`
	VenueAddress          string    `json:"venue_address"`
	City                  string    `json:"city"`
	State                 string    `json:"state"`
	Zip                   string    `json:"zip"`
	AdditionalInformation string    `json:"additional_information"`
	TicketQuantity        *int      `json:"ticket_quantity"`
}

const minTicketPrice = 500

func (in CreateConcertInput) Validate() error {
	return validationError(validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required),
		validation.Field(&in.Date, validation.Required),
		validation.Field(&in.TicketPrice, validation.Required, validation.Min(int64(minTicketPrice))),
		validation.Field(&in.Venue, validation.Required),
		validation.Field(&in.VenueAddress, validation.Required),
		validation.Field(&in.City, validation.Required),
		validation.Field(&in.State, validation.Required),
		validation.Field(&in.Zip, validation.Required),
		validation.Field(&in.TicketQuantity, atLeastOne),
	))
}

// CreateConcert stores an unpublished concert and stocks its initial tickets
// in one unit of work. A failed stocking leaves no concert behind.
func (s *ConcertService) CreateConcert(ctx context.Context, in CreateConcertInput) (domain.Concert, error) {
	if err := in.Validate(); err != nil {
		return domain.Concert{}, err
	}

	concert := domain.Concert{
		ID:                    newID(),
		Title:                 in.Title,
		Subtitle:              in.Subtitle,
		Date:                  in.Date.UTC(),
		TicketPrice:           in.TicketPrice,
		Venue:                 in.Venue,
		VenueAddress:          in.VenueAddress,
		City:                  in.City,
		State:                 in.State,
		Zip:                   in.Zip,
		AdditionalInformation: in.AdditionalInformation,
		CreatedAt:             s.clock.Now(),
	}
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateConcert(txCtx, concert); err != nil {
			return err
		}
		if in.TicketQuantity == nil {
			return nil
		}
		return s.tickets.AddTickets(txCtx, concert.ID, *in.TicketQuantity)
	})
	if err != nil {
		return domain.Concert{}, err
	}
	return concert, nil
}

func (s *ConcertService) GetConcert(ctx context.Context, concertID string) (domain.Concert, error) {
	return s.repo.GetConcert(ctx, concertID)
}

func (s *ConcertService) ListConcerts(ctx context.Context) ([]domain.Concert, error) {
	return s.repo.ListConcerts(ctx)
}

func (s *ConcertService) Publish(ctx context.Context, concertID string) (domain.Concert, error) {
	concert, err := s.repo.PublishConcert(ctx, concertID, s.clock.Now())
	if err != nil {
		return domain.Concert{}, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, concertID); err != nil {
			s.log.WithError(err).WithField("concert_id", concertID).Warn("listing cache invalidation failed")
		}
	}
	return concert, nil
}

// GetPublished returns the concert only if it is published. Unpublished and
// unknown concerts are both reported as domain.ErrConcertNotFound.
func (s *ConcertService) GetPublished(ctx context.Context, concertID string) (domain.Concert, error) {
	if s.cache != nil {
		concert, ok, err := s.cache.Get(ctx, concertID)
		if err != nil {
			s.log.WithError(err).WithField("concert_id", concertID).Warn("listing cache read failed")
		} else if ok && concert.IsPublished() {
			return concert, nil
		}
	}

	concert, err := s.repo.GetConcert(ctx, concertID)
	if err != nil {
		if err == domain.ErrInvalidID {
			return domain.Concert{}, domain.ErrConcertNotFound
		}
		return domain.Concert{}, err
	}
	if !concert.IsPublished() {
		return domain.Concert{}, domain.ErrConcertNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, concert); err != nil {
			s.log.WithError(err).WithField("concert_id", concertID).Warn("listing cache write failed")
		}
	}
	return concert, nil
}

func (s *ConcertService) OrdersFor(ctx context.Context, concertID, email string) ([]domain.Order, error) {
	return s.repo.ListOrdersForEmail(ctx, concertID, email)
}

func (s *ConcertService) HasOrderFor(ctx context.Context, concertID, email string) (bool, error) {
	orders, err := s.OrdersFor(ctx, concertID, email)
	if err != nil {
		return false, err
	}
	return len(orders) > 0, nil
}
