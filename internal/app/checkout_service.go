package app

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/metrics"
)

// CheckoutStage is where a checkout attempt stopped.
type CheckoutStage string

const (
	// StageCharging ends attempts that failed after the charge step began
	// without a clean release.
	StageCharging  CheckoutStage = "charging"
	StageCompleted CheckoutStage = "completed"
	// StageRejected ends attempts that never held tickets.
	StageRejected CheckoutStage = "rejected"
	// StageCancelled ends attempts whose hold was released after a failed charge.
	StageCancelled CheckoutStage = "cancelled"
)

type PublishedConcertFinder interface {
	GetPublished(ctx context.Context, concertID string) (domain.Concert, error)
}

type TicketReserver interface {
	Reserve(ctx context.Context, concertID string, quantity int, email string) (*Reservation, error)
}

type OrderEvents interface {
	OrderPlaced(ctx context.Context, order domain.Order) error
}

type CheckoutService struct {
	concerts  PublishedConcertFinder
	inventory TicketReserver
	gateway   PaymentGateway
	events    OrderEvents
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
	tracer    trace.Tracer
}

type CheckoutOption func(*CheckoutService)

func WithOrderEvents(events OrderEvents) CheckoutOption {
	return func(s *CheckoutService) {
		s.events = events
	}
}

func WithCheckoutMetrics(m *metrics.Metrics) CheckoutOption {
	return func(s *CheckoutService) {
		s.metrics = m
	}
}

func WithCheckoutLogger(log logrus.FieldLogger) CheckoutOption {
	return func(s *CheckoutService) {
		if log != nil {
			s.log = log
		}
	}
}

func NewCheckoutService(concerts PublishedConcertFinder, inventory TicketReserver, gateway PaymentGateway, opts ...CheckoutOption) *CheckoutService {
	svc := &CheckoutService{
		concerts:  concerts,
		inventory: inventory,
		gateway:   gateway,
		log:       logrus.StandardLogger(),
		tracer:    otel.Tracer("github.com/AndrewGardhouse/ticketbeast-tdd/internal/app"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type CheckoutInput struct {
	ConcertID      string `json:"-"`
	Email          string `json:"email"`
	TicketQuantity *int   `json:"ticket_quantity"`
	PaymentToken   string `json:"payment_token"`
}

func (in CheckoutInput) Validate() error {
	return validationError(validation.ValidateStruct(&in,
		validation.Field(&in.Email, emailRules...),
		validation.Field(&in.TicketQuantity, validation.NotNil.Error("cannot be blank"), atLeastOne),
		validation.Field(&in.PaymentToken, validation.Required),
	))
}

// Checkout buys tickets for a published concert. Errors are a
// *domain.ValidationError, domain.ErrConcertNotFound,
// domain.ErrInsufficientInventory, a charge error wrapping
// domain.ErrPaymentFailed, domain.ErrPaymentUnavailable or
// domain.ErrPaymentOutcomeUnknown, or an internal failure. Only the first two
// release the held tickets.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "Checkout", trace.WithAttributes(
		attribute.String("concert_id", in.ConcertID),
	))
	defer span.End()

	order, stage, err := s.checkout(ctx, in)

	span.SetAttributes(attribute.String("checkout.stage", string(stage)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(stage))
	}
	s.metrics.CheckoutFinished(string(stage))

	entry := s.log.WithFields(logrus.Fields{
		"concert_id": in.ConcertID,
		"stage":      stage,
	})
	if err != nil {
		entry.WithError(err).Info("checkout did not complete")
		return domain.Order{}, err
	}
	entry.WithFields(logrus.Fields{
		"order_id": order.ID,
		"quantity": order.TicketQuantity(),
		"amount":   order.Amount,
	}).Info("checkout completed")
	return order, nil
}

func (s *CheckoutService) checkout(ctx context.Context, in CheckoutInput) (domain.Order, CheckoutStage, error) {
	if err := in.Validate(); err != nil {
		return domain.Order{}, StageRejected, err
	}

	concert, err := s.concerts.GetPublished(ctx, in.ConcertID)
	if err != nil {
		return domain.Order{}, StageRejected, err
	}

	reservation, err := s.inventory.Reserve(ctx, concert.ID, *in.TicketQuantity, in.Email)
	if err != nil {
		return domain.Order{}, StageRejected, err
	}

	order, err := reservation.Complete(ctx, s.gateway, in.PaymentToken)
	if err != nil {
		if !isChargeFailure(err) {
			if errors.Is(err, domain.ErrPaymentOutcomeUnknown) {
				s.log.WithError(err).WithFields(logrus.Fields{
					"concert_id": concert.ID,
					"email":      in.Email,
					"amount":     reservation.TotalCost(),
				}).Error("charge outcome unknown, tickets stay reserved for reconciliation")
			}
			return domain.Order{}, StageCharging, err
		}
		if cancelErr := reservation.Cancel(ctx); cancelErr != nil {
			return domain.Order{}, StageCharging, errors.Join(err, cancelErr)
		}
		return domain.Order{}, StageCancelled, err
	}

	if s.events != nil {
		if err := s.events.OrderPlaced(ctx, order); err != nil {
			s.log.WithError(err).WithField("order_id", order.ID).Warn("order placed event not published")
		}
	}
	return order, StageCompleted, nil
}

// isChargeFailure reports whether the provider certainly did not charge.
func isChargeFailure(err error) bool {
	if errors.Is(err, domain.ErrPaymentOutcomeUnknown) {
		return false
	}
	return errors.Is(err, domain.ErrPaymentFailed) || errors.Is(err, domain.ErrPaymentUnavailable)
}
