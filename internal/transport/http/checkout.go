package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/app"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

// Checkouter is the minimal interface needed to place a customer order.
type Checkouter interface {
	Checkout(ctx context.Context, in app.CheckoutInput) (domain.Order, error)
}

type orderResponse struct {
	Email          string `json:"email"`
	TicketQuantity int    `json:"ticket_quantity"`
	Amount         int64  `json:"amount"`
}

func newOrderResponse(order domain.Order) orderResponse {
	return orderResponse{
		Email:          order.Email,
		TicketQuantity: order.TicketQuantity(),
		Amount:         order.Amount,
	}
}

// HandleCheckout returns the handler for POST /concerts/{concertID}/orders.
//
// Malformed input answers 422 with a field→message object. Inventory and
// payment failures answer 422 with an empty body.
func HandleCheckout(svc Checkouter, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in := app.CheckoutInput{ConcertID: chi.URLParam(r, "concertID")}
		problems := decodeFields(r, map[string]field{
			"email":           {dst: &in.Email, msg: "must be a string"},
			"ticket_quantity": {dst: &in.TicketQuantity, msg: "must be an integer"},
			"payment_token":   {dst: &in.PaymentToken, msg: "must be a string"},
		})
		if len(problems) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, withValidation(problems, in.Validate))
			return
		}

		order, err := svc.Checkout(r.Context(), in)
		if err != nil {
			var invalid *domain.ValidationError
			switch {
			case errors.As(err, &invalid):
				writeJSON(w, http.StatusUnprocessableEntity, invalid.Fields)
			case errors.Is(err, domain.ErrConcertNotFound), errors.Is(err, domain.ErrInvalidID):
				writeError(w, http.StatusNotFound, codeConcertNotFound, domain.ErrConcertNotFound.Error())
			case errors.Is(err, domain.ErrPaymentOutcomeUnknown):
				writeError(w, http.StatusBadGateway, codePaymentPending, "payment outcome unknown, tickets remain reserved")
			case errors.Is(err, domain.ErrPaymentUnavailable):
				writeError(w, http.StatusServiceUnavailable, codePaymentUnavailable, "payment provider unavailable")
			case errors.Is(err, domain.ErrInsufficientInventory), errors.Is(err, domain.ErrPaymentFailed):
				w.WriteHeader(http.StatusUnprocessableEntity)
			default:
				log.WithError(err).WithField("concert_id", in.ConcertID).Error("checkout failed")
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, newOrderResponse(order))
	}
}
