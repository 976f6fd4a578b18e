package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

const (
	codeMethodNotAllowed      = "method_not_allowed"
	codeNotFound              = "not_found"
	codeConcertNotFound       = "concert_not_found"
	codeInvalidID             = "invalid_id"
	codeValidationFailed      = "validation_failed"
	codeInvalidQuantity       = "invalid_quantity"
	codeInsufficientInventory = "insufficient_inventory"
	codePaymentUnavailable    = "payment_unavailable"
	codePaymentPending        = "payment_outcome_unknown"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// writeServiceError maps admin and listing failures onto the JSON error body.
func writeServiceError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var invalid *domain.ValidationError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Code:   codeValidationFailed,
			Fields: invalid.Fields,
		})
	case errors.Is(err, domain.ErrConcertNotFound):
		writeError(w, http.StatusNotFound, codeConcertNotFound, domain.ErrConcertNotFound.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, domain.ErrInvalidID.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusUnprocessableEntity, codeInvalidQuantity, domain.ErrInvalidQuantity.Error())
	case errors.Is(err, domain.ErrInsufficientInventory):
		writeError(w, http.StatusUnprocessableEntity, codeInsufficientInventory, domain.ErrInsufficientInventory.Error())
	default:
		log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	}
}

func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	}
}
