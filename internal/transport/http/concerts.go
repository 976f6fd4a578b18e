package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/format"
)

// PublishedConcerts looks up concerts visible to customers.
type PublishedConcerts interface {
	GetPublished(ctx context.Context, concertID string) (domain.Concert, error)
}

// HandleShowConcert returns the handler for GET /concerts/{concertID}.
func HandleShowConcert(svc PublishedConcerts, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		concert, err := svc.GetPublished(r.Context(), chi.URLParam(r, "concertID"))
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, format.NewListing(concert))
	}
}
