package http

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// HealthHandler answers "ok" when storage responds to a ping.
func HealthHandler(storage Pinger, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := storage.Ping(ctx); err != nil {
			log.WithError(err).Warn("health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable"))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
