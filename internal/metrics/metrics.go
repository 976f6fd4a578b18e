package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the inventory and checkout collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	checkoutAttempts *prometheus.CounterVec
	chargeDuration   prometheus.Histogram
	ticketMoves      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		checkoutAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticketbeast",
			Name:      "checkout_attempts_total",
			Help:      "Checkout attempts by final stage.",
		}, []string{"stage"}),
		chargeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ticketbeast",
			Name:      "payment_charge_duration_seconds",
			Help:      "Latency of payment gateway charges.",
			Buckets:   prometheus.DefBuckets,
		}),
		ticketMoves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ticketbeast",
			Name:      "ticket_transitions_total",
			Help:      "Ticket state transitions committed by the inventory.",
		}, []string{"to"}),
	}
}

func (m *Metrics) CheckoutFinished(stage string) {
	if m == nil {
		return
	}
	m.checkoutAttempts.WithLabelValues(stage).Inc()
}

func (m *Metrics) ChargeObserved(d time.Duration) {
	if m == nil {
		return
	}
	m.chargeDuration.Observe(d.Seconds())
}

func (m *Metrics) TicketsMoved(to string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ticketMoves.WithLabelValues(to).Add(float64(n))
}

// CheckoutAttempts exposes the counter for assertions.
func (m *Metrics) CheckoutAttempts() *prometheus.CounterVec {
	return m.checkoutAttempts
}

func (m *Metrics) TicketTransitions() *prometheus.CounterVec {
	return m.ticketMoves
}
