package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the reservation core.
type Metrics struct {
	OffersCreated     prometheus.Counter
	OffersRejected    prometheus.Counter
	SalesConfirmed    prometheus.Counter
	ConfirmReplays    prometheus.Counter
	PaymentConflicts  prometheus.Counter
	HoldsExpired      prometheus.Counter
	TicketsReleased   prometheus.Counter
	SweepPassDuration prometheus.Histogram
}

// New registers all collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OffersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_offers_created_total",
			Help: "Holds created by the reservation manager.",
		}),
		OffersRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_offers_rejected_total",
			Help: "Hold requests rejected for insufficient capacity.",
		}),
		SalesConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_sales_confirmed_total",
			Help: "Individual tickets committed to permanent sales.",
		}),
		ConfirmReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_confirm_replays_total",
			Help: "Duplicate payment confirmations absorbed idempotently.",
		}),
		PaymentConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_payment_conflicts_total",
			Help: "Purchased holds confirmed again with a different payment reference.",
		}),
		HoldsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_holds_expired_total",
			Help: "Holds reclaimed by the expiry sweeper.",
		}),
		TicketsReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "boxoffice_tickets_released_total",
			Help: "Ticket units returned to capacity by the sweeper.",
		}),
		SweepPassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "boxoffice_sweep_pass_duration_seconds",
			Help:    "Wall time of a single sweeper pass.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// NewNop returns metrics backed by a throwaway registry, for tests and
// callers that do not scrape.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
