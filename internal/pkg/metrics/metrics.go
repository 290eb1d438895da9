package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the operation counters for the ledger core.
type Collector struct {
	registry        *prometheus.Registry
	ledgerMutations *prometheus.CounterVec
	ledgerRejected  *prometheus.CounterVec
	purchases       prometheus.Counter
	referralBonuses prometheus.Counter
	workflowResults *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		ledgerMutations: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_mutations_total",
			Help: "Committed balance mutations by direction and currency",
		}, []string{"direction", "currency"}),
		ledgerRejected: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_rejected_total",
			Help: "Balance mutations rejected by the funds precondition",
		}, []string{"currency"}),
		purchases: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "membership_purchases_total",
			Help: "Completed membership purchases",
		}),
		referralBonuses: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "referral_bonuses_paid_total",
			Help: "Referral bonuses paid out",
		}),
		workflowResults: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "transaction_workflow_total",
			Help: "Transaction workflow outcomes by terminal status",
		}, []string{"status"}),
	}
}

func (c *Collector) RecordMutation(direction, currency string) {
	c.ledgerMutations.WithLabelValues(direction, currency).Inc()
}

func (c *Collector) RecordRejected(currency string) {
	c.ledgerRejected.WithLabelValues(currency).Inc()
}

func (c *Collector) RecordPurchase() {
	c.purchases.Inc()
}

func (c *Collector) RecordReferralBonus() {
	c.referralBonuses.Inc()
}

func (c *Collector) RecordWorkflowResult(status string) {
	c.workflowResults.WithLabelValues(status).Inc()
}

// Handler returns the scrape endpoint handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
