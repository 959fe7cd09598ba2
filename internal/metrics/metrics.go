// Package metrics exposes claim and settlement counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Claim outcomes.
const (
	ClaimGranted   = "granted"
	ClaimExhausted = "exhausted"
	ClaimBusy      = "busy"
	ClaimDuplicate = "already_claimed"
	ClaimFailed    = "failed"
)

// Release reasons.
const (
	ReleaseByUser  = "user"
	ReleaseExpired = "expired"
)

type Metrics struct {
	claims        *prometheus.CounterVec
	reviews       *prometheus.CounterVec
	settledAmount prometheus.Counter
	commission    prometheus.Counter
	fraudFlags    prometheus.Counter
	doubleSettle  prometheus.Counter
	releases      *prometheus.CounterVec
	lockFailOpen  prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		claims: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bountyhub_claims_total",
			Help: "task claims by outcome",
		}, []string{"outcome"}),
		reviews: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bountyhub_reviews_total",
			Help: "submission reviews by decision",
		}, []string{"decision"}),
		settledAmount: factory.NewCounter(prometheus.CounterOpts{
			Name: "bountyhub_settled_amount_total",
			Help: "rewards credited to submitters",
		}),
		commission: factory.NewCounter(prometheus.CounterOpts{
			Name: "bountyhub_commission_amount_total",
			Help: "commission credited to inviters",
		}),
		fraudFlags: factory.NewCounter(prometheus.CounterOpts{
			Name: "bountyhub_duplicate_evidence_total",
			Help: "evidence uploads blocked as duplicates",
		}),
		doubleSettle: factory.NewCounter(prometheus.CounterOpts{
			Name: "bountyhub_double_settlement_attempts_total",
			Help: "approvals of already approved submissions",
		}),
		releases: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bountyhub_reservations_released_total",
			Help: "material reservations returned to the pool",
		}, []string{"reason"}),
		lockFailOpen: factory.NewCounter(prometheus.CounterOpts{
			Name: "bountyhub_lock_fail_open_total",
			Help: "critical sections run without the distributed lock",
		}),
	}
}

func (m *Metrics) Claim(outcome string) {
	m.claims.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Review(decision string) {
	m.reviews.WithLabelValues(decision).Inc()
}

func (m *Metrics) Settled(reward, commission float64) {
	m.settledAmount.Add(reward)
	m.commission.Add(commission)
}

func (m *Metrics) DuplicateEvidence() {
	m.fraudFlags.Inc()
}

func (m *Metrics) DoubleSettlement() {
	m.doubleSettle.Inc()
}

func (m *Metrics) Released(reason string) {
	m.releases.WithLabelValues(reason).Inc()
}

func (m *Metrics) LockFailOpen() {
	m.lockFailOpen.Inc()
}
