package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Claim(ClaimGranted)
	m.Claim(ClaimExhausted)
	m.Claim(ClaimExhausted)
	m.Review("approve")
	m.Settled(110, 11)
	m.DuplicateEvidence()
	m.DoubleSettlement()
	m.Released(ReleaseExpired)
	m.LockFailOpen()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.claims.WithLabelValues(ClaimGranted)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.claims.WithLabelValues(ClaimExhausted)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.reviews.WithLabelValues("approve")))
	assert.Equal(t, float64(110), testutil.ToFloat64(m.settledAmount))
	assert.Equal(t, float64(11), testutil.ToFloat64(m.commission))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.fraudFlags))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.doubleSettle))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.releases.WithLabelValues(ReleaseExpired)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.lockFailOpen))
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
