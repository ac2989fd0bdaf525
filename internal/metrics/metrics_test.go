package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveValidationRun("FAIL", time.Now())
	m.ObserveValidationRun("FAIL", time.Now())
	m.IncCheckOutcome("mbe_percentage", "PASS")
	m.IncAssessment("NO_BID")
	m.IncDirectoryCache("hit")

	require.Equal(t, 2.0, testutil.ToFloat64(m.ValidationRuns.WithLabelValues("FAIL")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CheckOutcomes.WithLabelValues("mbe_percentage", "PASS")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Assessments.WithLabelValues("NO_BID")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DirectoryCache.WithLabelValues("hit")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveValidationRun("PASS", time.Now())
		m.IncCheckOutcome("x", "PASS")
		m.IncAssessment("BID")
		m.IncDirectoryCache("miss")
	})
}
