package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics собирает показатели прогонов валидации, оценок и кэша справочника.
// Все методы безопасны для nil-получателя, чтобы тесты могли не регистрировать метрики.
type Metrics struct {
	ValidationRuns     *prometheus.CounterVec
	CheckOutcomes      *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	Assessments        *prometheus.CounterVec
	DirectoryCache     *prometheus.CounterVec
}

// New регистрирует метрики в переданном реестре
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ValidationRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "complyform_validation_runs_total",
			Help: "Validation runs by overall status",
		}, []string{"status"}),
		CheckOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "complyform_check_outcomes_total",
			Help: "Individual check outcomes by check and status",
		}, []string{"check", "status"}),
		ValidationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "complyform_validation_duration_seconds",
			Help:    "Duration of a full validation run including persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		Assessments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "complyform_assessments_total",
			Help: "Opportunity assessments by recommendation",
		}, []string{"recommendation"}),
		DirectoryCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "complyform_directory_cache_lookups_total",
			Help: "Directory cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveValidationRun(status string, start time.Time) {
	if m == nil {
		return
	}
	m.ValidationRuns.WithLabelValues(status).Inc()
	m.ValidationDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncCheckOutcome(check, status string) {
	if m == nil {
		return
	}
	m.CheckOutcomes.WithLabelValues(check, status).Inc()
}

func (m *Metrics) IncAssessment(recommendation string) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(recommendation).Inc()
}

func (m *Metrics) IncDirectoryCache(result string) {
	if m == nil {
		return
	}
	m.DirectoryCache.WithLabelValues(result).Inc()
}
