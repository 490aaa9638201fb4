package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// RankingMetrics instruments the recommendation service.
type RankingMetrics struct {
	rankingDuration    *prometheus.HistogramVec
	rankingResults     *prometheus.HistogramVec
	trailerResolutions *prometheus.CounterVec
	historyFailures    *prometheus.CounterVec
	catalogItems       prometheus.Gauge
	similaritySeeds    *prometheus.GaugeVec
}

func NewRankingMetrics(logger *logrus.Logger) *RankingMetrics {
	return &RankingMetrics{
		rankingDuration: registerCollector(logger, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ranking_duration_seconds",
			Help:    "Time spent computing a ranked list",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"strategy"})),
		rankingResults: registerCollector(logger, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ranking_results",
			Help:    "Number of items returned by a ranking",
			Buckets: []float64{0, 1, 5, 10, 12, 15, 20},
		}, []string{"strategy"})),
		trailerResolutions: registerCollector(logger, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trailer_resolutions_total",
			Help: "Trailer lookups by the source that answered",
		}, []string{"source"})),
		historyFailures: registerCollector(logger, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "history_load_failures_total",
			Help: "Watch history loads that failed and fell back to an empty history",
		}, []string{"store"})),
		catalogItems: registerCollector(logger, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_items",
			Help: "Number of items in the loaded catalog",
		})),
		similaritySeeds: registerCollector(logger, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "similarity_table_seeds",
			Help: "Number of seed items covered by each similarity table",
		}, []string{"table"})),
	}
}

// registerCollector registers c with the default registry. When an identical
// collector is already registered, that one is returned so every instance
// records into the series /metrics exposes.
func registerCollector[C prometheus.Collector](logger *logrus.Logger, c C) C {
	err := prometheus.Register(c)
	if err == nil {
		return c
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	logger.WithError(err).Warn("Failed to register metric")
	return c
}

func (m *RankingMetrics) observeRanking(strategy string, seconds float64, results int) {
	m.rankingDuration.WithLabelValues(strategy).Observe(seconds)
	m.rankingResults.WithLabelValues(strategy).Observe(float64(results))
}

func (m *RankingMetrics) SetDataSizes(catalogItems, featureSeeds, scoreSeeds int) {
	m.catalogItems.Set(float64(catalogItems))
	m.similaritySeeds.WithLabelValues("features").Set(float64(featureSeeds))
	m.similaritySeeds.WithLabelValues("scores").Set(float64(scoreSeeds))
}
