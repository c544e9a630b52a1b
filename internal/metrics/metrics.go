// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation metrics
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitline_recommendations_total",
			Help: "Total recommendation requests by outcome",
		},
		[]string{"status"}, // "success", "error"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitline_recommendation_duration_seconds",
			Help:    "End-to-end recommendation latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitline_recommendation_results",
			Help:    "Number of items returned per recommendation request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	StrategyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitline_strategy_duration_seconds",
			Help:    "Duration of individual scoring strategies",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	StrategyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitline_strategy_failures_total",
			Help: "Strategy runs that failed and contributed no scores",
		},
		[]string{"strategy"},
	)

	CatalogResolutionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fitline_catalog_resolution_failures_total",
			Help: "Scored items dropped because the catalog could not resolve them",
		},
	)

	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitline_interactions_recorded_total",
			Help: "Interactions appended to the history store",
		},
		[]string{"kind"},
	)

	// Visual similarity metrics
	VisualIndexItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitline_visual_index_items",
			Help: "Number of vectors held by the similarity index",
		},
	)

	VisualSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitline_visual_search_duration_seconds",
			Help:    "Similarity index search latency",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	FeatureExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitline_feature_extractions_total",
			Help: "Feature extractions by outcome",
		},
		[]string{"status"}, // "success", "failure"
	)

	IndexSnapshots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitline_visual_index_snapshots_total",
			Help: "Similarity index snapshots by outcome",
		},
		[]string{"status"},
	)

	// Catalog metrics
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitline_catalog_requests_total",
			Help: "Catalog backend calls by backend and outcome",
		},
		[]string{"backend", "status"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitline_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitline_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitline_http_active_requests",
			Help: "In-flight HTTP requests",
		},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordRecommendation records one recommendation request.
func RecordRecommendation(duration time.Duration, results int, err error) {
	RecommendationsTotal.WithLabelValues(statusLabel(err)).Inc()
	RecommendationDuration.Observe(duration.Seconds())
	if err == nil {
		RecommendationResults.Observe(float64(results))
	}
}

// RecordStrategy records one strategy run. Failed runs are also counted in
// StrategyFailures.
func RecordStrategy(strategy string, duration time.Duration, err error) {
	StrategyDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	if err != nil {
		StrategyFailures.WithLabelValues(strategy).Inc()
	}
}

// RecordCatalogResolutionFailure counts a scored item that was dropped.
func RecordCatalogResolutionFailure() {
	CatalogResolutionFailures.Inc()
}

// RecordInteraction counts an appended interaction.
func RecordInteraction(kind string) {
	InteractionsRecorded.WithLabelValues(kind).Inc()
}

// RecordExtraction counts one feature extraction.
func RecordExtraction(err error) {
	if err != nil {
		FeatureExtractions.WithLabelValues("failure").Inc()
		return
	}
	FeatureExtractions.WithLabelValues("success").Inc()
}

// RecordVisualSearch observes one index search.
func RecordVisualSearch(duration time.Duration) {
	VisualSearchDuration.Observe(duration.Seconds())
}

// SetVisualIndexSize sets the index size gauge.
func SetVisualIndexSize(n int) {
	VisualIndexItems.Set(float64(n))
}

// RecordIndexSnapshot counts one index snapshot attempt.
func RecordIndexSnapshot(err error) {
	IndexSnapshots.WithLabelValues(statusLabel(err)).Inc()
}

// RecordCatalogRequest counts one catalog backend call.
func RecordCatalogRequest(backend string, err error) {
	CatalogRequests.WithLabelValues(backend, statusLabel(err)).Inc()
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}
