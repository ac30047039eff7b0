package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("indoornav/services")

var (
	routeQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indoornav_route_queries_total",
		Help: "Route searches by result",
	}, []string{"result"}) // ok, not_found, no_route, error

	routeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "indoornav_route_search_duration_seconds",
		Help:    "Time spent in the route search",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
	})

	routeLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "indoornav_route_nodes",
		Help:    "Number of nodes on returned routes",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200},
	})

	samplesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "indoornav_motion_samples_ingested_total",
		Help: "Accelerometer samples accepted by the congestion estimator",
	})

	rejectedBatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "indoornav_motion_batches_rejected_total",
		Help: "Congestion updates rejected for malformed samples",
	})

	graphCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indoornav_graph_cache_total",
		Help: "Building graph cache lookups",
	}, []string{"result"}) // hit, miss, reload
)
