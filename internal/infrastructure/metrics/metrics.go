package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "repuestos"

// Metrics holds every collector the service exports. Collectors are registered
// on the registerer passed to New so tests can use a private registry.
type Metrics struct {
	movementsTotal      *prometheus.CounterVec
	movementQuantity    *prometheus.HistogramVec
	equivalenceLinks    prometheus.Counter
	searchDuration      *prometheus.HistogramVec
	searchResults       prometheus.Histogram
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		movementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stock_movements_total",
				Help:      "Stock movements attempted, by movement type and outcome",
			},
			[]string{"movement_type", "outcome"},
		),
		movementQuantity: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stock_movement_quantity",
				Help:      "Absolute quantity of committed stock movements",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
			},
			[]string{"movement_type"},
		),
		equivalenceLinks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "equivalence_links_created_total",
				Help:      "Equivalence edges created",
			},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_search_duration_seconds",
				Help:      "Catalog listing latency, split by whether a search term was expanded",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"expanded"},
		),
		searchResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_search_results",
				Help:      "Total matches of a catalog search after equivalence expansion",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 500},
			},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.movementsTotal,
		m.movementQuantity,
		m.equivalenceLinks,
		m.searchDuration,
		m.searchResults,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)

	return m
}

// ObserveMovement records one attempt. outcome is "committed" or the error
// class that aborted it.
func (m *Metrics) ObserveMovement(movementType, outcome string, quantity int) {
	m.movementsTotal.WithLabelValues(movementType, outcome).Inc()
	if outcome != "committed" {
		return
	}
	if quantity < 0 {
		quantity = -quantity
	}
	m.movementQuantity.WithLabelValues(movementType).Observe(float64(quantity))
}

func (m *Metrics) AddEquivalenceLinks(n int) {
	if n > 0 {
		m.equivalenceLinks.Add(float64(n))
	}
}

func (m *Metrics) ObserveSearch(expanded bool, d time.Duration, total int) {
	m.searchDuration.WithLabelValues(strconv.FormatBool(expanded)).Observe(d.Seconds())
	if expanded {
		m.searchResults.Observe(float64(total))
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
