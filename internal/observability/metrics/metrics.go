package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetlease_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assetlease_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	bookingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assetlease_booking_duration_seconds",
		Help:    "Duration of contract booking attempts",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	paymentOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetlease_payment_operations_total",
		Help: "Count of payment ledger operations by kind and result",
	}, []string{"operation", "result"})

	reconcileOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetlease_reconcile_operations_total",
		Help: "Count of status reconcile passes by result",
	}, []string{"result"})

	activeContracts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "assetlease_active_contracts",
		Help: "Number of contracts currently in active status",
	})

	rentedAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "assetlease_rented_assets",
		Help: "Number of assets currently in rented status",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveBooking records the duration of a booking attempt with a result label.
func ObserveBooking(result string, duration time.Duration) {
	bookingDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// ObservePayment increments the ledger operation counter.
func ObservePayment(operation, result string) {
	paymentOperations.WithLabelValues(operation, result).Inc()
}

// ObserveReconcile increments the reconcile pass counter.
func ObserveReconcile(result string) {
	reconcileOperations.WithLabelValues(result).Inc()
}

// SetActiveContracts sets the active contract gauge.
func SetActiveContracts(count int) {
	if count < 0 {
		count = 0
	}
	activeContracts.Set(float64(count))
}

// SetRentedAssets sets the rented asset gauge.
func SetRentedAssets(count int) {
	if count < 0 {
		count = 0
	}
	rentedAssets.Set(float64(count))
}
