// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_registrations_total",
			Help: "Completed registrations by resulting status",
		},
		[]string{"status"},
	)

	registrationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_registration_errors_total",
			Help: "Rejected registrations by error kind",
		},
		[]string{"kind"},
	)

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"},
	)

	guardRedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_guard_redirects_total",
			Help: "Redirects issued by the session guard",
		},
		[]string{"reason"},
	)

	profileWriteFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_profile_write_failures_total",
			Help: "Profile upserts that failed and were skipped",
		},
	)

	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_deliveries_total",
			Help: "Post-registration deliveries by target and result",
		},
		[]string{"target", "result"},
	)

	identityRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_identity_request_duration_seconds",
			Help:    "Latency of identity backend calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation"},
	)
)

// RecordRegistration counts a successful registration.
func RecordRegistration(status string) {
	registrationsTotal.WithLabelValues(status).Inc()
}

// RecordRegistrationError counts a rejected registration.
func RecordRegistrationError(kind string) {
	registrationErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordLogin counts a login attempt.
func RecordLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// RecordGuardRedirect counts a redirect issued by the session guard.
func RecordGuardRedirect(reason string) {
	guardRedirectsTotal.WithLabelValues(reason).Inc()
}

// RecordProfileWriteFailure counts a swallowed profile write failure.
func RecordProfileWriteFailure() {
	profileWriteFailuresTotal.Inc()
}

// RecordDelivery counts a delivery outcome.
func RecordDelivery(target, result string) {
	deliveriesTotal.WithLabelValues(target, result).Inc()
}

// ObserveIdentityCall records the time since start. Use with defer.
func ObserveIdentityCall(operation string, start time.Time) {
	identityRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
