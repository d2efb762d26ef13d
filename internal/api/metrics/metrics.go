// Package metrics defines the Prometheus metrics of the auth service. Metrics
// are registered with the default registry on package init through promauto.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

// OperationsTotal counts finished auth operations.
// Labels:
//   - operation: "register", "login" or "verify_token"
//   - result: "success", "invalid_input", "username_taken", "invalid_credentials",
//     "invalid", "expired" or "unavailable"
var OperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Total number of auth operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// PasswordHashDuration measures one Argon2id derivation, excluding the wait
// for a hashing slot.
var PasswordHashDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of a single password hash computation.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	},
)

// RecordOperation matches service.Recorder.
func RecordOperation(op, result string) {
	OperationsTotal.WithLabelValues(op, result).Inc()
}

// ObserveHash matches the crypto.WithObserver callback.
func ObserveHash(d time.Duration) {
	PasswordHashDuration.Observe(d.Seconds())
}
