package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	triggerNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cardsheet",
			Name:      "trigger_notifications_total",
			Help:      "Plugin notifications by event and outcome.",
		},
		[]string{"event", "outcome"},
	)
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "cardsheet",
			Name:      "trigger_breaker_state",
			Help:      "Circuit breaker state per plugin endpoint (0 closed, 1 open, 2 half-open).",
		},
		[]string{"endpoint"},
	)
)

// TriggerNotification counts one plugin delivery attempt.
func TriggerNotification(event, outcome string) {
	triggerNotifications.WithLabelValues(event, outcome).Inc()
}

// SetBreakerState records the state of an endpoint's breaker.
func SetBreakerState(endpoint string, state int) {
	breakerState.WithLabelValues(endpoint).Set(float64(state))
}

// ForgetBreaker drops the state series of an endpoint that is no longer used.
func ForgetBreaker(endpoint string) {
	breakerState.DeleteLabelValues(endpoint)
}

// NotificationCounter returns the counter for one event and outcome.
func NotificationCounter(event, outcome string) prometheus.Counter {
	return triggerNotifications.WithLabelValues(event, outcome)
}
