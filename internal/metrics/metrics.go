package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "authgate", Name: "auth_attempts_total", Help: "Authentication operations by outcome."},
		[]string{"operation", "outcome"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "authgate", Name: "rate_limit_allowed_total", Help: "Requests admitted by the rate limiter, by store."},
		[]string{"store"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "authgate", Name: "rate_limit_rejected_total", Help: "Requests rejected by the rate limiter, by tier."},
		[]string{"tier"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(AuthAttempts)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
