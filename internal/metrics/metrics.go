package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sign-in metrics live in a standalone package to avoid import cycles
// between the auth services and the HTTP layer.

var (
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "websignin_login_attempts_total",
		Help: "Login attempts started, by flow",
	}, []string{"flow"})

	LoginResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "websignin_login_results_total",
		Help: "Completed callbacks, by flow and result",
	}, []string{"flow", "result"})

	DiscoveryLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "websignin_discovery_latency_ms",
		Help:    "Endpoint discovery latency in milliseconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "websignin_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

// Register registers the sign-in metrics on the given registry
// (or the default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{LoginAttempts, LoginResults, DiscoveryLatency, RateLimited} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
