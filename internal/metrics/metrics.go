// Package metrics exposes Prometheus instrumentation on an owned registry
// so only the server's own series show up on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "expotrade"

// Registry holds every metric this server exports.
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels; the value is always 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always 1, details in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// RegistrationsReceived counts accepted public registrations by kind.
var RegistrationsReceived = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_received_total",
		Help:      "Total accepted exhibitor and visitor registrations",
	},
	[]string{"kind"},
)

// EmailsSent counts outbound transactional mail by template.
var EmailsSent = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Total transactional emails handed to the provider",
	},
	[]string{"template"},
)

// LoginAttempts counts login outcomes.
var LoginAttempts = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total login attempts by outcome",
	},
	[]string{"outcome"},
)

// Init registers runtime collectors and stamps build info.
func Init(version, commit, buildDate string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
