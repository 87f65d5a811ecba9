package metrics

import (
	"net/http"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	processesLaunched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cobalt",
		Name:      "processes_launched_total",
		Help:      "Total number of subprocesses launched through this library.",
	})

	processesAttached = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cobalt",
		Name:      "processes_attached_total",
		Help:      "Total number of handles attached to already-running processes.",
	})

	launchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cobalt",
		Name:      "launch_failures_total",
		Help:      "Total number of launches that failed before producing a process.",
	})

	processExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cobalt",
		Name:      "process_exits_total",
		Help:      "Total number of observed process exits by outcome.",
	}, []string{"outcome"})

	signalsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cobalt",
		Name:      "signals_sent_total",
		Help:      "Total number of control signals delivered to processes.",
	}, []string{"signal"})

	signalFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cobalt",
		Name:      "signal_failures_total",
		Help:      "Total number of control signals that could not be delivered.",
	}, []string{"signal"})

	waitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cobalt",
		Name:      "wait_duration_seconds",
		Help:      "Time spent blocked in Wait until an exit outcome arrived.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cobalt",
		Name:      "build_info",
		Help:      "Build metadata for the running binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(
		processesLaunched,
		processesAttached,
		launchFailures,
		processExits,
		signalsSent,
		signalFailures,
		waitDuration,
		buildInfo,
	)
}

// Registry returns the Prometheus registry containing all cobalt metrics.
func Registry() *prometheus.Registry {
	return registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ProcessLaunched records a successful launch.
func ProcessLaunched() {
	processesLaunched.Inc()
}

// ProcessAttached records a handle attached to an existing process.
func ProcessAttached() {
	processesAttached.Inc()
}

// LaunchFailed records a launch that produced no process.
func LaunchFailed() {
	launchFailures.Inc()
}

// ProcessExited records an observed exit outcome.
func ProcessExited(signaled bool) {
	outcome := "exit"
	if signaled {
		outcome = "signal"
	}
	processExits.WithLabelValues(outcome).Inc()
}

// SignalSent records a delivered control signal.
func SignalSent(signal string) {
	if signal == "" {
		return
	}
	signalsSent.WithLabelValues(signal).Inc()
}

// SignalFailed records a control signal that could not be delivered.
func SignalFailed(signal string) {
	if signal == "" {
		return
	}
	signalFailures.WithLabelValues(signal).Inc()
}

// ObserveWait records how long a caller was blocked waiting for an exit.
func ObserveWait(d time.Duration) {
	waitDuration.Observe(d.Seconds())
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
