// Package metrics holds the Prometheus collectors commoners records into and
// an optional HTTP endpoint exposing them during development.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"commoners/pkg/logging"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the commoners collectors.
	Registry = prometheus.NewRegistry()

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "commoners",
			Subsystem: "services",
			Name:      "starts_total",
			Help:      "Service start attempts by outcome.",
		},
		[]string{"service", "result"},
	)

	serviceExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "commoners",
			Subsystem: "services",
			Name:      "unexpected_exits_total",
			Help:      "Services that exited without being stopped.",
		},
		[]string{"service"},
	)

	servicesRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "commoners",
			Subsystem: "services",
			Name:      "running",
			Help:      "Number of service processes currently running.",
		},
	)

	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "commoners",
			Subsystem: "build",
			Name:      "step_duration_seconds",
			Help:      "Duration of build plan steps.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
		[]string{"step", "target"},
	)

	stepResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "commoners",
			Subsystem: "build",
			Name:      "steps_total",
			Help:      "Build plan steps by outcome.",
		},
		[]string{"step", "target", "result"},
	)

	pluginEvaluationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "commoners",
			Subsystem: "plugins",
			Name:      "evaluation_failures_total",
			Help:      "Plugin support checks that failed and were treated as unsupported.",
		},
		[]string{"plugin"},
	)
)

func init() {
	Registry.MustRegister(
		serviceStarts,
		serviceExits,
		servicesRunning,
		stepDuration,
		stepResults,
		pluginEvaluationFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordServiceStart counts a start attempt.
func RecordServiceStart(service string, err error) {
	serviceStarts.WithLabelValues(service, result(err)).Inc()
	if err == nil {
		servicesRunning.Inc()
	}
}

// RecordServiceExit is called once per running service that ended.
func RecordServiceExit(service string, unexpected bool) {
	servicesRunning.Dec()
	if unexpected {
		serviceExits.WithLabelValues(service).Inc()
	}
}

// RecordStep records the outcome and duration of a build plan step.
func RecordStep(step, target string, took time.Duration, err error) {
	stepDuration.WithLabelValues(step, target).Observe(took.Seconds())
	stepResults.WithLabelValues(step, target, result(err)).Inc()
}

// RecordPluginEvaluationFailure counts a failed support check.
func RecordPluginEvaluationFailure(plugin string) {
	pluginEvaluationFailures.WithLabelValues(plugin).Inc()
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled. It returns the
// bound address, which differs from addr when addr uses port 0.
func Serve(ctx context.Context, addr string) (string, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	router := mux.NewRouter()
	router.Handle("/metrics", Handler()).Methods("GET")
	srv := &http.Server{Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics", err, "Metrics endpoint stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Info("Metrics", "Serving metrics on http://%s/metrics", l.Addr())
	return l.Addr().String(), nil
}
