package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pairkeep/internal/logging"
	"pairkeep/internal/organize"
)

// Recorder tracks run outcomes for the optional Prometheus endpoint.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	itemsOrganized   prometheus.Counter
	itemFailures     *prometheus.CounterVec
	groupingsCreated prometheus.Counter
	runDuration      prometheus.Histogram
}

// NewRecorder builds a recorder with its own registry so tests can run in
// parallel without duplicate registration panics.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pairkeep_runs_total",
			Help: "Organization runs by final status.",
		}, []string{"status"}),
		itemsOrganized: factory.NewCounter(prometheus.CounterOpts{
			Name: "pairkeep_items_organized_total",
			Help: "Items successfully relocated into groupings.",
		}),
		itemFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pairkeep_item_failures_total",
			Help: "Per-item relocation failures by reason.",
		}, []string{"reason"}),
		groupingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "pairkeep_groupings_created_total",
			Help: "Groupings created while applying plans.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pairkeep_run_duration_seconds",
			Help:    "Wall-clock duration of organization runs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// ObserveRun records the outcome of one organization run.
func (r *Recorder) ObserveRun(status string, result *organize.Result, duration time.Duration) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration.Seconds())
	if result == nil {
		return
	}
	r.itemsOrganized.Add(float64(result.SuccessCount))
	r.groupingsCreated.Add(float64(len(result.CreatedGroupings)))
	for _, failure := range result.Failures {
		r.itemFailures.WithLabelValues(failure.Reason).Inc()
	}
}

// Handler returns the scrape handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Server serves the /metrics endpoint on a dedicated listener.
type Server struct {
	recorder *Recorder
	server   *http.Server
	logger   *slog.Logger
}

// NewServer wires the recorder into an HTTP server bound to addr.
func NewServer(recorder *Recorder, addr string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	return &Server{
		recorder: recorder,
		server:   &http.Server{Addr: addr, Handler: mux},
		logger:   logging.NewComponentLogger(logger, "metrics"),
	}
}

// Start begins serving in a background goroutine. Listen errors other than
// graceful shutdown are logged, not fatal; metrics are never load-bearing.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("metrics endpoint listening", logging.String("addr", listener.Addr().String()))
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("metrics server stopped", logging.Error(err))
		}
	}()
	return nil
}

// Stop shuts the endpoint down.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
