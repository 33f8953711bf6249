package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "newsharvest"

// Metrics holds the Prometheus collectors for a run. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	articlesExtracted *prometheus.CounterVec
	articlesKept      *prometheus.CounterVec
	backendFailures   *prometheus.CounterVec
	annotations       *prometheus.CounterVec
	annotationRetries prometheus.Counter
	llmCallDuration   prometheus.Histogram

	logger *slog.Logger
}

// NewMetrics creates a Metrics instance on its own registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		articlesExtracted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_extracted_total",
			Help:      "Article records produced by extraction backends",
		}, []string{"backend"}),
		articlesKept: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_kept_total",
			Help:      "Usable article records kept toward a source quota",
		}, []string{"backend"}),
		backendFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_failures_total",
			Help:      "Extraction backend failures per source",
		}, []string{"backend"}),
		annotations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotations_total",
			Help:      "Processed articles by terminal status",
		}, []string{"status"}),
		annotationRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotation_retries_total",
			Help:      "Model calls retried after a transport failure",
		}),
		llmCallDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "Duration of individual model calls in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		logger: logger.With("component", "metrics"),
	}
}

// --- Recording ---

// ArticlesExtracted adds n records produced by a backend.
func (m *Metrics) ArticlesExtracted(backend string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.articlesExtracted.WithLabelValues(backend).Add(float64(n))
}

// ArticlesKept adds n records a backend contributed to a quota.
func (m *Metrics) ArticlesKept(backend string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.articlesKept.WithLabelValues(backend).Add(float64(n))
}

// BackendFailed records a backend failing for one source.
func (m *Metrics) BackendFailed(backend string) {
	if m == nil {
		return
	}
	m.backendFailures.WithLabelValues(backend).Inc()
}

// AnnotationFinished records the terminal status of one article.
func (m *Metrics) AnnotationFinished(status string) {
	if m == nil {
		return
	}
	m.annotations.WithLabelValues(status).Inc()
}

// AnnotationRetried records one retried model call.
func (m *Metrics) AnnotationRetried() {
	if m == nil {
		return
	}
	m.annotationRetries.Inc()
}

// ObserveLLMCall records the duration of one model call.
func (m *Metrics) ObserveLLMCall(d time.Duration) {
	if m == nil {
		return
	}
	m.llmCallDuration.Observe(d.Seconds())
}

// --- Exposition ---

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves metrics and a health check until ctx is cancelled.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return nil
}
