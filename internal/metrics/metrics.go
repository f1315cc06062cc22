package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_search_requests_total",
			Help: "Search API page requests by status (ok, error, cached)",
		},
		[]string{"status"},
	)

	FetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_fetch_requests_total",
			Help: "Article fetch attempts by outcome",
		},
		[]string{"domain", "outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadscout_fetch_duration_seconds",
			Help:    "Duration of article HTTP requests in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"domain"},
	)

	FetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_fetch_bytes_total",
			Help: "Bytes downloaded while fetching articles",
		},
		[]string{"domain"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_proxy_failures_total",
			Help: "Transport failures attributed to a proxy",
		},
		[]string{"proxy_url"},
	)

	ExecutivesExtracted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_executives_extracted_total",
			Help: "Executive records produced by each extraction method before dedup",
		},
		[]string{"method"},
	)

	EnrichmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_enrichments_total",
			Help: "Enrichment lookups by field and whether a value was found",
		},
		[]string{"field", "found"},
	)

	CompanyOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_company_outcomes_total",
			Help: "Companies finished per terminal state",
		},
		[]string{"outcome"},
	)
)

// RecordFetch updates the fetch metrics for one article request.
func RecordFetch(domain, outcome string, d time.Duration, bytes int) {
	FetchRequestsTotal.WithLabelValues(domain, outcome).Inc()
	if d > 0 {
		FetchDuration.WithLabelValues(domain).Observe(d.Seconds())
	}
	if bytes > 0 {
		FetchBytesTotal.WithLabelValues(domain).Add(float64(bytes))
	}
}

// RecordEnrichment counts one enrichment lookup for field ("linkedin" or "email").
func RecordEnrichment(field string, found bool) {
	f := "false"
	if found {
		f = "true"
	}
	EnrichmentsTotal.WithLabelValues(field, f).Inc()
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Start listens on port and serves /metrics in the background. Port 0 picks a
// free port; Port reports the one chosen.
func Start(port int, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("metrics: listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	return &Server{srv: srv, ln: ln}, nil
}

// Port is the TCP port the server listens on.
func (s *Server) Port() int {
	if addr, ok := s.ln.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
