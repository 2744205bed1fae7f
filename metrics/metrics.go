// Package metrics runs the Prometheus scrape endpoint on its own listener,
// separate from the service API. Individual packages register their metrics
// as promauto package variables and this server exposes all of them.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves the default Prometheus registry at /metrics.
type MetricsServer struct {
	name string
	srv  *http.Server
}

// New creates a metrics server for the given listen address. The name
// identifies the service in errors and on the root path.
func New(name, addr string) (*MetricsServer, error) {
	m := &MetricsServer{name: name}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "%s metrics\n", m.name)
	})

	m.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return m, nil
}

// ListenAndServe blocks serving the metrics endpoint until Shutdown.
func (m *MetricsServer) ListenAndServe() error {
	if err := m.srv.ListenAndServe(); err != nil {
		return fmt.Errorf("%s metrics server: %w", m.name, err)
	}
	return nil
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
