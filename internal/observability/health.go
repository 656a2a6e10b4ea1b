package observability

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is satisfied by *sql.DB and by the in-memory store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

func HealthLiveHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func HealthReadyHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Database unreachable"))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

// NewRouter serves metrics and health probes.
func NewRouter(serviceName string, db Pinger) chi.Router {
	mux := chi.NewRouter()
	mux.Use(MetricsMiddleware(serviceName))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health/live", HealthLiveHandler)
	mux.Get("/health/ready", HealthReadyHandler(db))
	return mux
}
