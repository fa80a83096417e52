package cli

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/readlater/internal/metrics"
)

// StatusSource reports the state shown by /healthz.
type StatusSource interface {
	Seq() int64
	Path() string
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Seq    int64  `json:"seq"`
	Store  string `json:"store"`
}

// newStatusRouter serves /metrics and /healthz for the watch command.
func newStatusRouter(src StatusSource, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status: "ok",
			Seq:    src.Seq(),
			Store:  src.Path(),
		})
	})
	r.Handle("/metrics", metrics.Handler(gatherer))

	return r
}
