package http

import (
	"net/http"
	"time"

	"github.com/konbase/konbase/internal/store"
	"github.com/konbase/konbase/pkg/httpx"
)

// LivezHandler is the liveness probe: the process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"uptime":  time.Since(startTime).String(),
			"version": version,
		})
	}
}

type healthResponse struct {
	Status    string `json:"status"` // healthy | unhealthy
	LatencyMS int64  `json:"latency_ms,omitempty"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
}

// ReadyzHandler is the readiness probe: one trivial database round trip with
// its latency measured. Side-effect free.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		err := st.Ping(r.Context())
		latency := time.Since(began)

		res := healthResponse{
			Status:    "healthy",
			LatencyMS: latency.Milliseconds(),
			Uptime:    time.Since(startTime).String(),
			Version:   version,
		}
		code := http.StatusOK
		if err != nil {
			res.Status = "unhealthy"
			res.Error = err.Error()
			code = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, code, res)
	}
}
