package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"footfall/internal/platform/net/middleware"
)

// CommonStack returns the baseline middleware slice for the diagnostics listener
// compose with a CORS override in main when a fleet dashboard needs access
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}),

		// cross-origin (tweak config in main if needed)
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.Timeout(15 * time.Second),
	}
}
