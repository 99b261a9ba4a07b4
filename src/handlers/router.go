package handlers

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/username/mgscheck/src/logger"
	"github.com/username/mgscheck/src/security"
)

// NewRouter mounts the report API. Report and run routes require a bearer token;
// the whole API shares one rate limiter.
func NewRouter(h *ReportHandler, auth *security.AuthService, limiter *rate.Limiter) http.Handler {
	protect := AuthMiddleware(auth)

	apiRouter := http.NewServeMux()
	apiRouter.Handle("GET /api/reports/latest", protect(http.HandlerFunc(h.HandleGetLatestReport)))
	apiRouter.Handle("GET /api/reports/{id}", protect(http.HandlerFunc(h.HandleGetReport)))
	apiRouter.Handle("POST /api/runs", protect(http.HandlerFunc(h.HandleStartRun)))
	apiRouter.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	logger.L.Info("Report API routes configured")
	return RateLimitMiddleware(limiter)(apiRouter)
}
