package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/dirmesh-go/internal/infra/ratelimit"
	"github.com/yndnr/dirmesh-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Directory answers the read-only routes.
	Directory handler.Directory

	// Metrics serves /metrics. Nil disables the route.
	Metrics http.Handler

	// Logger for access logging.
	Logger *slog.Logger

	// RateLimit is the per-IP request rate (requests/second). Zero disables it.
	RateLimit float64

	// RateBurst is the per-IP burst size.
	RateBurst int
}

// NewRouter builds the admin handler with its middleware chain.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	h := handler.New(cfg.Directory, cfg.Metrics, log)
	limiter := ratelimit.New(cfg.RateLimit, cfg.RateBurst, 0)

	return Chain(h,
		Recover(log),
		RequestID(),
		RateLimit(limiter),
		AccessLog(log),
	)
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RateLimit: 100,
		RateBurst: 50,
	}
}
