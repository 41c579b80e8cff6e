// Package opsapi exposes the cache control plane over HTTP: statistics,
// management actions, health, and metrics. The CRUD surface of the
// application lives elsewhere; this package only serves operators.
package opsapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quillbill/backend/cache"
	"github.com/quillbill/backend/cacheops"
)

// API wires the cache operations into echo routes.
type API struct {
	svc   *cache.Service
	stats *cacheops.Stats
	bulk  *cacheops.Bulk
	log   *zap.Logger
}

// New returns an API over the given cache components.
func New(svc *cache.Service, stats *cacheops.Stats, bulk *cacheops.Bulk, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{svc: svc, stats: stats, bulk: bulk, log: log}
}

// Register mounts the control-plane routes on e.
func (a *API) Register(e *echo.Echo) {
	e.GET("/healthz", a.health)
	e.GET("/api/cache", a.getStats)
	e.POST("/api/cache", a.manage)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
		a.svc.Metrics().Registry(), promhttp.HandlerOpts{})))
}

type envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{
		Success:   true,
		Data:      data,
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
	})
}

func respondError(c echo.Context, code int, msg string) error {
	return c.JSON(code, envelope{
		Success:   false,
		Error:     msg,
		RequestID: uuid.NewString(),
		Timestamp: time.Now().UTC(),
	})
}

func (a *API) health(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": a.svc.Backend(),
	})
}

// getStats handles GET /api/cache.
func (a *API) getStats(c echo.Context) error {
	snap := a.stats.Snapshot(c.Request().Context())
	return respond(c, http.StatusOK, map[string]any{
		"cacheStats": snap,
		"message":    "cache statistics retrieved successfully",
	})
}

type manageRequest struct {
	Action string `json:"action"`
	UserID string `json:"userId"`
}

// manage handles POST /api/cache with an action of clear-user, prewarm, or
// cleanup.
func (a *API) manage(c echo.Context) error {
	var req manageRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()

	switch req.Action {
	case "clear-user":
		if req.UserID == "" {
			return respondError(c, http.StatusBadRequest, "userId is required for clear-user")
		}
		a.bulk.ClearUser(ctx, req.UserID)
		return respond(c, http.StatusOK, map[string]string{
			"message": "cache cleared for user: " + req.UserID,
		})

	case "prewarm":
		if req.UserID == "" {
			return respondError(c, http.StatusBadRequest, "userId is required for prewarm")
		}
		a.bulk.PreWarmUser(ctx, req.UserID)
		return respond(c, http.StatusOK, map[string]string{
			"message": "cache pre-warmed for user: " + req.UserID,
		})

	case "cleanup":
		removed := a.stats.CleanupExpired()
		return respond(c, http.StatusOK, map[string]any{
			"message": "expired cache keys cleaned up",
			"removed": removed,
		})

	default:
		a.log.Warn("unknown cache management action", zap.String("action", req.Action))
		return respondError(c, http.StatusBadRequest,
			"invalid action, supported actions: clear-user, prewarm, cleanup")
	}
}
