package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"conference-schedule-backend/config"
	"conference-schedule-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.Default()

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	admin := r.Group("/api/admin")
	admin.Use(adminOnly(h.gate))
	{
		admin.POST("/conferences/:conference_id/schedule/generate", h.GenerateSchedule)
		admin.GET("/conferences/:conference_id/schedule", h.GetSchedule)
		admin.GET("/conferences/:conference_id/schedule/items/:item_id", h.GetItem)
		admin.PUT("/conferences/:conference_id/schedule/items/:item_id", h.UpdateItem)
		admin.POST("/conferences/:conference_id/schedule/publish", h.PublishSchedule)
		admin.POST("/notifications/final-schedule/retry", h.RetryNotifications)
	}

	public := r.Group("/api")
	public.Use(rateLimiter)
	{
		public.GET("/conferences/:conference_id/schedule", caching, h.GetPublishedSchedule)
	}

	return r
}
