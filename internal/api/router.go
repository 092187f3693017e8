package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"parking-gate-backend/config"
	"parking-gate-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. loc is the facility's
// local calendar, used to decide which history days are still mutating.
func NewRouter(cfg *config.ServerConfig, loc *time.Location, handler *Handler) *gin.Engine {
	r := gin.Default()

	if loc == nil {
		loc = time.UTC
	}

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	// Only completed days are immutable; today's history still gains exits.
	caching := mw.Cache(cacheStore, cacheTTL, func(c *gin.Context) bool {
		date := c.Query("date")
		return date != "" && date < time.Now().In(loc).Format("2006-01-02")
	})

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/validate", handler.Validate)
		api.POST("/vehicle-entry", handler.VehicleEntry)
		api.POST("/vehicle-exit", handler.VehicleExit)
		api.GET("/vehicle-history", caching, handler.VehicleHistory)

		api.GET("/open", handler.GateOpen)
		api.GET("/close", handler.GateClose)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
