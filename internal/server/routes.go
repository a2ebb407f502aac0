package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = JSONErrorHandler()

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key", // Look for API key in X-API-Key header
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health" // Health checks carry no key
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil // Simple string comparison
			},
		}))
	}

	// Prometheus scrape endpoint
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)                 // Health check endpoint
	v1.GET("/pools", h.Pools)                   // Configured pools
	v1.GET("/pools/:name/price", h.Price)       // Spot price
	v1.GET("/pools/:name/value", h.MarketValue) // Position value at spot
	v1.POST("/quote", h.Quote)                  // Buy/sell quote
	v1.GET("/quotes/recent", h.RecentQuotes)    // Recent served quotes
	v1.POST("/fees/effective", h.EffectiveFee)  // Effective fee rate
	v1.POST("/fees/split", h.SplitFee)          // Prize pool / treasury split

	// Fee schedule override CRUD endpoints
	scheduleGroup := v1.Group("/schedules")
	scheduleGroup.GET("", h.SchedulesList)            // List all overrides
	scheduleGroup.GET("/:pool", h.SchedulesGet)       // Get override for a pool
	scheduleGroup.PUT("/:pool", h.SchedulesPut)       // Create or replace override
	scheduleGroup.DELETE("/:pool", h.SchedulesDelete) // Remove override

	// AI endpoints with rate limiting
	aigroup := v1.Group("/ai")
	aigroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(0.2), // 1 request every 5 seconds
		Burst:     2,               // Allow burst of 2 requests
		ExpiresIn: 2 * time.Minute, // Rate limit window
	})))
	aigroup.POST("/ask", h.AIAsk) // Natural language to SQL endpoint

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
