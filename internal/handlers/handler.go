package handlers

import (
	"time"

	"sensornode/internal/logger"
	"sensornode/internal/models"
	"sensornode/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// PatternFeed streams indicator patterns to websocket clients.
type PatternFeed interface {
	Subscribe() (<-chan models.IndicatorPattern, func())
}

// Options tunes the debug console middleware. Zero values pick defaults.
type Options struct {
	RateLimitPerSec float64
	RateBurst       int
	CacheTTL        time.Duration
}

const (
	defaultRateLimit = 10
	defaultRateBurst = 5
	defaultCacheTTL  = 2 * time.Second
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	feed     PatternFeed
	log      *logger.Logger
	opts     Options
	cache    *cache.Cache
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, feed PatternFeed, log *logger.Logger, opts Options) *Handler {
	if opts.RateLimitPerSec <= 0 {
		opts.RateLimitPerSec = defaultRateLimit
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = defaultRateBurst
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	return &Handler{
		services: services,
		feed:     feed,
		log:      log,
		opts:     opts,
		cache:    cache.New(opts.CacheTTL, 2*opts.CacheTTL),
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Indicator stream (HTTP upgrade), same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth", rateLimiter(rate.Limit(h.opts.RateLimitPerSec), h.opts.RateBurst))
	{
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1",
		rateLimiter(rate.Limit(h.opts.RateLimitPerSec), h.opts.RateBurst),
		h.operatorMiddleware,
	)
	{
		h.registerDeviceRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	device := api.Group("/device")
	{
		device.GET("/state", h.getState)
		device.GET("/events", responseCache(h.cache, h.opts.CacheTTL), h.getEvents)
		device.POST("/hold", h.holdStartup)
		device.POST("/release", h.releaseStartup)
	}
}
