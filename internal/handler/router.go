package handler

import (
	"net/http"
	"slices"
	"time"

	"navi-route-go/internal/metrics"
	"navi-route-go/internal/middleware"
	"navi-route-go/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// RouterOptions зависимости HTTP роутера
type RouterOptions struct {
	Logger      *logrus.Logger
	Navigation  *NavigationHandler
	Limiter     *ratelimit.Limiter
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	APIKey      string
	CORSOrigins []string
	Environment string
}

// NewRouter собирает gin роутер сервиса
func NewRouter(opts RouterOptions) *gin.Engine {
	if opts.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(middleware.Recovery(opts.Logger))
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	if opts.Limiter != nil {
		var rejected prometheus.Counter
		if opts.Metrics != nil {
			rejected = opts.Metrics.RateLimited
		}
		api.Use(middleware.RateLimit(opts.Limiter, rejected, opts.Logger))
	}
	opts.Navigation.RegisterRoutes(api, middleware.APIKey(opts.APIKey))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Navigation Route API Server",
			"version": Version,
			"status":  "running",
		})
	})

	return router
}

// corsConfig строит настройки CORS. Пустой список или "*" разрешает любой источник
func corsConfig(origins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.APIKeyHeader, middleware.RequestIDHeader}
	config.ExposeHeaders = []string{middleware.RequestIDHeader}
	config.MaxAge = 12 * time.Hour

	if len(origins) == 0 || slices.Contains(origins, "*") {
		config.AllowAllOrigins = true
		return config
	}

	config.AllowOrigins = origins
	config.AllowCredentials = true
	return config
}
