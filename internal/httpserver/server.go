package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/PratikDhanave/analytics-workspace/internal/auth"
	"github.com/PratikDhanave/analytics-workspace/internal/cache"
	"github.com/PratikDhanave/analytics-workspace/internal/config"
	"github.com/PratikDhanave/analytics-workspace/internal/handlers"
	"github.com/PratikDhanave/analytics-workspace/internal/ratelimit"
	"github.com/PratikDhanave/analytics-workspace/internal/store"
)

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps are the collaborators behind the routes.
type Deps struct {
	Store   store.Store
	Queries *cache.Service
	Limiter *ratelimit.Limiter
	Log     logrus.FieldLogger
	// Ready lists extra dependencies checked by /ready besides Store.
	Ready map[string]Pinger
	Now   func() time.Time
}

// NewRouter wires public endpoints and authenticated APIs.
// Public: /health, /ready, /debug/metrics
// Authenticated: /events, /query/*, /metrics/count, /sample-data
func NewRouter(cfg config.Config, d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(d.Log))

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms storage (and Redis when configured) is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "dependency": "storage", "error": err.Error()})
			return
		}
		for name, p := range d.Ready {
			if err := p.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "dependency": name, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/debug/metrics", gin.WrapH(promhttp.Handler()))

	// Auth group enforces tenant context via X-API-Key.
	authGroup := r.Group("/")
	authGroup.Use(auth.APIKeyMiddleware(cfg.APIKeys))

	handlers.RegisterEventRoutes(authGroup, d.Store, d.Limiter, d.Log)
	handlers.RegisterQueryRoutes(authGroup, d.Queries, d.Log)
	handlers.RegisterMetricRoutes(authGroup, d.Queries, d.Log)
	handlers.RegisterSampleDataRoutes(authGroup, d.Store, d.Queries, d.Now, d.Log)

	return r
}
