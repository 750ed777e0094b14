// Package server exposes the HTTP API: the search endpoint, health and
// welcome routes, and the single-page frontend bundle.
package server

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hyperdrift-io/whats-that-again/internal/ai"
	"github.com/hyperdrift-io/whats-that-again/internal/config"
	"github.com/hyperdrift-io/whats-that-again/internal/conversation"
	"github.com/hyperdrift-io/whats-that-again/internal/usage"
)

type App struct {
	cfg          config.Config
	log          *slog.Logger
	tracker      *usage.Tracker
	sessions     conversation.Store
	gateway      *ai.Gateway
	tiers        ai.Tiers
	newSessionID func() string
}

type Option func(*App)

func WithLogger(log *slog.Logger) Option {
	return func(a *App) {
		if log != nil {
			a.log = log
		}
	}
}

// WithSessionIDs replaces the UUID generator used for new sessions.
func WithSessionIDs(next func() string) Option {
	return func(a *App) {
		if next != nil {
			a.newSessionID = next
		}
	}
}

func New(cfg config.Config, tracker *usage.Tracker, sessions conversation.Store, gateway *ai.Gateway, tiers ai.Tiers, opts ...Option) *App {
	app := &App{
		cfg:          cfg,
		log:          slog.Default(),
		tracker:      tracker,
		sessions:     sessions,
		gateway:      gateway,
		tiers:        tiers,
		newSessionID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(a.requestLogger(), gin.Recovery())
	router.Use(cors.New(a.corsConfig()))

	router.GET("/", a.root)
	router.GET("/health", a.health)
	router.POST("/search", a.search)
	router.NoRoute(a.serveFrontend)

	return router
}

func (a *App) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(a.cfg.CORSAllowOrigins) == 0 || slices.Contains(a.cfg.CORSAllowOrigins, "*") {
		// Browsers reject credentials on a wildcard origin.
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = a.cfg.CORSAllowOrigins
	cfg.AllowCredentials = true
	return cfg
}

func (a *App) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		a.log.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		)
	}
}

// root serves the frontend entry document when a bundle is present and a
// welcome payload otherwise.
func (a *App) root(c *gin.Context) {
	if a.serveIndex(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to " + a.cfg.AppName,
	})
}

type sessionCounter interface {
	Len() int
}

func (a *App) health(c *gin.Context) {
	payload := gin.H{
		"status":   "ok",
		"service":  "whatsthatagain-api",
		"provider": a.cfg.AIProvider,
	}
	if counter, ok := a.sessions.(sessionCounter); ok {
		payload["sessions"] = counter.Len()
	}
	c.JSON(http.StatusOK, payload)
}

func writeError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func mustJSON(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}
