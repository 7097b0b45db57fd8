// Package web serves the public finder, quote and appointment API, the
// notification functions and the staff API.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/wheelsdeals/tireshop/internal/appointment"
	"github.com/wheelsdeals/tireshop/internal/auth"
	"github.com/wheelsdeals/tireshop/internal/notify"
	"github.com/wheelsdeals/tireshop/internal/quote"
	"github.com/wheelsdeals/tireshop/internal/tiresize"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// vehicleLister is the part of the vehicle API client the finder uses.
type vehicleLister interface {
	Makes(ctx context.Context, year string) ([]string, error)
	Models(ctx context.Context, year, makeName string) ([]string, error)
}

// Deps holds everything the router needs.
type Deps struct {
	DB           *gorm.DB
	Vehicles     vehicleLister
	Resolver     *tiresize.Resolver
	Quotes       *quote.Service
	Appointments *appointment.Service
	Functions    *notify.Service
	Auth         *auth.Manager
	// Client holds the finder draft and the last quote in a signed cookie.
	Client      sessions.Store
	CORSOrigins []string
	Now         func() time.Time
	// EventInterval is how often the staff event stream polls for new leads.
	EventInterval time.Duration
}

// Server holds the handlers' dependencies.
type Server struct {
	Deps
}

func (d *Deps) check() error {
	switch {
	case d.DB == nil:
		return errors.New("web: db is required")
	case d.Quotes == nil || d.Appointments == nil:
		return errors.New("web: quote and appointment services are required")
	case d.Functions == nil:
		return errors.New("web: notification functions are required")
	case d.Auth == nil:
		return errors.New("web: auth manager is required")
	case d.Client == nil:
		return errors.New("web: client session store is required")
	}
	return nil
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps) (*gin.Engine, error) {
	if err := deps.check(); err != nil {
		return nil, err
	}
	if deps.Resolver == nil {
		deps.Resolver = tiresize.NewResolver(nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.EventInterval <= 0 {
		deps.EventInterval = 5 * time.Second
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	s := &Server{Deps: deps}
	s.registerRoutes(router)
	return router, nil
}

// functionsCORS allows browsers on other origins to call the notification
// functions directly.
func functionsCORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			zap.L().Error("request", fields...)
		case status >= http.StatusBadRequest:
			zap.L().Warn("request", fields...)
		default:
			zap.L().Debug("request", fields...)
		}
	}
}

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	Deps
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Out          io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts.Deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("http shutdown", zap.Error(err))
		}
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Shop API running at http://localhost:%d\n", opts.Port)
	}
	zap.L().Info("http server starting", zap.Int("port", opts.Port))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}
