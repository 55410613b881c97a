package http

import (
	"context"
	"net/http"

	"github.com/jmehdipour/shop-notifier/internal/config"
	"github.com/jmehdipour/shop-notifier/internal/http/middleware"
	"github.com/jmehdipour/shop-notifier/internal/logger"
	"github.com/jmehdipour/shop-notifier/internal/metrics"
	"github.com/jmehdipour/shop-notifier/internal/repository"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Deps struct {
	Events     EventHandler
	Admins     AdminSource // optional, fulfillment lookups fail without it
	Settings   repository.SettingsRepository
	Dispatches repository.DispatchesRepository // optional, enables /v1/reports
	Logger     *zap.Logger
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(cfg config.Config, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(echoLevel(cfg.Log.Level))
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// shopify webhooks
	e.GET("/webhooks", notFound)
	e.POST("/webhooks",
		webhookHandler(d.Events, d.Admins, d.Logger),
		middleware.ShopifyWebhookMiddleware(cfg.Shopify.APISecret),
	)

	// admin api
	v1 := e.Group("/v1", middleware.APIKeyMiddleware(cfg.Admin.APIKey))
	v1.GET("/settings/:shop", getSettingsHandler(d.Settings, d.Logger))
	v1.PUT("/settings/:shop", putSettingsHandler(d.Settings, d.Logger))
	if d.Dispatches != nil {
		v1.GET("/reports/dispatches", listDispatchesHandler(d.Dispatches, d.Logger))
	}

	return &Server{e: e, log: d.Logger}
}

func (s *Server) Start(addr string) error {
	s.log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.e.ServeHTTP(w, r) }

func echoLevel(level string) log.Lvl {
	switch logger.ParseLevel(level) {
	case zapcore.DebugLevel:
		return log.DEBUG
	case zapcore.WarnLevel:
		return log.WARN
	case zapcore.ErrorLevel:
		return log.ERROR
	default:
		return log.INFO
	}
}
