package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	handlers "github.com/wekeepgrowing/chronam-reader/internal/adapter/handler/http"
	"github.com/wekeepgrowing/chronam-reader/internal/config"
	"github.com/wekeepgrowing/chronam-reader/internal/middleware/auth"
	"github.com/wekeepgrowing/chronam-reader/pkg/logger"
	"go.uber.org/zap"
)

// Handlers groups the route handlers the server mounts.
type Handlers struct {
	Proxy   *handlers.ProxyHandler
	Billing *handlers.BillingHandler
	Webhook *handlers.WebhookHandler
	Auth    *handlers.AuthHandler
	Account *handlers.AccountHandler
}

// Dependencies are the collaborators the HTTP layer needs beyond handlers.
type Dependencies struct {
	Authenticator auth.Authenticator
	// Registry backs /metrics. Nil disables the HTTP metrics middleware and
	// endpoint.
	Registry *prometheus.Registry
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	server *http.Server
}

// SessionConfig derives the auth gate configuration from cfg.
func SessionConfig(cfg *config.Config, logger *zap.Logger) auth.SessionConfig {
	return auth.SessionConfig{
		Name:           cfg.Session.Name,
		LoginPath:      cfg.Auth.LoginPath,
		ProtectedPaths: cfg.Auth.ProtectedPaths,
		PublicPaths:    cfg.Auth.PublicPaths,
		MaxAge:         cfg.Session.MaxAge,
		Secure:         cfg.Service.IsProduction(),
		Logger:         logger,
	}
}

func NewServer(cfg *config.Config, log *zap.Logger, h Handlers, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	logger.WithEchoLogger(e, log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.Service.AppURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
	}))
	if deps.Registry != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "chronam_reader",
			Registerer: deps.Registry,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics" || c.Path() == "/health"
			},
		}))
	}

	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	e.Use(session.Middleware(store))

	e.Use(auth.SessionGate(SessionConfig(cfg, log), deps.Authenticator))

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
		server: &http.Server{
			Addr:              cfg.Server.HTTP.Address(),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
	s.setupRoutes(h, deps)
	return s
}

// Router exposes the echo instance, mainly for tests.
func (s *Server) Router() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.server.Addr))

	if err := s.echo.StartServer(s.server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes(h Handlers, deps Dependencies) {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})
	if deps.Registry != nil {
		s.echo.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: deps.Registry,
		}))
	}

	// Pages
	s.echo.GET("/login", h.Auth.LoginPage)
	s.echo.GET("/dashboard", h.Account.Dashboard)
	s.echo.GET("/account", h.Account.Account)

	// Session
	s.echo.POST("/auth/login", h.Auth.Login)
	s.echo.POST("/auth/logout", h.Auth.Logout)

	api := s.echo.Group("/api")
	api.GET("/chronam-proxy", h.Proxy.Fetch)
	api.POST("/checkout-sessions", h.Billing.CreateCheckoutSession)
	api.POST("/portal-links", h.Billing.CreatePortalLink)
	api.GET("/stripe/config", h.Billing.StripeConfig)

	// Verified by signature, never by session.
	api.POST("/webhooks/stripe", h.Webhook.HandleStripe)
}
