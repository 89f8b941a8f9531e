package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/medatlas/medatlas/core"
	"github.com/medatlas/medatlas/core/favorite"
	"github.com/medatlas/medatlas/core/payment"
	"github.com/medatlas/medatlas/core/place"
	"github.com/medatlas/medatlas/core/review"
	"github.com/medatlas/medatlas/core/schoollist"
	"github.com/medatlas/medatlas/core/user"
	metricsvc "github.com/medatlas/medatlas/services/metrics"
)

type (
	Deps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		Metrics        *metricsvc.Metrics
		DisableReqLogs bool

		// StatusCheck reports the health of the storage; nil means always healthy.
		StatusCheck func(ctx context.Context) error

		UserSvc       *user.Service
		PlaceSvc      *place.Service
		SchoolListSvc *schoollist.Service
		ReviewSvc     *review.Service
		FavoriteSvc   *favorite.Service
		PaymentSvc    *payment.Service
	}

	Server struct {
		deps     Deps
		app      *echo.Echo
		tokens   *tokenIssuer
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps Deps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		tokens:   newTokenIssuer(deps.Conf),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if s.deps.Metrics != nil {
		s.app.Use(metricsMiddleware(s.deps.Metrics))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/health", s.health)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	g := s.app.Group("")
	jwt := middleware.JWTWithConfig(s.tokens.jwtConfig())
	optionalJWT := middleware.JWTWithConfig(s.tokens.optionalJWTConfig())

	registerUserAPI(g, jwt, s.tokens, s.deps)
	registerPlaceAPI(g, jwt, s.deps)
	registerReviewAPI(g, jwt, optionalJWT, s.deps)
	registerSchoolListAPI(g, jwt, s.deps)
	registerFavoriteAPI(g, jwt, s.deps)
	registerPaymentAPI(g, jwt, s.deps)
}

// Start listens on the configured address; a listener failure is sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the process to shut down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// GenerateToken returns a signed token for usr.
func (s *Server) GenerateToken(usr user.User) (string, error) {
	return s.tokens.generate(s.tokens.claims(usr))
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to MedAtlas API!")
}

func (s *Server) health(ctx echo.Context) error {
	status := echo.Map{"status": "ok", "build": s.deps.Conf.Build}
	if s.deps.StatusCheck != nil {
		if err := s.deps.StatusCheck(ctx.Request().Context()); err != nil {
			s.deps.Logger.Warn("health check failed", err)
			status["status"] = "db not ready"
			return ctx.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: status, Error: "db not ready"})
		}
	}
	return ok(ctx, status)
}
