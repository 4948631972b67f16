package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/hourbook/volunteer-api/internal/api/handler"
	"github.com/hourbook/volunteer-api/internal/api/middleware"
	"github.com/hourbook/volunteer-api/internal/core/domain"
	"github.com/hourbook/volunteer-api/internal/core/ports"
	"github.com/hourbook/volunteer-api/internal/infrastructure/http/handlers"
)

// Dependencies holds everything the router wires into handlers. Services are
// built by the caller so the router never touches a store directly.
type Dependencies struct {
	Logger      zerolog.Logger
	Auth        ports.AuthService
	Users       ports.UserService
	Submissions ports.SubmissionService
	Storage     ports.ObjectStorage
	Readiness   map[string]handlers.PingFunc
	CORSOrigins []string
	// Registry receives HTTP request metrics. Nil means the default
	// Prometheus registry, which also carries the domain counters.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: deps.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsConfig(deps.Registry)))

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(deps.Readiness, deps.Logger).Readiness)
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	users := handler.NewUserHandler(deps.Users)
	submissions := handler.NewSubmissionHandler(deps.Submissions, deps.Storage)
	guard := middleware.Auth(deps.Auth)

	// --- Users ---
	e.POST("/users", users.Create)
	e.GET("/users/me", users.Me, guard)
	e.PATCH("/users/me", users.UpdateMe, guard)

	// --- Submissions ---
	subs := e.Group("/submissions", guard)
	subs.GET("", submissions.List)
	subs.POST("", submissions.Create)
	for _, kind := range domain.SignatureKinds {
		segment := kind.RouteSegment()
		subs.GET("/:id/"+segment+"-upload-url", submissions.UploadURL(kind))
		subs.PATCH("/:id/"+segment, submissions.SaveSignature(kind))
		subs.GET("/:id/"+segment, submissions.ViewURL(kind))
	}

	return e
}

func metricsConfig(reg *prometheus.Registry) echoprometheus.MiddlewareConfig {
	cfg := echoprometheus.MiddlewareConfig{Subsystem: "volunteer"}
	if reg != nil {
		cfg.Registerer = reg
	}
	return cfg
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

// requestLogger feeds one structured line per request into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
