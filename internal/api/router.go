package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/partnerdesk/console/docs"
	"github.com/partnerdesk/console/internal/api/handler"
	"github.com/partnerdesk/console/internal/api/middleware"
	"github.com/partnerdesk/console/internal/core/domain"
	"github.com/partnerdesk/console/internal/core/ports"
	"github.com/partnerdesk/console/internal/infrastructure/http/handlers"
	"github.com/partnerdesk/console/internal/infrastructure/session"
)

// Deps carries everything the router wires into handlers. Mongo and Redis are
// optional and only feed the readiness probe.
type Deps struct {
	Backend  ports.Backend
	Registry *session.Registry
	Signup   ports.SignupService
	Mongo    *mongo.Database
	Redis    *redis.Client
	Console  middleware.ConsoleOptions
	// Metrics receives the HTTP collectors. Nil selects the default registry.
	Metrics *prometheus.Registry
	Log     zerolog.Logger
}

// screens are the console pages gated by the route guard. Each is also
// registered with a trailing wildcard.
var screens = []string{
	"/chat", "/tasks", "/calendar", "/profile",
	"/admin", "/admin-dashboard", "/super-admin",
	"/dashboard", "/partner-dashboard", "/employee-dashboard",
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Metrics != nil {
		registerer, gatherer = d.Metrics, d.Metrics
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "console",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	consoleMW := middleware.Console(d.Registry, d.Console)
	guard := middleware.RouteGuard()
	signedIn := middleware.RequireSignedIn()

	authHandler := handler.NewAuthHandler(d.Signup, d.Log)
	brandingHandler := handler.NewBrandingHandler()
	themeHandler := handler.NewThemeHandler()
	screenHandler := handler.NewScreenHandler()
	userHandler := handler.NewUserHandler(d.Signup)
	sessionHandler := handler.NewSessionHandler(d.Registry)

	// --- Infrastructure ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Backend, d.Mongo, d.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	auth := e.Group("/auth", consoleMW)
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/check", authHandler.Check)
	auth.GET("/me", authHandler.Me)
	auth.PATCH("/user", authHandler.UpdateUser, signedIn)

	// --- API routes ---
	apiGroup := e.Group("/api", consoleMW)
	apiGroup.GET("/theme", themeHandler.Get)
	apiGroup.PUT("/theme/mode", themeHandler.SetMode)

	branding := apiGroup.Group("/branding", signedIn)
	branding.GET("", brandingHandler.Get)
	branding.PUT("", brandingHandler.Save)
	branding.POST("/reload", brandingHandler.Reload)
	branding.POST("/favicon", brandingHandler.UploadFavicon)
	branding.GET("/history", brandingHandler.History)

	apiGroup.POST("/end-users", userHandler.CreateEndUser,
		middleware.RequireTier(domain.TierPartnerAdmin, domain.TierSuperAdmin))
	apiGroup.GET("/super-admin/sessions", sessionHandler.Stats,
		middleware.RequireTier(domain.TierSuperAdmin))

	e.GET("/theme.css", themeHandler.CSS, consoleMW)

	// --- Console screens ---
	e.GET("/", screenHandler.Describe, consoleMW, guard)
	e.GET("/login", screenHandler.Describe, consoleMW, guard)
	for _, p := range screens {
		e.GET(p, screenHandler.Describe, consoleMW, guard)
		e.GET(p+"/*", screenHandler.Describe, consoleMW, guard)
	}

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics"
		},
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Error().Err(v.Error)
			} else if v.Status >= http.StatusInternalServerError {
				ev = log.Warn()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("request_id", v.RequestID).
				Int64("latency_ms", v.Latency.Milliseconds()).
				Msg("request")
			return nil
		},
	})
}
