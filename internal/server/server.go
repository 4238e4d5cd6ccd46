// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "devhabit/docs" // swagger docs
	"devhabit/internal/auth"
	"devhabit/internal/bootstrap"
	"devhabit/internal/config"
	"devhabit/internal/database"
	"devhabit/internal/middleware"
	"devhabit/internal/models"
	"devhabit/internal/repository"
	"devhabit/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	appName        = "devHabit API"
	welcomeMessage = "Welcome to the devHabit API!"
	defaultOrigins = "http://localhost:5173,http://localhost:3000"

	globalRequestsPerMinute = 100
	readinessTimeout        = 5 * time.Second
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	goalRepo       repository.GoalRepository
	libraryRepo    repository.LibraryRepository
	userService    *service.UserService
	goalService    *service.GoalService
	libraryService *service.LibraryService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config, opts bootstrap.Options) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg, opts)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("devhabit-api"),
		userRepo:       repository.NewUserRepository(db),
		goalRepo:       repository.NewGoalRepository(db),
		libraryRepo:    repository.NewLibraryRepository(db),
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL())
	s.userService = service.NewUserService(s.userRepo, tokens, cfg.BcryptCost)
	s.goalService = service.NewGoalService(s.goalRepo)
	s.libraryService = service.NewLibraryService(s.goalRepo, s.libraryRepo)

	return s, nil
}

// NewApp builds a Fiber application with the full middleware chain and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      appName,
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: s.ErrorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// ErrorHandler catches errors that escaped the handlers.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error: "Something broke!",
		Code:  models.CodeInternal,
	})
}

// SetupMiddleware installs the chain every route passes through. Tracing runs
// before the context and logging layers so both see the trace id.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New(), requestid.New())
	app.Use(middleware.TracingMiddleware(), middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New(), middleware.StructuredLogger())

	// CORS precedes the limiter so 429 answers still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "X-Trace-ID, Retry-After",
		AllowCredentials: origins != "*",
		MaxAge:           int((24 * time.Hour).Seconds()),
	}))

	// Per-process ceiling; the credential routes add Redis-backed limits on top.
	app.Use(limiter.New(limiter.Config{
		Max:        globalRequestsPerMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || c.Path() == "/health/live"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  models.CodeRateLimited,
			})
		},
	}))
}

func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Welcome)

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api/v1")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "devHabit Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Credential endpoints are throttled per address and per account.
	throttle := middleware.NewThrottle(s.redis, s.config.Env)
	users := api.Group("/users")
	users.Post("/register", throttle.Middleware(
		middleware.Limit{Name: "register_ip", Max: 5, Window: 10 * time.Minute, Key: middleware.ByIP},
		middleware.Limit{Name: "register_email", Max: 3, Window: time.Hour, Key: middleware.ByEmail},
	), s.Register)
	users.Post("/login", throttle.Middleware(
		middleware.Limit{Name: "login_ip", Max: 10, Window: 5 * time.Minute, Key: middleware.ByIP},
		middleware.Limit{Name: "login_email", Max: 5, Window: 15 * time.Minute, Key: middleware.ByEmail},
	), s.Login)
	users.Put("/update/:userId", s.UpdateUser)
	users.Delete("/delete/:userId", s.DeleteUser)
	users.Post("/logout", s.AuthRequired(), s.Logout)
	users.Post("/logoutAll", s.AuthRequired(), s.LogoutAll)

	goals := api.Group("/goals", s.AuthRequired())
	goals.Post("/", s.CreateGoal)
	goals.Get("/", s.GetGoals)
	goals.Get("/:goalId", s.GetGoal)
	goals.Put("/:goalId", s.UpdateGoal)
	goals.Delete("/:goalId", s.DeleteGoal)

	libraries := api.Group("/libraries", s.AuthRequired())
	libraries.Post("/:goalId/resources", s.AddResource)
	libraries.Get("/:goalId/resources", s.GetResources)
	libraries.Get("/:goalId/resources/:resourceId", s.GetResource)
	libraries.Put("/:goalId/resources/:resourceId", s.UpdateResource)
	libraries.Delete("/:goalId/resources/:resourceId", s.DeleteResource)
}

// Welcome handles GET /
func (s *Server) Welcome(c *fiber.Ctx) error {
	return c.SendString(welcomeMessage)
}

func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database health, and Redis health when Redis is configured.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	checks := fiber.Map{"database": checkStatus(database.Ping(ctx, s.db)), "redis": "disabled"}
	if s.redis != nil {
		checks["redis"] = checkStatus(s.redis.Ping(ctx).Err())
	}

	code, overall := fiber.StatusOK, "healthy"
	for _, v := range checks {
		if v == "unhealthy" {
			code, overall = fiber.StatusServiceUnavailable, "unhealthy"
		}
	}
	return c.Status(code).JSON(fiber.Map{"status": overall, "checks": checks, "time": time.Now()})
}

func checkStatus(err error) string {
	if err != nil {
		return "unhealthy"
	}
	return "healthy"
}

// AuthRequired resolves the bearer token to an active session. Every failure yields the
// same 401 body so callers cannot tell which check failed.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return respondUnauthorized(c)
		}

		user, err := s.userService.Authenticate(c.UserContext(), token)
		if err != nil {
			if models.StatusFor(err) != fiber.StatusUnauthorized {
				middleware.Logger.ErrorContext(c.UserContext(), "session lookup failed",
					slog.String("error", err.Error()))
			}
			return respondUnauthorized(c)
		}

		c.Locals("userID", user.ID)
		c.Locals("user", user)
		c.Locals("token", token)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || scheme != "Bearer" {
		return ""
	}
	return strings.TrimSpace(token)
}

func respondUnauthorized(c *fiber.Ctx) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized,
		models.NewUnauthorizedError("Please authenticate."))
}

// Start builds the application and listens on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown drains HTTP connections, then closes the database pool and Redis.
// Failures are logged and the remaining resources are still released.
func (s *Server) Shutdown(ctx context.Context) error {
	closers := []struct {
		name  string
		close func() error
	}{
		{"http server", func() error {
			if s.app == nil {
				return nil
			}
			return s.app.ShutdownWithContext(ctx)
		}},
		{"database", func() error {
			sqlDB, err := s.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}},
		{"redis", func() error {
			if s.redis == nil {
				return nil
			}
			return s.redis.Close()
		}},
	}
	for _, cl := range closers {
		if err := cl.close(); err != nil {
			middleware.Logger.Error("shutdown step failed", slog.String("step", cl.name), slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
