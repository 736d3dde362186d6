// Package server contains the HTTP and WebSocket surface of the API.
package server

import (
	"context"
	"errors"
	"time"

	_ "threadline/docs" // swagger docs
	"threadline/internal/config"
	"threadline/internal/database"
	"threadline/internal/featureflags"
	"threadline/internal/identity"
	"threadline/internal/middleware"
	"threadline/internal/models"
	"threadline/internal/notifications"
	"threadline/internal/repository"
	"threadline/internal/service"

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

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	identity      identity.Provider
	featureFlags  *featureflags.Set
	notifier      *notifications.Notifier
	hub           *notifications.Hub
	realtimeWired bool

	threadRepo    repository.ThreadRepository
	userRepo      repository.UserRepository
	communityRepo repository.CommunityRepository

	threadService    *service.ThreadService
	userService      *service.UserService
	communityService *service.CommunityService
	feed             *service.FeedPaginator
	activity         *service.ActivityResolver
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	flags := featureflags.Parse(cfg.FeatureFlags)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("threadline-api"),
		identity:       identity.NewJWTProvider(cfg.IdentitySecret, cfg.IdentityIssuer, cfg.IdentityAudience),
		featureFlags:   flags,
		hub:            notifications.NewHub(),
		threadRepo:     repository.NewThreadRepository(db),
		userRepo:       repository.NewUserRepository(db),
		communityRepo:  repository.NewCommunityRepository(db),
	}
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
	}

	s.threadService = service.NewThreadService(s.threadRepo, s.communityRepo, cfg.FeedPageSize)
	s.userService = service.NewUserService(s.userRepo, cfg.FeedPageSize)
	s.communityService = service.NewCommunityService(s.communityRepo, s.userRepo, s.threadRepo, cfg.FeedPageSize)
	s.feed = service.NewFeedPaginator(s.threadRepo, service.FeedOptions{
		DefaultPageSize: cfg.FeedPageSize,
		UseCache:        redisClient != nil && flags.On(featureflags.FeedCache),
	})
	s.activity = service.NewActivityResolver(s.threadRepo)

	return s, nil
}

// SetIdentityProvider replaces the bearer-token provider.
func (s *Server) SetIdentityProvider(p identity.Provider) {
	s.identity = p
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health/live", s.LivenessCheck)
	api.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/api/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "Threadline Metrics"}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Use(s.ResolveViewer())

	// Threads
	threads := api.Group("/threads")
	threads.Get("/", s.GetFeed)
	threads.Post("/", s.AuthRequired(), s.OnboardedRequired(),
		middleware.RateLimit(s.redis, 10, time.Minute, "create_thread"), s.CreateThread)
	threads.Post("/:id/like", s.AuthRequired(), s.OnboardedRequired(),
		middleware.RateLimit(s.redis, 60, time.Minute, "like_thread"), s.LikeThread)
	threads.Post("/:id/comments", s.AuthRequired(), s.OnboardedRequired(),
		middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	threads.Get("/:id", s.GetThread)
	threads.Delete("/:id", s.AuthRequired(), s.OnboardedRequired(), s.DeleteThread)

	// Body-addressed actions used by the web client.
	thread := api.Group("/thread", s.AuthRequired(), s.OnboardedRequired())
	thread.Post("/like", middleware.RateLimit(s.redis, 60, time.Minute, "like_thread"), s.LikeThreadByBody)
	thread.Post("/comment", middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateCommentByBody)

	api.Get("/activity", s.AuthRequired(), s.OnboardedRequired(), s.GetMyActivity)

	// Users
	users := api.Group("/users")
	users.Get("/me", s.AuthRequired(), s.OnboardedRequired(), s.GetMyProfile)
	users.Put("/me", s.AuthRequired(), s.UpdateMyProfile)
	users.Get("/", s.SearchUsers)
	users.Get("/:id/threads", s.GetUserThreads)
	users.Get("/:id/activity", s.GetUserActivity)
	users.Get("/:id", s.GetUserProfile)

	// Communities
	communities := api.Group("/communities")
	communities.Get("/", s.SearchCommunities)
	communities.Post("/", s.AuthRequired(), s.OnboardedRequired(),
		middleware.RateLimit(s.redis, 5, 10*time.Minute, "create_community"), s.CreateCommunity)
	communities.Get("/:id/threads", s.GetCommunityThreads)
	communities.Post("/:id/members", s.AuthRequired(), s.OnboardedRequired(), s.AddCommunityMember)
	communities.Delete("/:id/members/:userId", s.AuthRequired(), s.OnboardedRequired(), s.RemoveCommunityMember)
	communities.Get("/:id", s.GetCommunity)
	communities.Put("/:id", s.AuthRequired(), s.OnboardedRequired(), s.UpdateCommunity)
	communities.Delete("/:id", s.AuthRequired(), s.OnboardedRequired(), s.DeleteCommunity)

	api.Get("/feature-flags", s.GetFeatureFlags)

	// Realtime
	api.Post("/ws/ticket", s.AuthRequired(), s.OnboardedRequired(), s.IssueWSTicket)
	api.Get("/ws", s.OnboardedRequired(), s.ActivityStream())
}

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName: "Threadline API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code := models.CodeValidation
				if fe.Code == fiber.StatusNotFound {
					code = models.CodeNotFound
				}
				return models.RespondWithError(c, fe.Code, &models.AppError{Code: code, Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// LivenessCheck handles liveness probe requests
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,time=string}
// @Router /health/live [get]
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and Redis answer.
// @Summary Readiness probe (database and Redis)
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string,checks=map[string]string,time=string}
// @Failure 503 {object} object{status=string,checks=map[string]string,time=string}
// @Router /health/ready [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status, overall := fiber.StatusOK, "healthy"
	if dbStatus != "healthy" || redisStatus != "healthy" {
		status, overall = fiber.StatusServiceUnavailable, "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires realtime delivery and listens until the app is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.notifier != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("activity wiring failed; realtime delivery is local only", "error", err)
		} else {
			s.realtimeWired = true
		}
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down activity hub", "error", err)
	}

	database.Close()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", "error", err)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
