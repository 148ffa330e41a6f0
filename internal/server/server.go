// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hearth/internal/cache"
	"hearth/internal/config"
	"hearth/internal/middleware"
	"hearth/internal/models"
	"hearth/internal/notifications"
	"hearth/internal/repository"
	"hearth/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	workers        *errgroup.Group

	verifier   *middleware.TokenVerifier
	userRepo   repository.UserRepository
	friendRepo repository.FriendRepository
	chatRepo   repository.ChatRepository

	notifier   *notifications.Notifier
	dispatcher *notifications.Dispatcher
	presence   *notifications.Presence
	hub        *notifications.Hub
	hubs       []wireableHub

	friendService *service.FriendService
	chatService   *service.ChatService
}

// NewServer creates a new server instance, connecting to Redis from cfg.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	redisClient, err := cache.InitRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewServerWithDeps(cfg, redisClient)
}

// NewServerWithDeps creates a Server using an already-initialized Redis client.
// Use this in tests or when a bootstrap layer establishes the connection.
func NewServerWithDeps(cfg *config.Config, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if redisClient == nil {
		return nil, errors.New("redis client is required")
	}

	storeOpts := repository.StoreOptions{
		Timeout:    cfg.StoreTimeout(),
		MaxRetries: cfg.TxMaxRetries,
	}

	server := &Server{
		config:         cfg,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("hearth-api"),
		verifier:       middleware.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		userRepo:       repository.NewUserRepository(redisClient, storeOpts),
		friendRepo:     repository.NewFriendRepository(redisClient, storeOpts),
		chatRepo:       repository.NewChatRepository(redisClient, storeOpts),
	}

	server.notifier = notifications.NewNotifier(redisClient)
	server.dispatcher = notifications.NewDispatcher(server.notifier, notifications.DispatcherConfig{
		QueueSize:      cfg.EventQueueSize,
		PublishTimeout: cfg.PublishTimeout(),
	})
	server.presence = notifications.NewPresence(redisClient, notifications.PresenceConfig{})
	server.hub = notifications.NewHub(
		notifications.WithBufferSize(cfg.SessionBuffer),
		notifications.WithPresence(server.presence),
	)
	server.hubs = []wireableHub{server.hub}

	server.friendService = service.NewFriendService(server.friendRepo, server.userRepo, server.dispatcher, server.presence)
	server.chatService = service.NewChatService(server.chatRepo, server.friendService, server.dispatcher,
		service.WithMaxMessageLength(cfg.MaxMessageLength))

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
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
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	// Websocket routes authenticate per route so the ticket endpoint can use a bearer token.
	ws := api.Group("/ws")
	ws.Post("/ticket", s.AuthRequired(), s.IssueWSTicket)
	ws.Get("/", s.AuthRequired(), s.WebsocketHandler())

	protected := api.Group("", s.AuthRequired())

	// Friend routes
	friends := protected.Group("/friends")
	friends.Get("/", s.GetFriends)
	// Specific /requests routes before generic /:userId
	friends.Post("/requests/:userId", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "friend_request"), s.SendFriendRequest)
	friends.Get("/requests", s.GetPendingRequests)
	friends.Get("/requests/sent", s.GetSentRequests)
	friends.Post("/requests/:userId/accept", s.AcceptFriendRequest)
	friends.Post("/requests/:userId/deny", s.DenyFriendRequest)
	friends.Delete("/requests/:userId", s.CancelFriendRequest)
	friends.Get("/status/:userId", s.GetFriendshipStatus)
	// Generic /:userId route must be last
	friends.Delete("/:userId", s.RemoveFriend)

	// Chat routes
	chats := protected.Group("/chats")
	chats.Get("/with/:userId", s.GetConversationWith)
	chats.Get("/:chatId/messages", s.GetMessages)
	chats.Post("/:chatId/messages", middleware.RateLimit(
		s.redis, 30, time.Minute, "send_message"), s.SendMessage)
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Hearth API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// StartWorkers runs the event dispatcher and wires every hub to Redis
// pub/sub. It returns once the subscriptions are confirmed.
func (s *Server) StartWorkers(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.dispatcher.Run(gctx) })
	s.workers = g

	for _, h := range s.hubs {
		if err := h.StartWiring(gctx, s.notifier); err != nil {
			cancel()
			return fmt.Errorf("failed to start %s wiring: %w", h.Name(), err)
		}
	}
	return nil
}

// Start starts the server and blocks until the listener stops.
func (s *Server) Start() error {
	app := s.NewApp()
	if err := s.StartWorkers(context.Background()); err != nil {
		return err
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop the dispatcher and wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close WebSocket sessions gracefully
	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub",
				slog.String("hub", h.Name()), slog.String("error", err.Error()))
		}
	}

	if s.workers != nil {
		if err := s.workers.Wait(); err != nil {
			middleware.Logger.Error("worker exited with error", slog.String("error", err.Error()))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	redisStatus := "healthy"
	if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unhealthy"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws")

		// 1. Try WebSocket ticket first (short-lived, single-use)
		if ticket := c.Query("ticket"); ticket != "" {
			userID, err := s.redeemWSTicket(c.UserContext(), ticket)
			if err == nil {
				return s.authenticated(c, userID)
			}
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. Fall back to JWT (Bearer token or query param)
		tokenString := ""
		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Reject token in query param for WS routes (must use ticket)
		if tokenString == "" && !isWSPath {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, err := s.verifier.Verify(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return s.authenticated(c, userID)
	}
}

func (s *Server) authenticated(c *fiber.Ctx, userID string) error {
	c.Locals("userID", userID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
	return c.Next()
}
