// Package server wires the HTTP routes, HTML pages, JSON API and websocket
// endpoint on top of the services.
package server

import (
	"context"
	"errors"
	"time"

	_ "socialblog/docs" // swagger docs
	"socialblog/internal/bootstrap"
	"socialblog/internal/config"
	"socialblog/internal/featureflags"
	"socialblog/internal/middleware"
	"socialblog/internal/notifications"
	"socialblog/internal/repository"
	"socialblog/internal/service"
	"socialblog/internal/views"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
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
	loginPath         = "/login"
	defaultSessionTTL = 14 * 24 * time.Hour
	blacklistPrefix   = "blacklist:"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *middleware.SessionAuth
	sessionTTL     time.Duration
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	friendRepo  repository.FriendRepository

	notifier     *notifications.Notifier
	hub          *notifications.Hub
	featureFlags *featureflags.Manager

	postService    *service.PostService
	commentService *service.CommentService
	userService    *service.UserService
	friendService  *service.FriendService
	avatarService  *service.AvatarService
}

// NewServer connects the database and Redis described by cfg and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, rdb, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedPreset: cfg.SeedPreset})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, rdb)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limiting, logout revocation and
// cross-process notifications are then disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}

	ttl := defaultSessionTTL
	if cfg.SessionTTLHours > 0 {
		ttl = time.Duration(cfg.SessionTTLHours) * time.Hour
	}

	shutdownCtx, shutdownFn := context.WithCancel(context.Background())
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("socialblog"),
		sessionTTL:     ttl,
		shutdownCtx:    shutdownCtx,
		shutdownFn:     shutdownFn,
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		friendRepo:     repository.NewFriendRepository(db),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	s.sessions = middleware.NewSessionAuth(cfg.JWTSecret, s.isTokenRevoked)

	s.avatarService = service.NewAvatarService(cfg)
	s.postService = service.NewPostService(s.postRepo, s.userRepo)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)
	s.userService = service.NewUserService(s.userRepo, repository.NewProfileRepository(db), s.avatarService)
	s.friendService = service.NewFriendService(s.friendRepo, s.userRepo)

	return s, nil
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "socialblog",
		Views:        views.Engine(),
		ViewsLayout:  views.Layout,
		ErrorHandler: s.ErrorHandler,
		BodyLimit:    int(s.maxUploadBytes()) + 1<<20,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start wires realtime delivery and serves on the configured port until the
// listener fails.
func (s *Server) Start(app *fiber.App) error {
	if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
		middleware.Logger.Warn("realtime notifications limited to this process", "error", err)
	}
	port := s.config.Port
	if port == "" {
		port = "8375"
	}
	middleware.Logger.Info("listening", "port", port, "env", s.config.Env)
	return app.Listen(":" + port)
}

// Shutdown closes websocket clients and stops background subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()
	return s.hub.Shutdown(ctx)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:8375,http://127.0.0.1:8375"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	}))

	app.Use(encryptcookie.New(encryptcookie.Config{
		Key: s.cookieKey(),
	}))
	app.Use(s.sessions.Load())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Use("/static", filesystem.New(filesystem.Config{Root: views.Static()}))
	app.Static("/media", s.avatarService.MediaRoot(), fiber.Static{MaxAge: 3600})

	s.setupPageRoutes(app)
	s.setupAPIRoutes(app)
}

func (s *Server) setupPageRoutes(app *fiber.App) {
	login := middleware.RequireLogin(loginPath)

	app.Get("/login", s.LoginPage)
	app.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout", s.Logout)
	app.Get("/register", s.RegisterPage)
	app.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	app.Get("/search", s.Search)

	app.Get("/", login, s.Feed)
	app.Get("/user/:username", login, s.UserPosts)

	// Specific /post/:id/* routes before the generic detail route.
	app.Get("/post/new", login, s.PostCreatePage)
	app.Post("/post/new", login, middleware.RateLimit(s.redis, 10, time.Minute, "create_post"), s.PostCreate)
	app.Get("/post/:id/update", login, s.PostUpdatePage)
	app.Post("/post/:id/update", login, s.PostUpdate)
	app.Get("/post/:id/delete", login, s.PostDeletePage)
	app.Post("/post/:id/delete", login, s.PostDelete)
	app.Get("/post/:id/comment/new", login, s.CommentCreatePage)
	app.Post("/post/:id/comment/new", login, middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CommentCreate)
	app.Get("/post/:id", s.PostDetail)

	app.Get("/comment/:id/update", login, s.CommentUpdatePage)
	app.Post("/comment/:id/update", login, s.CommentUpdate)
	app.Get("/comment/:id/delete", login, s.CommentDeletePage)
	app.Post("/comment/:id/delete", login, s.CommentDelete)

	app.Get("/profile/:id", login, s.ProfilePage)
	app.Post("/profile/:id", login, middleware.RateLimit(s.redis, 30, time.Minute, "profile"), s.ProfileSubmit)
}

func (s *Server) setupAPIRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Post("/auth/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "api_login"), s.APILogin)
	api.Get("/users/search", s.APISearchUsers)
	api.Get("/posts/:id", s.APIGetPost)

	protected := api.Group("", middleware.RequireAPIAuth())
	protected.Get("/posts", s.APIListPosts)
	protected.Get("/users/:id/friends", s.APIGetFriends)
	protected.Get("/ws", s.WebsocketUpgrade, s.WebsocketHandler())
	protected.Get("/metrics/dashboard", s.AdminRequired(), monitor.New(monitor.Config{
		Title: "socialblog metrics",
	}))
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so
// only a failing database makes the service unready.
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

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	} else if redisStatus != "healthy" {
		overall = "degraded"
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

// AdminRequired rejects non-admin users with 403. It must run after the
// session is loaded.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := middleware.CurrentUserID(c)
		user, err := s.userService.GetUserByID(c.UserContext(), userID)
		if err != nil {
			return err
		}
		if !user.IsAdmin {
			return fiber.NewError(fiber.StatusForbidden, "Admin access required")
		}
		return c.Next()
	}
}

func (s *Server) isTokenRevoked(ctx context.Context, jti string) bool {
	if s.redis == nil {
		return false
	}
	n, err := s.redis.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "revocation check failed", "error", err)
		return false
	}
	return n > 0
}

func (s *Server) cookieKey() string {
	if s.config.CookieKey != "" {
		return s.config.CookieKey
	}
	// Sessions do not survive a restart without a configured key.
	return encryptcookie.GenerateKey()
}

func (s *Server) maxUploadBytes() int64 {
	if s.config.MaxAvatarBytes > 0 {
		return s.config.MaxAvatarBytes
	}
	return service.DefaultMaxAvatarBytes
}
