package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/soundshare-api/internal/cascade"
	"github.com/yukikurage/soundshare-api/internal/config"
	"github.com/yukikurage/soundshare-api/internal/constants"
	"github.com/yukikurage/soundshare-api/internal/database"
	"github.com/yukikurage/soundshare-api/internal/handlers"
	"github.com/yukikurage/soundshare-api/internal/logging"
	"github.com/yukikurage/soundshare-api/internal/metrics"
	"github.com/yukikurage/soundshare-api/internal/middleware"
	"github.com/yukikurage/soundshare-api/internal/notify"
	"github.com/yukikurage/soundshare-api/internal/repository"
	"github.com/yukikurage/soundshare-api/internal/services"
	"github.com/yukikurage/soundshare-api/internal/spam"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg, log); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(log); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	db := database.GetDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event bus: notifications and queued cascades
	bus := notify.NewBus()
	defer bus.Close()
	dispatcher := notify.NewBusDispatcher(bus, log)

	mailer := notify.NewLogMailer(log)
	go runConsumer(ctx, log, func() error {
		return notify.Consume(ctx, bus, notify.TopicUserSignup, mailer.SignupHandler, log)
	})
	go runConsumer(ctx, log, func() error {
		return notify.Consume(ctx, bus, notify.TopicUserActivated, mailer.ActivatedHandler, log)
	})

	// Spam oracle
	checker, err := spam.New(cfg.Spam)
	if err != nil {
		log.Fatalf("Failed to configure spam oracle: %v", err)
	}
	guard := spam.NewGuard(checker, cfg.Spam.FailOpen, log)

	m := metrics.New()

	// Cascade engine
	var locker cascade.Locker = cascade.NewLocalLocker()
	if cfg.Cascade.LockBackend == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to reach redis for cascade locks: %v", err)
		}
		locker = cascade.NewRedisLocker(client, cfg.Cascade.LockTTL)
	}

	resolver := cascade.NewResolver(db,
		cascade.WithLocker(locker),
		cascade.WithObserver(m),
		cascade.WithLogger(log),
		cascade.WithVerify(cfg.Cascade.Verify),
	)
	runner := services.NewCascadeRunner(resolver, cfg.Cascade.RetryAttempts, cfg.Cascade.RetryDelay, log)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	playlistRepo := repository.NewPlaylistRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	listenRepo := repository.NewListenRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, guard, dispatcher, m, log)
	moderationService := services.NewModerationService(userRepo, runner, guard, dispatcher, cfg.Cascade.Async, log)
	playlistService := services.NewPlaylistService(playlistRepo, assetRepo, runner)
	assetService := services.NewAssetService(assetRepo, userRepo, runner)
	topicService := services.NewTopicService(topicRepo, userRepo, runner)
	commentService := services.NewCommentService(commentRepo, assetRepo, topicRepo, userRepo, guard, runner)
	listenService := services.NewListenService(listenRepo, assetRepo)
	statsService := services.NewStatisticsService(userRepo, assetRepo)

	if cfg.Cascade.Async {
		go runConsumer(ctx, log, func() error {
			return moderationService.RunWorker(ctx, bus, notify.WithRedeliveryDelay(cfg.Cascade.RetryDelay))
		})
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,                        // Redis pool size
		"tcp",                     // network type
		cfg.RedisAddr(),           // Redis address from config
		"",                        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(moderationService, statsService, playlistService)
	assetHandler := handlers.NewAssetHandler(assetService, listenService)
	playlistHandler := handlers.NewPlaylistHandler(playlistService)
	topicHandler := handlers.NewTopicHandler(topicService)
	commentHandler := handlers.NewCommentHandler(commentService)
	adminHandler := handlers.NewAdminHandler(moderationService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Soundshare API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/activate/:token", authHandler.Activate)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		users := api.Group("/users")
		{
			users.GET("/:login/stats", userHandler.GetStats)
			users.DELETE("/:login", middleware.RequireAuth(), userHandler.DestroyUser)
			users.PATCH("/me/profile", middleware.RequireAuth(), userHandler.UpdateProfile)
			users.POST("/me/favorites/:asset_id", middleware.RequireAuth(), userHandler.ToggleFavorite)
		}

		assets := api.Group("/assets")
		{
			assets.GET("", middleware.OptionalAuth(), assetHandler.ListAssets)
			assets.POST("", middleware.RequireAuth(), assetHandler.CreateAsset)
			assets.DELETE("/:id", middleware.RequireAuth(), assetHandler.DeleteAsset)
			assets.POST("/:id/listens", middleware.OptionalAuth(), assetHandler.RecordListen)
		}

		playlists := api.Group("/playlists")
		{
			playlists.GET("", middleware.OptionalAuth(), playlistHandler.ListPlaylists)
			playlists.GET("/:id", middleware.OptionalAuth(), playlistHandler.GetPlaylist)
			playlists.POST("", middleware.RequireAuth(), playlistHandler.CreatePlaylist)
			playlists.DELETE("/:id", middleware.RequireAuth(), middleware.RequirePlaylistOwner(), playlistHandler.DeletePlaylist)
			playlists.POST("/:id/tracks", middleware.RequireAuth(), middleware.RequirePlaylistOwner(), playlistHandler.AddTrack)
			playlists.DELETE("/:id/tracks/:track_id", middleware.RequireAuth(), middleware.RequirePlaylistOwner(), playlistHandler.RemoveTrack)
		}

		topics := api.Group("/topics")
		topics.Use(middleware.RequireAuth())
		{
			topics.POST("", topicHandler.CreateTopic)
			topics.DELETE("/:id", topicHandler.DeleteTopic)
		}

		comments := api.Group("/comments")
		{
			comments.GET("", middleware.OptionalAuth(), commentHandler.ListComments)
			comments.POST("", middleware.OptionalAuth(), commentHandler.CreateComment)
			comments.DELETE("/:id", middleware.RequireAuth(), commentHandler.DeleteComment)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuth(), middleware.RequireModerator())
		{
			admin.GET("/users/:login", adminHandler.ShowUser)
			admin.POST("/users/:login/spam", adminHandler.FlagSpam)
		}
	}

	// Start server
	srv := &http.Server{Addr: ":8080", Handler: r}
	go func() {
		log.Info("Server starting on :8080")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}

func runConsumer(ctx context.Context, log logrus.FieldLogger, consume func() error) {
	if err := consume(); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("Event consumer stopped")
	}
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request handled")
	}
}
