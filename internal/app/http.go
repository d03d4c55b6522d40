package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"task-assistant/internal/analytics"
	"task-assistant/internal/config"
	v1 "task-assistant/internal/delivery/http/v1"
	"task-assistant/internal/metrics"
	"task-assistant/internal/security"
	"task-assistant/internal/services"
	"task-assistant/internal/suggest"
	"task-assistant/internal/vector"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware())
	router.Use(v1.SecurityHeaders())
	router.Use(v1.CORS(httpCfg.AllowedOrigins))
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()

	var index services.VectorIndex = vector.NoopIndex{}
	if cfg.Pinecone.APIKey != "" && cfg.Pinecone.IndexHost != "" {
		index = vector.NewPineconeClient(globalLogger, cfg.Pinecone.IndexHost, cfg.Pinecone.APIKey)
	} else {
		globalLogger.Warn().Msg("pinecone is not configured, semantic search disabled")
	}
	embedder := vector.NewHuggingFaceClient(globalLogger, cfg.HuggingFace.Model, cfg.HuggingFace.Token)

	authService := services.NewAuthService(globalLogger, globalPostgresPool, index, cfg.Session.TTL)
	sessionService := services.NewSessionService(globalLogger, globalPostgresPool)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool, embedder, index)

	go sweepExpiredSessions(sessionService)

	monitor := security.NewMonitor(globalLogger)

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleOAuth.ClientID,
		ClientSecret: cfg.GoogleOAuth.ClientSecret,
		RedirectURL:  cfg.GoogleOAuth.RedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	v1Handler := v1.New(
		globalLogger,
		authService,
		sessionService,
		taskService,
		suggest.NewEngine(),
		analytics.NewEngine(),
		monitor,
		oauthConfig,
		cfg.GoogleOAuth,
	)

	limiter := v1.NewRateLimiter(
		globalLogger,
		globalRedisClient,
		monitor,
		cfg.RateLimit.Requests,
		cfg.RateLimit.Window,
	)

	router.GET("/health", v1Handler.HandleHealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api", limiter.Middleware())

	authRouter := api.Group("/auth")
	authRouter.POST("/register", v1Handler.HandleRegister)
	authRouter.POST("/login", v1Handler.HandleLogin)
	authRouter.POST("/validate", v1Handler.HandleValidateSession)
	authRouter.GET("/google/login", v1Handler.HandleGoogleLogin)
	authRouter.GET("/google/callback", v1Handler.HandleGoogleCallback)
	authRouter.POST("/logout", v1Handler.HandleAuthMiddleware, v1Handler.HandleLogout)
	authRouter.GET("/me", v1Handler.HandleAuthMiddleware, v1Handler.HandleCurrentUser)
	authRouter.DELETE("/delete-account", v1Handler.HandleAuthMiddleware, v1Handler.HandleDeleteAccount)

	taskRouter := api.Group("/tasks", v1Handler.HandleAuthMiddleware)
	taskRouter.POST("", v1Handler.HandleCreateTask)
	taskRouter.GET("", v1Handler.HandleGetTasks)
	taskRouter.GET("/:id", v1Handler.HandleGetTask)
	taskRouter.PUT("/:id", v1Handler.HandleUpdateTask)
	taskRouter.DELETE("/:id", v1Handler.HandleDeleteTask)
	taskRouter.POST("/:id/complete", v1Handler.HandleCompleteTask)

	api.GET("/search", v1Handler.HandleAuthMiddleware, v1Handler.HandleSearchTasks)
	api.GET("/stats", v1Handler.HandleAuthMiddleware, v1Handler.HandleGetStats)
	api.GET("/analytics", v1Handler.HandleAuthMiddleware, v1Handler.HandleGetAnalytics)
	api.GET("/analytics/weekly", v1Handler.HandleAuthMiddleware, v1Handler.HandleGetWeeklyReport)
	api.GET("/suggestions", v1Handler.HandleAuthMiddleware, v1Handler.HandleGetSuggestions)
	api.GET("/suggestions/actions", v1Handler.HandleAuthMiddleware, v1Handler.HandleGetNextActions)
	api.GET("/suggestions/score", v1Handler.HandleAuthMiddleware, v1Handler.HandleGetProductivityScore)
}

// sweepExpiredSessions deletes expired sessions hourly. Sessions also
// expire lazily on access, the sweep just keeps the table small.
func sweepExpiredSessions(sessions services.SessionService) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		_, err := sessions.CleanupExpired(context.Background())
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("failed to clean up expired sessions")
		}
	}
}
