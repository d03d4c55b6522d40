package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"task-assistant/internal/analytics"
	"task-assistant/internal/config"
	"task-assistant/internal/security"
	"task-assistant/internal/services"
	"task-assistant/internal/suggest"
)

type Handler interface {
	HandleRegister(c *gin.Context)
	HandleLogin(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleValidateSession(c *gin.Context)
	HandleCurrentUser(c *gin.Context)
	HandleDeleteAccount(c *gin.Context)
	HandleGoogleLogin(c *gin.Context)
	HandleGoogleCallback(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleCompleteTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)
	HandleSearchTasks(c *gin.Context)

	HandleGetStats(c *gin.Context)
	HandleGetAnalytics(c *gin.Context)
	HandleGetWeeklyReport(c *gin.Context)
	HandleGetSuggestions(c *gin.Context)
	HandleGetNextActions(c *gin.Context)
	HandleGetProductivityScore(c *gin.Context)

	HandleHealthCheck(c *gin.Context)
}

type handlerImpl struct {
	logger    zerolog.Logger
	auth      services.AuthService
	sessions  services.SessionService
	tasks     services.TaskService
	suggest   *suggest.Engine
	analytics *analytics.Engine
	monitor   *security.Monitor

	oauth      *oauth2.Config
	oauthState config.GoogleOAuthConfig
}

func New(
	logger zerolog.Logger,
	authService services.AuthService,
	sessionService services.SessionService,
	taskService services.TaskService,
	suggestEngine *suggest.Engine,
	analyticsEngine *analytics.Engine,
	monitor *security.Monitor,
	oauthConfig *oauth2.Config,
	oauthState config.GoogleOAuthConfig,
) Handler {
	return &handlerImpl{
		logger:     logger,
		auth:       authService,
		sessions:   sessionService,
		tasks:      taskService,
		suggest:    suggestEngine,
		analytics:  analyticsEngine,
		monitor:    monitor,
		oauth:      oauthConfig,
		oauthState: oauthState,
	}
}
