package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"task-assistant/internal/services"
)

// HandleGetStats returns the cheap per-status/per-priority counters
// computed in postgres, without loading the task list.
func (h *handlerImpl) HandleGetStats(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	stats, err := h.tasks.Statistics(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to fetch task statistics")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

func (h *handlerImpl) HandleGetAnalytics(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	tasks, err := h.tasks.ListByUser(c, userID, services.TaskFilter{})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks for analytics")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"analytics": h.analytics.ComprehensiveStats(tasks),
	})
}

func (h *handlerImpl) HandleGetWeeklyReport(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	tasks, err := h.tasks.ListByUser(c, userID, services.TaskFilter{})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks for weekly report")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  h.analytics.WeekReport(tasks),
	})
}
