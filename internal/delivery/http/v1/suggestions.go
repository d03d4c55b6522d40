package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"task-assistant/internal/services"
)

const (
	defaultSuggestionLimit = 5
	defaultActionLimit     = 5
)

func (h *handlerImpl) HandleGetSuggestions(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	tasks, err := h.tasks.ListByUser(c, userID, services.TaskFilter{})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks for suggestions")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"suggestions": h.suggest.Suggestions(tasks, defaultSuggestionLimit),
		"patterns":    h.suggest.Patterns(tasks),
	})
}

func (h *handlerImpl) HandleGetNextActions(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	tasks, err := h.tasks.ListByUser(c, userID, services.TaskFilter{})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks for next actions")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"actions": h.suggest.NextActions(tasks, defaultActionLimit),
	})
}

func (h *handlerImpl) HandleGetProductivityScore(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	tasks, err := h.tasks.ListByUser(c, userID, services.TaskFilter{})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks for productivity score")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"score":   h.suggest.ProductivityScore(tasks),
	})
}
