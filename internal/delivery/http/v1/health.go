package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const serviceVersion = "1.0.0"

func (h *handlerImpl) HandleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "task-assistant",
		"version":   serviceVersion,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
