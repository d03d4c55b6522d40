package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"task-assistant/internal/models"
	"task-assistant/internal/nlp"
	"task-assistant/internal/services"
)

const defaultSearchLimit = 10

type getTaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Tags        []string  `json:"tags"`
	DueDate     *string   `json:"due_date"`
	DueStatus   string    `json:"due_status"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task, now time.Time) getTaskResponse {
	resp := getTaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      task.Status,
		Tags:        task.Tags,
		DueStatus:   dueStatus(task, now),
		Completed:   task.Completed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if task.DueDate != nil {
		due := task.DueDate.Format(time.DateOnly)
		resp.DueDate = &due
	}
	return resp
}

// dueStatus buckets a task by how close its due date is:
// completed, overdue, today, soon (within 3 days), upcoming, or
// no_due_date.
func dueStatus(task *models.Task, now time.Time) string {
	if task.DueDate == nil {
		return "no_due_date"
	}
	if task.Completed {
		return "completed"
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	due := time.Date(task.DueDate.Year(), task.DueDate.Month(), task.DueDate.Day(), 0, 0, 0, 0, now.Location())

	switch days := int(due.Sub(today).Hours() / 24); {
	case days < 0:
		return "overdue"
	case days == 0:
		return "today"
	case days <= 3:
		return "soon"
	default:
		return "upcoming"
	}
}

type createTaskRequest struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	DueDate     *string  `json:"due_date"`
	// Due accepts free text like "tomorrow" or "next friday" and is
	// used when due_date is absent.
	Due string `json:"due"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	now := time.Now()
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		abort(c, newBadRequestError("invalid due_date, expected YYYY-MM-DD"))
		return
	}
	if dueDate == nil && req.Due != "" {
		if due, ok := nlp.ParseDueDate(req.Due, now); ok {
			dueDate = &due
		}
	}

	priority := req.Priority
	if priority == "" && req.Due != "" {
		if p, ok := nlp.ExtractPriority(req.Due); ok {
			priority = p
		}
	}

	status := req.Status
	if status == "" && req.Due != "" {
		if s, ok := nlp.ExtractStatus(req.Due); ok {
			status = s
		}
	}

	task, err := h.tasks.Create(c, services.CreateTaskParams{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		Status:      status,
		Tags:        req.Tags,
		DueDate:     dueDate,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		switch {
		case errors.Is(err, services.ErrInvalidPriority),
			errors.Is(err, services.ErrInvalidStatus):
			abort(c, newBadRequestError(err.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	h.logger.Info().
		Str("id", task.ID).
		Msg("created task")
	c.JSON(http.StatusCreated, newGetTaskResponse(task, now))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	tasks, err := h.tasks.ListByUser(c, userID, services.TaskFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		switch {
		case errors.Is(err, services.ErrInvalidPriority),
			errors.Is(err, services.ErrInvalidStatus):
			abort(c, newBadRequestError(err.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	now := time.Now()
	response := make([]getTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newGetTaskResponse(task, now)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"tasks":   response,
		"total":   len(response),
	})
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	task, err := h.tasks.GetByID(c, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
			return
		}
		h.logger.Error().
			Err(err).
			Msg("failed to fetch task")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task, time.Now()))
}

type updateTaskRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Priority    *string  `json:"priority,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	DueDate     *string  `json:"due_date,omitempty"`
	Completed   *bool    `json:"completed,omitempty"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		abort(c, newBadRequestError("invalid due_date, expected YYYY-MM-DD"))
		return
	}

	task, err := h.tasks.Update(c, userID, c.Param("id"), services.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Tags:        req.Tags,
		DueDate:     dueDate,
		Completed:   req.Completed,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update task")
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
		case errors.Is(err, services.ErrInvalidPriority),
			errors.Is(err, services.ErrInvalidStatus):
			abort(c, newBadRequestError(err.Error()))
		default:
			abort(c, newStatusTextError(http.StatusInternalServerError))
		}
		return
	}

	h.logger.Info().
		Str("id", task.ID).
		Msg("updated task")
	c.JSON(http.StatusOK, newGetTaskResponse(task, time.Now()))
}

func (h *handlerImpl) HandleCompleteTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	task, err := h.tasks.SetCompleted(c, userID, c.Param("id"), true)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
			return
		}
		h.logger.Error().
			Err(err).
			Msg("failed to complete task")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	h.logger.Info().
		Str("id", task.ID).
		Msg("completed task")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"task":    newGetTaskResponse(task, time.Now()),
		"message": "Task completed successfully",
	})
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	err := h.tasks.Delete(c, userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
			return
		}
		h.logger.Error().
			Err(err).
			Msg("failed to delete task")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	h.logger.Info().
		Str("id", c.Param("id")).
		Msg("deleted task")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted successfully",
	})
}

type searchResultResponse struct {
	getTaskResponse
	SimilarityScore float32 `json:"similarity_score"`
}

func (h *handlerImpl) HandleSearchTasks(c *gin.Context) {
	userID, _ := getStringFromContext(c, userIDCtxKey)

	query := c.Query("q")
	if query == "" {
		abort(c, newBadRequestError(errMissingSearchQuery.Error()))
		return
	}

	k := defaultSearchLimit
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			abort(c, newBadRequestError("invalid result limit"))
			return
		}
		k = parsed
	}

	results, err := h.tasks.Search(c, userID, query, k)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to search tasks")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	now := time.Now()
	response := make([]searchResultResponse, len(results))
	for i, result := range results {
		response[i] = searchResultResponse{
			getTaskResponse: newGetTaskResponse(result.Task, now),
			SimilarityScore: result.Score,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"results": response,
		"query":   query,
		"total":   len(response),
	})
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	due, err := time.Parse(time.DateOnly, *raw)
	if err != nil {
		return nil, err
	}
	return &due, nil
}
