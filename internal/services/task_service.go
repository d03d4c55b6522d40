package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"task-assistant/internal/models"
	"task-assistant/internal/vector"
)

type taskServiceImpl struct {
	logger   zerolog.Logger
	pgPool   *pgxpool.Pool
	embedder Embedder
	index    VectorIndex
}

func NewTaskService(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
	embedder Embedder,
	index VectorIndex,
) TaskService {
	return &taskServiceImpl{
		logger:   logger,
		pgPool:   pgPool,
		embedder: embedder,
		index:    index,
	}
}

func (s *taskServiceImpl) Create(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	if params.Priority == "" {
		params.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(params.Priority) {
		return nil, ErrInvalidPriority
	}
	if params.Status == "" {
		params.Status = models.StatusPending
	}
	if !models.ValidStatus(params.Status) {
		return nil, ErrInvalidStatus
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		ID:          taskUUID.String(),
		UserID:      params.UserID,
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		Status:      params.Status,
		Tags:        params.Tags,
		DueDate:     params.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   user_id,
                   title,
                   description,
                   priority,
                   status,
                   tags,
                   due_date,
                   completed,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err = s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.Tags,
		task.DueDate,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")

	s.indexTask(ctx, task)

	s.logger.Info().
		Str("task_id", task.ID).
		Str("user_id", task.UserID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetByID(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task := &models.Task{
		ID:     taskID,
		UserID: userID,
	}

	const selectTaskQuery = `
SELECT title, description, priority, status, tags, due_date, completed, created_at, updated_at
FROM tasks
WHERE id = $1 AND user_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTaskQuery,
		taskID,
		userID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Status,
		&task.Tags,
		&task.DueDate,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to select task")
		return nil, err
	}

	return task, nil
}

func (s *taskServiceImpl) ListByUser(ctx context.Context, userID string, filter TaskFilter) ([]*models.Task, error) {
	query := `
SELECT id, title, description, priority, status, tags, due_date, completed, created_at, updated_at
FROM tasks
WHERE user_id = $1
`
	args := []any{userID}

	if filter.Status != "" {
		if !models.ValidStatus(filter.Status) {
			return nil, ErrInvalidStatus
		}
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Priority != "" {
		if !models.ValidPriority(filter.Priority) {
			return nil, ErrInvalidPriority
		}
		args = append(args, filter.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pgPool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{UserID: userID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Priority,
			&task.Status,
			&task.Tags,
			&task.DueDate,
			&task.Completed,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("user_id", userID).
		Msg("selected tasks")
	return tasks, nil
}

func (s *taskServiceImpl) Update(ctx context.Context, userID, taskID string, upd TaskUpdate) (*models.Task, error) {
	task, err := s.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	reindex := false
	if upd.Title != nil {
		task.Title = *upd.Title
		reindex = true
	}
	if upd.Description != nil {
		task.Description = *upd.Description
		reindex = true
	}
	if upd.Priority != nil {
		if !models.ValidPriority(*upd.Priority) {
			return nil, ErrInvalidPriority
		}
		task.Priority = *upd.Priority
	}
	if upd.Status != nil {
		if !models.ValidStatus(*upd.Status) {
			return nil, ErrInvalidStatus
		}
		task.Status = *upd.Status
		task.Completed = *upd.Status == models.StatusCompleted
	}
	if upd.Tags != nil {
		task.Tags = upd.Tags
		reindex = true
	}
	if upd.DueDate != nil {
		task.DueDate = upd.DueDate
	}
	if upd.Completed != nil {
		task.Completed = *upd.Completed
		if task.Completed {
			task.Status = models.StatusCompleted
		}
	}
	task.UpdatedAt = time.Now()

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    priority = $3,
    status = $4,
    tags = $5,
    due_date = $6,
    completed = $7,
    updated_at = $8
WHERE id = $9 AND user_id = $10
`
	_, err = s.pgPool.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.Tags,
		task.DueDate,
		task.Completed,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	if reindex {
		s.indexTask(ctx, task)
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) SetCompleted(ctx context.Context, userID, taskID string, completed bool) (*models.Task, error) {
	task := &models.Task{
		ID:        taskID,
		UserID:    userID,
		Completed: completed,
		UpdatedAt: time.Now(),
	}
	if completed {
		task.Status = models.StatusCompleted
	} else {
		task.Status = models.StatusPending
	}

	const completeTaskQuery = `
UPDATE tasks
SET completed = $1,
    status = $2,
    updated_at = $3
WHERE id = $4 AND user_id = $5
RETURNING title, description, priority, tags, due_date, created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		completeTaskQuery,
		task.Completed,
		task.Status,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	).Scan(
		&task.Title,
		&task.Description,
		&task.Priority,
		&task.Tags,
		&task.DueDate,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to complete task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Bool("completed", completed).
		Msg("set task completion")
	return task, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, userID, taskID string) error {
	const deleteTaskQuery = `
DELETE FROM tasks WHERE id = $1 AND user_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTaskQuery,
		taskID,
		userID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete task")
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	err = s.index.Delete(ctx, userID, []string{taskID})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to delete vector")
	}

	s.logger.Info().
		Str("task_id", taskID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) Search(ctx context.Context, userID, query string, k int) ([]SearchResult, error) {
	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to embed search query")
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, nil
	}

	matches, err := s.index.Query(ctx, userID, embeddings[0], k)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to query vector index")
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	const selectTasksByIDsQuery = `
SELECT id, title, description, priority, status, tags, due_date, completed, created_at, updated_at
FROM tasks
WHERE user_id = $1 AND id = ANY ($2)
`
	rows, err := s.pgPool.Query(ctx, selectTasksByIDsQuery, userID, ids)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select matched tasks")
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.Task, len(matches))
	for rows.Next() {
		task := &models.Task{UserID: userID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Priority,
			&task.Status,
			&task.Tags,
			&task.DueDate,
			&task.Completed,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		byID[task.ID] = task
	}
	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	// Preserve index ordering; drop matches whose rows are gone
	// (vector deletes lag behind task deletes at worst).
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		task, ok := byID[m.ID]
		if !ok {
			continue
		}
		results = append(results, SearchResult{Task: task, Score: m.Score})
	}

	s.logger.Debug().
		Int("count", len(results)).
		Str("user_id", userID).
		Msg("searched tasks")
	return results, nil
}

func (s *taskServiceImpl) Statistics(ctx context.Context, userID string) (*TaskStatistics, error) {
	const selectStatsQuery = `
SELECT status, priority
FROM tasks
WHERE user_id = $1
`
	rows, err := s.pgPool.Query(ctx, selectStatsQuery, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select task stats")
		return nil, err
	}
	defer rows.Close()

	stats := &TaskStatistics{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
	}
	for rows.Next() {
		var status, priority string
		err = rows.Scan(&status, &priority)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task stats")
			return nil, err
		}
		stats.TotalTasks++
		stats.ByStatus[status]++
		stats.ByPriority[priority]++
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	return stats, nil
}

// indexTask upserts the task embedding into the user's namespace.
// Index failures are logged and swallowed so a Pinecone outage never
// fails task CRUD, it only degrades search.
func (s *taskServiceImpl) indexTask(ctx context.Context, task *models.Task) {
	embeddings, err := s.embedder.Embed(ctx, []string{embeddingText(task)})
	if err != nil || len(embeddings) == 0 {
		s.logger.Warn().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to embed task")
		return
	}

	err = s.index.Upsert(ctx, task.UserID, []vector.Vector{{
		ID:     task.ID,
		Values: embeddings[0],
		Metadata: map[string]any{
			"task_id":  task.ID,
			"user_id":  task.UserID,
			"title":    task.Title,
			"priority": task.Priority,
		},
	}})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to upsert vector")
	}
}

func embeddingText(task *models.Task) string {
	return strings.TrimSpace(task.Title + " " + task.Description + " " + strings.Join(task.Tags, " "))
}
