package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"task-assistant/internal/analytics"
	"task-assistant/internal/config"
	"task-assistant/internal/models"
	"task-assistant/internal/security"
	"task-assistant/internal/services"
	"task-assistant/internal/suggest"
)

var testNow = time.Date(2026, time.August, 26, 12, 0, 0, 0, time.UTC)

// fakeAuthService implements services.AuthService with canned
// responses per test.
type fakeAuthService struct {
	loginResult *services.LoginResult
	loginErr    error
	loggedOut   []string
	deleted     []string
}

func (f *fakeAuthService) Register(context.Context, services.RegisterParams) (*services.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuthService) Login(context.Context, services.LoginParams) (*services.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuthService) LoginWithGoogle(context.Context, services.GoogleLoginParams) (*services.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeAuthService) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAuthService) DeleteAccount(_ context.Context, userID string) error {
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeSessionService struct {
	user *models.User
	err  error
}

func (f *fakeSessionService) GetUserBySession(context.Context, string) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeSessionService) CleanupExpired(context.Context) (int64, error) {
	return 0, nil
}

type fakeTaskService struct {
	tasks     []*models.Task
	task      *models.Task
	results   []services.SearchResult
	stats     *services.TaskStatistics
	err       error
	completed []string
	created   []services.CreateTaskParams
}

func (f *fakeTaskService) Create(_ context.Context, params services.CreateTaskParams) (*models.Task, error) {
	f.created = append(f.created, params)
	return f.task, f.err
}

func (f *fakeTaskService) GetByID(context.Context, string, string) (*models.Task, error) {
	return f.task, f.err
}

func (f *fakeTaskService) ListByUser(context.Context, string, services.TaskFilter) ([]*models.Task, error) {
	return f.tasks, f.err
}

func (f *fakeTaskService) Update(context.Context, string, string, services.TaskUpdate) (*models.Task, error) {
	return f.task, f.err
}

func (f *fakeTaskService) SetCompleted(_ context.Context, _ string, taskID string, _ bool) (*models.Task, error) {
	f.completed = append(f.completed, taskID)
	return f.task, f.err
}

func (f *fakeTaskService) Delete(context.Context, string, string) error {
	return f.err
}

func (f *fakeTaskService) Search(context.Context, string, string, int) ([]services.SearchResult, error) {
	return f.results, f.err
}

func (f *fakeTaskService) Statistics(context.Context, string) (*services.TaskStatistics, error) {
	return f.stats, f.err
}

func newTestHandler(auth *fakeAuthService, sessions *fakeSessionService, tasks *fakeTaskService) Handler {
	gin.SetMode(gin.TestMode)
	return New(
		zerolog.Nop(),
		auth,
		sessions,
		tasks,
		suggest.NewEngineAt(func() time.Time { return testNow }),
		analytics.NewEngineAt(func() time.Time { return testNow }),
		security.NewMonitor(zerolog.Nop()),
		&oauth2.Config{},
		config.GoogleOAuthConfig{StateKey: "test-key", StateTTL: time.Minute},
	)
}

func testUser() *models.User {
	return &models.User{
		ID:        "user-1",
		Username:  "alice",
		Email:     "alice@example.com",
		IsActive:  true,
		CreatedAt: testNow,
	}
}

func testTask() *models.Task {
	return &models.Task{
		ID:        "task-1",
		UserID:    "user-1",
		Title:     "walk the dog",
		Priority:  models.PriorityMedium,
		Status:    models.StatusPending,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func performRequest(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestAuthMiddlewareWithoutToken(t *testing.T) {
	handler := newTestHandler(&fakeAuthService{}, &fakeSessionService{}, &fakeTaskService{})

	router := gin.New()
	router.GET("/protected", handler.HandleAuthMiddleware, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := performRequest(router, http.MethodGet, "/protected", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["success"] != false {
		t.Errorf("expected success false, got %v", body["success"])
	}
}

func TestAuthMiddlewareWithBearerToken(t *testing.T) {
	sessions := &fakeSessionService{user: testUser()}
	handler := newTestHandler(&fakeAuthService{}, sessions, &fakeTaskService{})

	router := gin.New()
	router.GET("/protected", handler.HandleAuthMiddleware, func(c *gin.Context) {
		userID, _ := getStringFromContext(c, userIDCtxKey)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	w := performRequest(router, http.MethodGet, "/protected", nil, map[string]string{
		"Authorization": "Bearer some-token",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["user_id"] != "user-1" {
		t.Errorf("expected user-1 in context, got %v", body["user_id"])
	}
}

func TestAuthMiddlewareExpiredSession(t *testing.T) {
	sessions := &fakeSessionService{err: services.ErrSessionExpired}
	handler := newTestHandler(&fakeAuthService{}, sessions, &fakeTaskService{})

	router := gin.New()
	router.GET("/protected", handler.HandleAuthMiddleware, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := performRequest(router, http.MethodGet, "/protected", nil, map[string]string{
		"Authorization": "Bearer stale-token",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestHandleLoginSuccess(t *testing.T) {
	auth := &fakeAuthService{
		loginResult: &services.LoginResult{
			User:      *testUser(),
			Token:     "session-token",
			ExpiresAt: testNow.Add(time.Hour),
		},
	}
	handler := newTestHandler(auth, &fakeSessionService{}, &fakeTaskService{})

	router := gin.New()
	router.POST("/login", handler.HandleLogin)

	w := performRequest(router, http.MethodPost, "/login", gin.H{
		"username": "alice",
		"password": "secret123",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["success"] != true {
		t.Errorf("expected success true, got %v", body["success"])
	}
	if body["session_id"] != "session-token" {
		t.Errorf("expected session token in response, got %v", body["session_id"])
	}

	cookies := w.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == sessionCookie && cookie.Value == "session-token" {
			found = true
		}
	}
	if !found {
		t.Error("expected session_id cookie to be set")
	}
}

func TestHandleLoginInvalidCredentials(t *testing.T) {
	auth := &fakeAuthService{loginErr: services.ErrUserPasswordMismatch}
	handler := newTestHandler(auth, &fakeSessionService{}, &fakeTaskService{})

	router := gin.New()
	router.POST("/login", handler.HandleLogin)

	w := performRequest(router, http.MethodPost, "/login", gin.H{
		"username": "alice",
		"password": "wrong",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestHandleRegisterConflict(t *testing.T) {
	auth := &fakeAuthService{loginErr: services.ErrUserAlreadyExists}
	handler := newTestHandler(auth, &fakeSessionService{}, &fakeTaskService{})

	router := gin.New()
	router.POST("/register", handler.HandleRegister)

	w := performRequest(router, http.MethodPost, "/register", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestHandleCreateTaskInvalidPriority(t *testing.T) {
	tasks := &fakeTaskService{err: services.ErrInvalidPriority}
	sessions := &fakeSessionService{user: testUser()}
	handler := newTestHandler(&fakeAuthService{}, sessions, tasks)

	router := gin.New()
	router.POST("/tasks", handler.HandleAuthMiddleware, handler.HandleCreateTask)

	w := performRequest(router, http.MethodPost, "/tasks", gin.H{
		"title":    "walk the dog",
		"priority": "severe",
	}, map[string]string{"Authorization": "Bearer token"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleCreateTaskExtractsFromFreeText(t *testing.T) {
	tasks := &fakeTaskService{task: testTask()}
	sessions := &fakeSessionService{user: testUser()}
	handler := newTestHandler(&fakeAuthService{}, sessions, tasks)

	router := gin.New()
	router.POST("/tasks", handler.HandleAuthMiddleware, handler.HandleCreateTask)

	w := performRequest(router, http.MethodPost, "/tasks", gin.H{
		"title": "finish the report",
		"due":   "started working on the urgent draft",
	}, map[string]string{"Authorization": "Bearer token"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	if len(tasks.created) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(tasks.created))
	}
	params := tasks.created[0]
	if params.Priority != models.PriorityHigh {
		t.Errorf("priority = %q, want %q extracted from the text", params.Priority, models.PriorityHigh)
	}
	if params.Status != models.StatusInProgress {
		t.Errorf("status = %q, want %q extracted from the text", params.Status, models.StatusInProgress)
	}
	if params.DueDate != nil {
		t.Errorf("due date = %v, want none for text without a date", params.DueDate)
	}
}

func TestHandleGetTasksDueStatus(t *testing.T) {
	overdueTask := testTask()
	overdue := testNow.Add(-5 * 24 * time.Hour)
	overdueTask.DueDate = &overdue

	soonTask := testTask()
	soonTask.ID = "task-2"
	soon := testNow.Add(2 * 24 * time.Hour)
	soonTask.DueDate = &soon

	tasks := &fakeTaskService{tasks: []*models.Task{overdueTask, soonTask}}
	sessions := &fakeSessionService{user: testUser()}
	handler := newTestHandler(&fakeAuthService{}, sessions, tasks)

	router := gin.New()
	router.GET("/tasks", handler.HandleAuthMiddleware, handler.HandleGetTasks)

	w := performRequest(router, http.MethodGet, "/tasks", nil, map[string]string{
		"Authorization": "Bearer token",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Tasks []struct {
			ID        string `json:"id"`
			DueStatus string `json:"due_status"`
		} `json:"tasks"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Total != 2 {
		t.Fatalf("expected 2 tasks, got %d", body.Total)
	}
	if body.Tasks[0].DueStatus != "overdue" {
		t.Errorf("expected overdue status, got %q", body.Tasks[0].DueStatus)
	}
	if body.Tasks[1].DueStatus != "soon" {
		t.Errorf("expected soon status, got %q", body.Tasks[1].DueStatus)
	}
}

func TestHandleSearchRequiresQuery(t *testing.T) {
	sessions := &fakeSessionService{user: testUser()}
	handler := newTestHandler(&fakeAuthService{}, sessions, &fakeTaskService{})

	router := gin.New()
	router.GET("/search", handler.HandleAuthMiddleware, handler.HandleSearchTasks)

	w := performRequest(router, http.MethodGet, "/search", nil, map[string]string{
		"Authorization": "Bearer token",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleSearchResults(t *testing.T) {
	task := testTask()
	tasks := &fakeTaskService{results: []services.SearchResult{{Task: task, Score: 0.87}}}
	sessions := &fakeSessionService{user: testUser()}
	handler := newTestHandler(&fakeAuthService{}, sessions, tasks)

	router := gin.New()
	router.GET("/search", handler.HandleAuthMiddleware, handler.HandleSearchTasks)

	w := performRequest(router, http.MethodGet, "/search?q=dog", nil, map[string]string{
		"Authorization": "Bearer token",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Results []struct {
			ID              string  `json:"id"`
			SimilarityScore float32 `json:"similarity_score"`
		} `json:"results"`
		Query string `json:"query"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Query != "dog" {
		t.Errorf("expected query dog, got %q", body.Query)
	}
	if len(body.Results) != 1 || body.Results[0].SimilarityScore != 0.87 {
		t.Errorf("unexpected results: %+v", body.Results)
	}
}

func TestHandleGetSuggestionsOnboarding(t *testing.T) {
	sessions := &fakeSessionService{user: testUser()}
	handler := newTestHandler(&fakeAuthService{}, sessions, &fakeTaskService{})

	router := gin.New()
	router.GET("/suggestions", handler.HandleAuthMiddleware, handler.HandleGetSuggestions)

	w := performRequest(router, http.MethodGet, "/suggestions", nil, map[string]string{
		"Authorization": "Bearer token",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Suggestions []struct {
			Type string `json:"suggestion_type"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Suggestions) != 3 {
		t.Fatalf("expected 3 onboarding suggestions, got %d", len(body.Suggestions))
	}
	for _, s := range body.Suggestions {
		if s.Type != "onboarding" {
			t.Errorf("expected onboarding type, got %q", s.Type)
		}
	}
}

func TestHandleHealthCheck(t *testing.T) {
	handler := newTestHandler(&fakeAuthService{}, &fakeSessionService{}, &fakeTaskService{})

	router := gin.New()
	router.GET("/health", handler.HandleHealthCheck)

	w := performRequest(router, http.MethodGet, "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body["status"])
	}
	if body["service"] != "task-assistant" {
		t.Errorf("unexpected service name: %v", body["service"])
	}
}

func TestDueStatusBuckets(t *testing.T) {
	tests := []struct {
		name      string
		due       *time.Time
		completed bool
		want      string
	}{
		{"no due date", nil, false, "no_due_date"},
		{"completed", timePtr(testNow.Add(-24 * time.Hour)), true, "completed"},
		{"overdue", timePtr(testNow.Add(-24 * time.Hour)), false, "overdue"},
		{"today", timePtr(testNow), false, "today"},
		{"soon", timePtr(testNow.Add(3 * 24 * time.Hour)), false, "soon"},
		{"upcoming", timePtr(testNow.Add(10 * 24 * time.Hour)), false, "upcoming"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := testTask()
			task.DueDate = tt.due
			task.Completed = tt.completed

			if got := dueStatus(task, testNow); got != tt.want {
				t.Errorf("dueStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func timePtr(at time.Time) *time.Time {
	return &at
}
