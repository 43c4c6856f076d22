package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/application/serviceimpl"
	"taskflow/domain/dto"
	"taskflow/domain/models"
	"taskflow/infrastructure/websocket"
	"taskflow/interfaces/api/handlers"
	"taskflow/interfaces/api/middleware"
	"taskflow/interfaces/api/routes"
	"taskflow/pkg/config"
	"taskflow/pkg/utils"
)

const testSecret = "handler-test-secret"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string             `json:"code"`
		Message string             `json:"message"`
		Details []utils.FieldError `json:"details"`
	} `json:"error"`
}

type testAPI struct {
	app   *fiber.App
	users *userStore
	files *fileStore
}

func newTestAPI(t *testing.T, limiter middleware.RateLimiter) *testAPI {
	t.Helper()

	users := newUserStore()
	tasks := newTaskStore()
	files := &fileStore{files: map[string]int{}}
	tokens := utils.NewTokenManager(&config.JWTConfig{Secret: testSecret, Expiration: time.Hour})

	userService := serviceimpl.NewUserService(users, tokens, files, 10, 1024)
	h := handlers.NewHandlers(&handlers.Services{
		UserService: userService,
		TaskService: serviceimpl.NewTaskService(tasks, users, discardPublisher{}),
		Tokens:      tokens,
		Hub:         websocket.NewHub(),
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(),
		JSONDecoder:  utils.StrictJSONDecoder,
	})
	app.Use(middleware.RequestIDMiddleware())
	routes.SetupRoutes(app, h, routes.Config{
		Tokens:      tokens,
		AuthLimiter: limiter,
		Roles:       middleware.UserRoleLookup(userService),
	})

	return &testAPI{app: app, users: users, files: files}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return a.send(t, req)
}

func (a *testAPI) send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (a *testAPI) register(t *testing.T, email string) dto.AuthResponse {
	t.Helper()

	status, env := a.do(t, "POST", "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "secret123",
		"name":     "Tester",
	})
	require.Equal(t, fiber.StatusCreated, status)

	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	return auth
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t, nil)

	status, env := api.do(t, "POST", "/api/auth/register", "", map[string]string{
		"email":    "  Jane@Example.COM ",
		"password": "secret123",
		"name":     " Jane ",
	})
	require.Equal(t, fiber.StatusCreated, status)
	assert.NotContains(t, string(env.Data), "password")

	auth := decode[dto.AuthResponse](t, env)
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "jane@example.com", auth.User.Email)
	assert.Equal(t, "Jane", auth.User.Name)
	assert.Equal(t, models.RoleUser, auth.User.Role)

	status, env = api.do(t, "POST", "/api/auth/register", "", map[string]string{
		"email":    "JANE@example.com",
		"password": "another1",
		"name":     "Other",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, utils.ErrCodeDuplicateIdentity, env.Error.Code)

	status, env = api.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    "jane@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, utils.ErrCodeInvalidCredentials, env.Error.Code)

	status, unknown := api.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, env.Error, unknown.Error, "unknown email and wrong password look the same")

	status, env = api.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    " JANE@example.com",
		"password": "secret123",
	})
	require.Equal(t, fiber.StatusOK, status)
	login := decode[dto.AuthResponse](t, env)
	assert.NotNil(t, login.User.LastLoginAt)

	status, env = api.do(t, "GET", "/api/auth/me", login.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, auth.User.ID, decode[dto.UserResponse](t, env).ID)

	status, _ = api.do(t, "POST", "/api/auth/logout", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRegister_ValidationDetails(t *testing.T) {
	api := newTestAPI(t, nil)

	status, env := api.do(t, "POST", "/api/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"password": "123",
		"name":     "   ",
	})
	require.Equal(t, fiber.StatusBadRequest, status)
	require.Equal(t, utils.ErrCodeValidation, env.Error.Code)

	fields := map[string]string{}
	for _, d := range env.Error.Details {
		fields[d.Field] = d.Tag
	}
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "min", fields["password"])
	assert.Equal(t, "required", fields["name"])
}

func TestProtectedRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	auth := api.register(t, "jane@example.com")

	expiredTokens := utils.NewTokenManager(&config.JWTConfig{Secret: testSecret, Expiration: -time.Minute})
	expired, err := expiredTokens.Issue(&models.User{ID: auth.User.ID, Email: auth.User.Email, Role: models.RoleUser})
	require.NoError(t, err)

	status, env := api.do(t, "GET", "/api/tasks", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, utils.ErrCodeUnauthorized, env.Error.Code)

	status, garbage := api.do(t, "GET", "/api/tasks", "not.a.token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, expiredEnv := api.do(t, "GET", "/api/tasks", expired, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, garbage.Error.Message, expiredEnv.Error.Message, "verify failures share one message")

	status, _ = api.do(t, "GET", "/api/tasks", auth.Token, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestTaskLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	auth := api.register(t, "jane@example.com")

	status, env := api.do(t, "POST", "/api/tasks", auth.Token, map[string]any{
		"title":     "  Write report  ",
		"tags":      []string{" Q3 Review ", "Q3 Review", "Urgent!", "+"},
		"dueDate":   "2030-05-01",
		"createdBy": "someone-else",
	})
	require.Equal(t, fiber.StatusCreated, status)

	created := decode[dto.TaskResponse](t, env)
	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, models.TaskStatusTodo, created.Status)
	assert.Equal(t, models.TaskPriorityMedium, created.Priority)
	assert.Equal(t, auth.User.ID, created.CreatedBy)
	assert.Equal(t, []string{"Q3 Review", "Urgent!", "+"}, created.Tags)
	require.NotNil(t, created.DueDate)
	assert.False(t, created.IsCompleted)

	for _, title := range []string{"Alpha task", "Beta task"} {
		status, _ = api.do(t, "POST", "/api/tasks", auth.Token, map[string]any{"title": title})
		require.Equal(t, fiber.StatusCreated, status)
	}

	status, env = api.do(t, "GET", "/api/tasks?page=2&limit=2", auth.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	list := decode[dto.TaskListResponse](t, env)
	assert.Len(t, list.Tasks, 1)
	assert.Equal(t, dto.PaginationMeta{Page: 2, Limit: 2, Total: 3, Pages: 2}, list.Pagination)

	status, env = api.do(t, "GET", "/api/tasks?search=ALPHA", auth.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	list = decode[dto.TaskListResponse](t, env)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "Alpha task", list.Tasks[0].Title)

	path := "/api/tasks/" + created.ID.String()

	status, env = api.do(t, "PUT", path, auth.Token, map[string]any{"status": "done"})
	require.Equal(t, fiber.StatusOK, status)
	done := decode[dto.TaskResponse](t, env)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.CompletedAt)

	status, env = api.do(t, "PUT", path, auth.Token, map[string]any{"status": "done", "title": "Write final report"})
	require.Equal(t, fiber.StatusOK, status)
	again := decode[dto.TaskResponse](t, env)
	assert.Equal(t, done.CompletedAt.UnixNano(), again.CompletedAt.UnixNano())
	assert.Equal(t, "Write final report", again.Title)

	status, env = api.do(t, "GET", path, auth.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, created.ID, decode[dto.TaskResponse](t, env).ID)

	status, _ = api.do(t, "DELETE", path, auth.Token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env = api.do(t, "GET", path, auth.Token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, utils.ErrCodeNotFound, env.Error.Code)
}

func TestTaskOwnership(t *testing.T) {
	api := newTestAPI(t, nil)
	owner := api.register(t, "owner@example.com")
	other := api.register(t, "other@example.com")

	status, env := api.do(t, "POST", "/api/tasks", owner.Token, map[string]any{"title": "Private task"})
	require.Equal(t, fiber.StatusCreated, status)
	path := "/api/tasks/" + decode[dto.TaskResponse](t, env).ID.String()

	status, _ = api.do(t, "GET", path, other.Token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = api.do(t, "PUT", path, other.Token, map[string]any{"title": "Hijacked"})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = api.do(t, "DELETE", path, other.Token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = api.do(t, "GET", "/api/tasks", other.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, decode[dto.TaskListResponse](t, env).Tasks)

	status, _ = api.do(t, "GET", "/api/tasks/not-a-uuid", owner.Token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = api.do(t, "GET", path, owner.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Private task", decode[dto.TaskResponse](t, env).Title)
}

func TestTaskValidation(t *testing.T) {
	api := newTestAPI(t, nil)
	auth := api.register(t, "jane@example.com")

	tests := []struct {
		name  string
		body  string
		field string
		tag   string
	}{
		{"unknown field", `{"title":"Valid title","color":"red"}`, "color", "unknown"},
		{"tags must be an array", `{"title":"Valid title","tags":"x"}`, "tags", "type"},
		{"title too short", `{"title":" ab "}`, "title", "min"},
		{"title missing", `{"description":"no title"}`, "title", "required"},
		{"bad status", `{"title":"Valid title","status":"blocked"}`, "status", "oneof"},
		{"bad due date", `{"title":"Valid title","dueDate":"tomorrow"}`, "dueDate", "isodate"},
		{"malformed json", `{"title":`, "body", "json"},
		{"unknown assignee", `{"title":"Valid title","assignedTo":"8f14e45f-ceea-4f6a-9f5e-5a1f1c1e2b3d"}`, "assignedTo", "exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := api.do(t, "POST", "/api/tasks", auth.Token, tt.body)
			require.Equal(t, fiber.StatusBadRequest, status)
			require.Equal(t, utils.ErrCodeValidation, env.Error.Code)
			require.NotEmpty(t, env.Error.Details)

			found := false
			for _, d := range env.Error.Details {
				if d.Field == tt.field && d.Tag == tt.tag {
					found = true
				}
			}
			assert.True(t, found, "details: %+v", env.Error.Details)
		})
	}

	status, env := api.do(t, "GET", "/api/tasks", auth.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, decode[dto.TaskListResponse](t, env).Tasks, "nothing persisted")

	status, env = api.do(t, "GET", "/api/tasks?limit=500&sort=color", auth.Token, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, utils.ErrCodeValidation, env.Error.Code)
}

func TestTaskListPageBounds(t *testing.T) {
	api := newTestAPI(t, nil)
	auth := api.register(t, "jane@example.com")

	status, _ := api.do(t, "POST", "/api/tasks", auth.Token, map[string]any{"title": "Only task"})
	require.Equal(t, fiber.StatusCreated, status)

	tests := []struct {
		name  string
		query string
		field string
		tag   string
	}{
		{"page near int64 max", "page=922337203685477580&limit=100", "page", "max"},
		{"page above cap", fmt.Sprintf("page=%d", dto.MaxPage+1), "page", "max"},
		{"negative page", "page=-1", "page", "min"},
		{"page overflows int", "page=99999999999999999999", "query", "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := api.do(t, "GET", "/api/tasks?"+tt.query, auth.Token, nil)
			require.Equal(t, fiber.StatusBadRequest, status)
			require.Equal(t, utils.ErrCodeValidation, env.Error.Code)

			found := false
			for _, d := range env.Error.Details {
				if d.Field == tt.field && d.Tag == tt.tag {
					found = true
				}
			}
			assert.True(t, found, "details: %+v", env.Error.Details)
		})
	}

	status, env := api.do(t, "GET", fmt.Sprintf("/api/tasks?page=%d&limit=100", dto.MaxPage), auth.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	list := decode[dto.TaskListResponse](t, env)
	assert.Empty(t, list.Tasks)
	assert.Equal(t, dto.MaxPage, list.Pagination.Page)
	assert.Equal(t, int64(1), list.Pagination.Total)

	admin := api.register(t, "admin@example.com")
	api.users.promote("admin@example.com")

	status, env = api.do(t, "GET", "/api/users?page=922337203685477580&limit=100", admin.Token, nil)
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, utils.ErrCodeValidation, env.Error.Code)
}

func TestProfileAndAvatar(t *testing.T) {
	api := newTestAPI(t, nil)
	auth := api.register(t, "jane@example.com")

	status, env := api.do(t, "PUT", "/api/users/profile", auth.Token, map[string]any{
		"name": " Jane Doe ",
		"bio":  "ignored",
	})
	require.Equal(t, fiber.StatusOK, status)
	profile := decode[dto.UserResponse](t, env)
	assert.Equal(t, "Jane Doe", profile.Name)
	assert.Empty(t, profile.Bio)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="avatar"; filename="Me.PNG"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake image"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/users/profile/avatar", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+auth.Token)

	status, env = api.send(t, req)
	require.Equal(t, fiber.StatusOK, status, "%+v", env.Error)
	avatar := decode[dto.UserResponse](t, env).Avatar
	assert.True(t, strings.HasPrefix(avatar, "http://files.test/avatars/"+auth.User.ID.String()+"/"), avatar)
	assert.True(t, strings.HasSuffix(avatar, ".png"), avatar)
	assert.Len(t, api.files.files, 1)

	status, env = api.do(t, "GET", "/api/users/profile", auth.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, avatar, decode[dto.UserResponse](t, env).Avatar)
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	user := api.register(t, "user@example.com")
	admin := api.register(t, "admin@example.com")
	api.users.promote("admin@example.com")

	status, env := api.do(t, "GET", "/api/users", user.Token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, utils.ErrCodeForbidden, env.Error.Code)

	status, env = api.do(t, "GET", "/api/users?limit=1", admin.Token, nil)
	require.Equal(t, fiber.StatusOK, status)
	list := decode[dto.UserListResponse](t, env)
	assert.Len(t, list.Users, 1)
	assert.Equal(t, int64(2), list.Pagination.Total)

	statusPath := "/api/users/" + user.User.ID.String() + "/status"
	status, env = api.do(t, "PATCH", statusPath, admin.Token, map[string]any{"isActive": false})
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, decode[dto.UserResponse](t, env).IsActive)

	status, env = api.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    "user@example.com",
		"password": "secret123",
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, utils.ErrCodeInvalidCredentials, env.Error.Code)

	status, _ = api.do(t, "PATCH", "/api/users/"+admin.User.ID.String()+"/status", admin.Token, map[string]any{"isActive": false})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAdminRoleFollowsStore(t *testing.T) {
	api := newTestAPI(t, nil)
	first := api.register(t, "first@example.com")
	second := api.register(t, "second@example.com")

	// token ที่ออกก่อน promote ใช้ได้ทันที
	api.users.promote("first@example.com")
	status, _ := api.do(t, "GET", "/api/users", first.Token, nil)
	require.Equal(t, fiber.StatusOK, status)

	api.users.demote("first@example.com")
	status, env := api.do(t, "GET", "/api/users", first.Token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, utils.ErrCodeForbidden, env.Error.Code)

	api.users.promote("first@example.com")
	api.users.promote("second@example.com")
	status, _ = api.do(t, "PATCH", "/api/users/"+first.User.ID.String()+"/status", second.Token, map[string]any{"isActive": false})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = api.do(t, "GET", "/api/users", first.Token, nil)
	assert.Equal(t, fiber.StatusForbidden, status, "deactivated admin")

	status, _ = api.do(t, "GET", "/api/users", second.Token, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAuthRateLimit(t *testing.T) {
	api := newTestAPI(t, middleware.NewMemoryRateLimiter(2, time.Minute))
	creds := map[string]string{"email": "nobody@example.com", "password": "whatever"}

	for i := 0; i < 2; i++ {
		status, _ := api.do(t, "POST", "/api/auth/login", "", creds)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	}

	status, env := api.do(t, "POST", "/api/auth/login", "", creds)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, utils.ErrCodeTooManyRequests, env.Error.Code)
}
