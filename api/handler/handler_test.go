package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/repository/memory"
	"github.com/fastygo/taskboard/usecase"
	authUC "github.com/fastygo/taskboard/usecase/auth"
	profileUC "github.com/fastygo/taskboard/usecase/profile"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  interface{}     `json:"error"`
}

type server struct {
	t       *testing.T
	handler fasthttp.RequestHandler
	tasks   *memory.TaskRepository
}

func newServer(t *testing.T, status monitor.Status) *server {
	t.Helper()
	users := memory.NewUserRepository()
	tasks := memory.NewTaskRepository()
	sessions := memory.NewSessionRepository(time.Hour)
	auth := authUC.New(users, sessions, authUC.Config{Secret: "test", BcryptCost: bcrypt.MinCost}, nil)
	adapter := httpcontext.NewAdapter(time.Second)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(auth, adapter, nil),
		Profile: apiHandler.NewProfileHandler(profileUC.New(users, usecase.ContextIdentity{}, nil), adapter, nil),
		Task:    apiHandler.NewTaskHandler(taskUC.New(tasks, usecase.ContextIdentity{}, nil), adapter, nil),
		Health:  apiHandler.NewHealthHandler(staticStatus(status), "memory", adapter, nil),
	}
	r := router.New(handlers, middleware.Auth(auth, adapter, nil))
	return &server{t: t, handler: r.Handler, tasks: tasks}
}

func (s *server) do(method, path, token string, body interface{}) (int, envelope) {
	s.t.Helper()
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(path)
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		req.SetBody(raw)
		req.Header.SetContentType("application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	s.handler(&ctx)

	var env envelope
	if len(ctx.Response.Body()) > 0 {
		require.NoError(s.t, json.Unmarshal(ctx.Response.Body(), &env))
	}
	return ctx.Response.StatusCode(), env
}

func (s *server) register(email string) string {
	s.t.Helper()
	status, env := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Test", "email": email, "password": "secret1",
	})
	require.Equal(s.t, http.StatusCreated, status)
	var cred struct {
		Token string          `json:"token"`
		User  domain.Identity `json:"user"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &cred))
	require.NotEmpty(s.t, cred.Token)
	return cred.Token
}

func TestTaskLifecycle(t *testing.T) {
	s := newServer(t, monitor.Status{Store: true, Sessions: true})
	token := s.register("alice@example.com")

	status, env := s.do(http.MethodPost, "/api/v1/tasks", token, map[string]string{"title": "  Ship it  "})
	require.Equal(t, http.StatusCreated, status)
	var created domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Ship it", created.Title)
	assert.False(t, created.IsComplete)

	status, env = s.do(http.MethodGet, "/api/v1/tasks", token, nil)
	require.Equal(t, http.StatusOK, status)
	var listed []domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)

	status, _ = s.do(http.MethodPut, "/api/v1/tasks/"+created.ID, token, map[string]string{"title": "Ship it today", "description": "before 5pm"})
	assert.Equal(t, http.StatusNoContent, status)

	status, env = s.do(http.MethodPost, "/api/v1/tasks/"+created.ID+"/toggle", token, map[string]bool{"isComplete": false})
	require.Equal(t, http.StatusOK, status)
	var toggled domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &toggled))
	assert.True(t, toggled.IsComplete)
	assert.Equal(t, "Ship it today", toggled.Title)

	status, env = s.do(http.MethodPost, "/api/v1/tasks/"+created.ID+"/toggle", token, map[string]bool{"isComplete": false})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, string(domain.ErrCodeConflict), env.Code)

	status, env = s.do(http.MethodGet, "/api/v1/stats", token, nil)
	require.Equal(t, http.StatusOK, status)
	var stats domain.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, domain.Stats{Total: 1, Completed: 1, Pending: 0}, stats)

	status, _ = s.do(http.MethodDelete, "/api/v1/tasks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(http.MethodDelete, "/api/v1/tasks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = s.do(http.MethodGet, "/api/v1/tasks/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(domain.ErrCodeNotFound), env.Code)
}

func TestOwnershipIsolation(t *testing.T) {
	s := newServer(t, monitor.Status{Store: true, Sessions: true})
	alice := s.register("alice@example.com")
	bob := s.register("bob@example.com")

	_, env := s.do(http.MethodPost, "/api/v1/tasks", alice, map[string]string{"title": "private"})
	var created domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &created))

	status, _ := s.do(http.MethodGet, "/api/v1/tasks/"+created.ID, bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(http.MethodPut, "/api/v1/tasks/"+created.ID, bob, map[string]string{"title": "mine"})
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.do(http.MethodGet, "/api/v1/tasks", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestValidationAndAuthErrors(t *testing.T) {
	s := newServer(t, monitor.Status{Store: true, Sessions: true})

	status, env := s.do(http.MethodGet, "/api/v1/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, string(domain.ErrCodeUnauthorized), env.Code)

	status, env = s.do(http.MethodGet, "/api/v1/tasks", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, string(domain.ErrCodeAuthFailed), env.Code)

	token := s.register("alice@example.com")

	status, env = s.do(http.MethodPost, "/api/v1/tasks", token, map[string]string{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, string(domain.ErrCodeInvalid), env.Code)

	status, _ = s.do(http.MethodPost, "/api/v1/tasks/some-id/toggle", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "alice@example.com", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, string(domain.ErrCodeAuthFailed), env.Code)

	status, _ = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "alice@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestStoreOutageMapsTo503(t *testing.T) {
	s := newServer(t, monitor.Status{Store: true, Sessions: true})
	token := s.register("alice@example.com")
	s.tasks.Err = assert.AnError

	status, env := s.do(http.MethodGet, "/api/v1/tasks", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, string(domain.ErrCodeUnavailable), env.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newServer(t, monitor.Status{Store: true, Sessions: true})
	token := s.register("alice@example.com")

	status, env := s.do(http.MethodPost, "/api/v1/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"token"`)

	status, _ = s.do(http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(http.MethodGet, "/api/v1/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealth(t *testing.T) {
	status, env := newServer(t, monitor.Status{Store: true, Sessions: true}).do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)

	status, env = newServer(t, monitor.Status{Store: false, Sessions: true}).do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "DEGRADED", env.Code)
}
