package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeTasksApp struct {
	nextID int64
	tasks  map[int64]*models.Task
}

func newFakeTasksApp() *fakeTasksApp {
	return &fakeTasksApp{tasks: make(map[int64]*models.Task)}
}

func (a *fakeTasksApp) CreateTask(ctx context.Context, userID int64, req CreateTaskRequest) (*models.Task, error) {
	a.nextID++
	task := &models.Task{ID: a.nextID, UserID: userID, Name: req.Name}
	a.tasks[task.ID] = task
	return task, nil
}

func (a *fakeTasksApp) ListTasksByUser(ctx context.Context, userID int64) ([]*models.Task, error) {
	var tasks []*models.Task
	for _, task := range a.tasks {
		if task.UserID == userID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (a *fakeTasksApp) UpdateTask(ctx context.Context, taskID int64, req UpdateTaskRequest) (*models.Task, error) {
	task, ok := a.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	return task, nil
}

func (a *fakeTasksApp) DeleteTask(ctx context.Context, taskID int64) error {
	if _, ok := a.tasks[taskID]; !ok {
		return ErrTaskNotFound
	}
	delete(a.tasks, taskID)
	return nil
}

func setupTasksServer(t *testing.T) (*httptest.Server, *fakeTasksApp) {
	t.Helper()

	app := newFakeTasksApp()
	service := NewService(app)
	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, app
}

func TestCreateTaskEndpoint(t *testing.T) {
	server, _ := setupTasksServer(t)

	resp, err := http.Post(server.URL+"/users/1/tasks", "application/json",
		strings.NewReader(`{"name":"write report"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var task models.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&task))
	require.Equal(t, "write report", task.Name)
	require.Equal(t, int64(1), task.UserID)
	require.False(t, task.Completed)
}

func TestCreateTaskRequiresName(t *testing.T) {
	server, _ := setupTasksServer(t)

	resp, err := http.Post(server.URL+"/users/1/tasks", "application/json",
		strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListTasksEndpoint(t *testing.T) {
	server, app := setupTasksServer(t)
	_, err := app.CreateTask(context.Background(), 1, CreateTaskRequest{Name: "a"})
	require.NoError(t, err)
	_, err = app.CreateTask(context.Background(), 2, CreateTaskRequest{Name: "b"})
	require.NoError(t, err)

	resp, err := http.Get(server.URL + "/users/1/tasks")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tasks []*models.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tasks))
	require.Len(t, tasks, 1)
	require.Equal(t, "a", tasks[0].Name)
}

func TestUpdateTaskEndpoint(t *testing.T) {
	server, app := setupTasksServer(t)
	_, err := app.CreateTask(context.Background(), 1, CreateTaskRequest{Name: "a"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPatch, server.URL+"/tasks/1",
		strings.NewReader(`{"completed":true}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var task models.Task
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&task))
	require.True(t, task.Completed)
	require.Equal(t, "a", task.Name)
}

func TestUpdateTaskNotFound(t *testing.T) {
	server, _ := setupTasksServer(t)

	req, err := http.NewRequest(http.MethodPatch, server.URL+"/tasks/99",
		strings.NewReader(`{"completed":true}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteTaskEndpoint(t *testing.T) {
	server, app := setupTasksServer(t)
	_, err := app.CreateTask(context.Background(), 1, CreateTaskRequest{Name: "a"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/tasks/1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	req2, err := http.NewRequest(http.MethodDelete, server.URL+"/tasks/1", nil)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
