package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/staffmanager/internal/tasks"
)

type fakeTaskQueue struct {
	enqueued   []backlite.Task
	statuses   map[string]backlite.TaskStatus
	enqueueErr error
}

func (q *fakeTaskQueue) Enqueue(task backlite.Task) (string, error) {
	if q.enqueueErr != nil {
		return "", q.enqueueErr
	}
	q.enqueued = append(q.enqueued, task)
	return "task-1", nil
}

func (q *fakeTaskQueue) Status(_ context.Context, id string) (backlite.TaskStatus, error) {
	status, ok := q.statuses[id]
	if !ok {
		return backlite.TaskStatusNotFound, nil
	}
	return status, nil
}

func setupTasksServer(t *testing.T, queue *fakeTaskQueue) *testServer {
	t.Helper()
	return setupTestServerWith(t, func(cfg *RouterConfig) {
		cfg.TaskClient = queue
	})
}

func TestTasksAPI_ListTypes(t *testing.T) {
	ts := setupTasksServer(t, &fakeTaskQueue{})

	w := ts.do(t, "GET", "/api/tasks/types", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		TaskTypes []tasks.TypeInfo `json:"task_types"`
	}](t, w)
	var names []string
	for _, tt := range resp.TaskTypes {
		names = append(names, tt.Type)
	}
	assert.ElementsMatch(t, []string{"overdue_loans", "cleanup_audit_events", "cleanup_orphan_images"}, names)
}

func TestTasksAPI_Run(t *testing.T) {
	queue := &fakeTaskQueue{}
	ts := setupTasksServer(t, queue)

	w := ts.do(t, "POST", "/api/tasks/cleanup_audit_events/run", gin.H{"retention_days": 30})

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "task-1", decode[map[string]string](t, w)["task_id"])
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 30}, queue.enqueued[0])
}

func TestTasksAPI_RunWithoutBody(t *testing.T) {
	queue := &fakeTaskQueue{}
	ts := setupTasksServer(t, queue)

	w := ts.do(t, "POST", "/api/tasks/overdue_loans/run", nil)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Len(t, queue.enqueued, 1)
}

func TestTasksAPI_RunRejections(t *testing.T) {
	queue := &fakeTaskQueue{}
	ts := setupTasksServer(t, queue)

	w := ts.do(t, "POST", "/api/tasks/sync_everything/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, "POST", "/api/tasks/cleanup_audit_events/run", gin.H{"retention_days": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, queue.enqueued)

	queue.enqueueErr = errors.New("queue closed")
	w = ts.do(t, "POST", "/api/tasks/overdue_loans/run", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTasksAPI_Status(t *testing.T) {
	queue := &fakeTaskQueue{statuses: map[string]backlite.TaskStatus{"abc": backlite.TaskStatusSuccess}}
	ts := setupTasksServer(t, queue)

	w := ts.do(t, "GET", "/api/tasks/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", decode[map[string]string](t, w)["status"])

	w = ts.do(t, "GET", "/api/tasks/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMaintenancePage(t *testing.T) {
	queue := &fakeTaskQueue{}
	ts := setupTasksServer(t, queue)

	w := ts.do(t, "GET", "/maintenance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cleanup_orphan_images")

	w = ts.postForm(t, "/maintenance/cleanup_orphan_images/run", url.Values{"min_age_minutes": {"5"}})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, "/maintenance?enqueued=task-1&task=cleanup_orphan_images", w.Header().Get("Location"))
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, tasks.CleanupOrphanImagesTask{MinAgeMinutes: 5}, queue.enqueued[0])

	w = ts.postForm(t, "/maintenance/nope/run", url.Values{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "pending", statusName(backlite.TaskStatusPending))
	assert.Equal(t, "success", statusName(backlite.TaskStatusSuccess))
	assert.Equal(t, "not_found", statusName(backlite.TaskStatusNotFound))
	assert.Equal(t, "unknown", statusName(backlite.TaskStatus(99)))
}
