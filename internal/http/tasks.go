package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/staffmanager/internal/tasks"
)

// TaskQueue is the part of the task client the controller needs.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TasksController triggers maintenance tasks and reports their status.
type TasksController struct {
	queue TaskQueue
}

func NewTasksController(queue TaskQueue) *TasksController {
	return &TasksController{queue: queue}
}

// TaskTypes handles GET /api/tasks/types
func (tc *TasksController) TaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"task_types": tasks.Types()})
}

// TaskStatus handles GET /api/tasks/:id
func (tc *TasksController) TaskStatus(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, id)
	switch {
	case err != nil:
		respondInternalError(c, err, "task status")
	case status == backlite.TaskStatusNotFound:
		respondNotFound(c, "task")
	default:
		c.JSON(http.StatusOK, gin.H{"id": id, "status": statusName(status)})
	}
}

// RunTask handles POST /api/tasks/:type/run. The body is optional.
func (tc *TasksController) RunTask(c *gin.Context) {
	var params tasks.Params
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&params); err != nil {
			respondBindError(c, err)
			return
		}
	}

	taskType := c.Param("type")
	taskID, err := tc.enqueue(taskType, params)
	if err != nil {
		if errors.Is(err, tasks.ErrUnknownTaskType) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err, "enqueue task")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": taskID,
		"type":    taskType,
		"message": "task enqueued",
	})
}

// MaintenancePage renders the task list with run buttons.
// GET /maintenance
func (tc *TasksController) MaintenancePage(c *gin.Context) {
	render(c, http.StatusOK, "maintenance", gin.H{
		"Title":    "Maintenance",
		"Types":    tasks.Types(),
		"Enqueued": c.Query("enqueued"),
		"Task":     c.Query("task"),
	})
}

// RunTaskForm handles POST /maintenance/:type/run from the maintenance page.
func (tc *TasksController) RunTaskForm(c *gin.Context) {
	var params tasks.Params
	if err := c.ShouldBind(&params); err != nil {
		renderError(c, http.StatusBadRequest, errorMessage(err))
		return
	}

	taskType := c.Param("type")
	taskID, err := tc.enqueue(taskType, params)
	if err != nil {
		if errors.Is(err, tasks.ErrUnknownTaskType) {
			renderError(c, http.StatusNotFound, err.Error())
			return
		}
		redirectToError(c, err, "enqueue task")
		return
	}

	q := url.Values{"enqueued": {taskID}, "task": {taskType}}
	c.Redirect(http.StatusSeeOther, "/maintenance?"+q.Encode())
}

func (tc *TasksController) enqueue(taskType string, params tasks.Params) (string, error) {
	task, err := tasks.Build(taskType, params)
	if err != nil {
		return "", err
	}
	return tc.queue.Enqueue(task)
}

var statusNames = map[backlite.TaskStatus]string{
	backlite.TaskStatusPending:  "pending",
	backlite.TaskStatusRunning:  "running",
	backlite.TaskStatusSuccess:  "success",
	backlite.TaskStatusFailure:  "failure",
	backlite.TaskStatusNotFound: "not_found",
}

func statusName(status backlite.TaskStatus) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return "unknown"
}
