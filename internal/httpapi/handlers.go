package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"

	"taskmanager/internal/db/models"
	"taskmanager/internal/task"
)

const maxBodyBytes = 1 << 20

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) listTasks(c *gin.Context) {
	tasks, err := s.tasks.List(c.Request.Context())
	if err != nil {
		s.fail(c, err, "Failed to fetch tasks")
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) createTask(c *gin.Context) {
	var req createTaskRequest
	if !s.bind(c, schemas.create, &req) {
		return
	}

	created, err := s.tasks.Create(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		s.fail(c, err, "Failed to create task")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getTask(c *gin.Context) {
	id, ok := s.taskID(c)
	if !ok {
		return
	}

	found, err := s.tasks.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err, "Failed to fetch task")
		return
	}
	c.JSON(http.StatusOK, found)
}

func (s *Server) updateTask(c *gin.Context) {
	id, ok := s.taskID(c)
	if !ok {
		return
	}

	var patch models.TaskPatch
	if !s.bind(c, schemas.update, &patch) {
		return
	}

	updated, err := s.tasks.Update(c.Request.Context(), id, patch)
	if err != nil {
		s.fail(c, err, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteTask(c *gin.Context) {
	id, ok := s.taskID(c)
	if !ok {
		return
	}

	if err := s.tasks.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err, "Failed to delete task")
		return
	}
	c.JSON(http.StatusOK, deleteResponse{Success: true, Message: "Task deleted successfully"})
}

// taskID parses the :id path parameter, writing a 400 when it is not an integer.
func (s *Server) taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid task id"})
		return 0, false
	}
	return id, true
}

// bind reads the body, validates it against schema and decodes it into dst.
func (s *Server) bind(c *gin.Context, schema *jsonschema.Schema, dst any) bool {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body too large"})
			return false
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Failed to read request body"})
		return false
	}

	if err := validateBody(schema, raw); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

// fail maps a service error to a status code. Store faults are logged and
// answered with message.
func (s *Server) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, task.ErrValidation):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, task.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "Task not found"})
	default:
		s.requestLog(c).WithError(err).Error(message)
		resp := errorResponse{Error: message}
		if s.exposeDetails {
			resp.Details = err.Error()
		}
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func (s *Server) requestLog(c *gin.Context) *logrus.Entry {
	return s.log.WithField("request_id", RequestIDFromContext(c.Request.Context()))
}
