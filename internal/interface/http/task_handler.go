package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/moodhaven/moodhaven/internal/application"
	"github.com/moodhaven/moodhaven/pkg/response"
	"github.com/moodhaven/moodhaven/pkg/validation"
)

// TaskHandler serves the coping-task endpoints.
type TaskHandler struct {
	Svc    *app.WellbeingService
	Logger *logrus.Logger
}

func NewTaskHandler(svc *app.WellbeingService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{Svc: svc, Logger: logger}
}

type taskRequest struct {
	Task string `json:"task" binding:"required"`
}

// List returns the pending/completed/canceled task sets. An optional
// ?emotion= adds catalog suggestions and seeds the pending set when empty.
func (h *TaskHandler) List(c *gin.Context) {
	uid := c.GetString("userID")
	view, err := h.Svc.ListTasks(c.Request.Context(), uid, c.Query("emotion"))
	if errors.Is(err, app.ErrEmotionUnknown) {
		response.Error[any](c, http.StatusBadRequest, "unknown emotion", nil)
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("list tasks failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to list tasks", nil)
		return
	}
	response.Success(c, http.StatusOK, view, "tasks", nil)
}

func (h *TaskHandler) Complete(c *gin.Context) {
	uid := c.GetString("userID")
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.CompleteTask(c.Request.Context(), uid, req.Task); err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("complete task failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to complete task", nil)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"task": req.Task, "status": "Completed"}, "task completed", nil)
}

func (h *TaskHandler) Cancel(c *gin.Context) {
	uid := c.GetString("userID")
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.CancelTask(c.Request.Context(), uid, req.Task); err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("cancel task failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to cancel task", nil)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"task": req.Task, "status": "Canceled"}, "task canceled", nil)
}
