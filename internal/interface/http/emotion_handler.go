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

// EmotionHandler serves the daily emotion log endpoint.
type EmotionHandler struct {
	Svc    *app.WellbeingService
	Logger *logrus.Logger
}

func NewEmotionHandler(svc *app.WellbeingService, logger *logrus.Logger) *EmotionHandler {
	return &EmotionHandler{Svc: svc, Logger: logger}
}

type recordEmotionRequest struct {
	Emotion string `json:"emotion" binding:"required,oneof=Happy Sad Stressed Anxious Depressed Neutral"`
}

func (h *EmotionHandler) Record(c *gin.Context) {
	uid := c.GetString("userID")
	var req recordEmotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.RecordEmotion(c.Request.Context(), uid, req.Emotion)
	if errors.Is(err, app.ErrEmotionUnknown) {
		response.Error[any](c, http.StatusBadRequest, "unknown emotion", nil)
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("record emotion failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to record emotion", nil)
		return
	}
	response.Success(c, http.StatusCreated, res, "emotion recorded", nil)
}
