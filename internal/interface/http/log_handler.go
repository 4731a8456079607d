package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/moodhaven/moodhaven/internal/application"
	"github.com/moodhaven/moodhaven/pkg/response"
)

// LogHandler serves the weekly/monthly log views and the search endpoint.
type LogHandler struct {
	Svc    *app.WellbeingService
	Logger *logrus.Logger
}

func NewLogHandler(svc *app.WellbeingService, logger *logrus.Logger) *LogHandler {
	return &LogHandler{Svc: svc, Logger: logger}
}

func (h *LogHandler) Weekly(c *gin.Context) {
	uid := c.GetString("userID")
	log, err := h.Svc.WeeklyLogView(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("weekly log failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to build weekly log", nil)
		return
	}
	response.Success(c, http.StatusOK, log, "weekly log", nil)
}

// Monthly returns the log for ?month= ("2006-01" or "January 2006");
// empty month means the current one.
func (h *LogHandler) Monthly(c *gin.Context) {
	uid := c.GetString("userID")
	log, err := h.Svc.MonthlyLogView(c.Request.Context(), uid, c.Query("month"))
	if errors.Is(err, app.ErrBadMonth) {
		response.Error[any](c, http.StatusBadRequest, "unrecognized month format", nil)
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("monthly log failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to build monthly log", nil)
		return
	}
	response.Success(c, http.StatusOK, log, "monthly log", nil)
}

// Search queries the mood-log index with optional ?emotion=, ?from=, ?to=
// (RFC3339 or 2006-01-02), and ?size=.
func (h *LogHandler) Search(c *gin.Context) {
	uid := c.GetString("userID")

	from, ok := parseTimeParam(c.Query("from"))
	if !ok {
		response.Error[any](c, http.StatusBadRequest, "invalid from", nil)
		return
	}
	to, ok := parseTimeParam(c.Query("to"))
	if !ok {
		response.Error[any](c, http.StatusBadRequest, "invalid to", nil)
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))

	hits, err := h.Svc.SearchLogs(c.Request.Context(), uid, c.Query("emotion"), from, to, size)
	if errors.Is(err, app.ErrEmotionUnknown) {
		response.Error[any](c, http.StatusBadRequest, "unknown emotion", nil)
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("log search failed")
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"hits": hits}, "log search", nil)
}

func parseTimeParam(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
