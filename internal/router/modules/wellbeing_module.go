package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moodhaven/moodhaven/internal/container"
	handlers "github.com/moodhaven/moodhaven/internal/interface/http"
	"github.com/moodhaven/moodhaven/internal/interface/middleware"
	"github.com/moodhaven/moodhaven/pkg/helpers"
)

// WellbeingModule wires the mood-tracking routes. Everything here requires an
// authenticated session.
//
// POST /api/emotions          log today's emotion, get suggested tasks
// GET  /api/tasks             live task sets (?emotion= adds suggestions)
// POST /api/tasks/complete    move a task to completed
// POST /api/tasks/cancel      cancel a pending task
// GET  /api/rewards           reward catalog
// POST /api/rewards           claim a reward
// GET  /api/rewards/earned    claimed rewards
// GET  /api/logs/weekly       rolling 7-day view
// GET  /api/logs/monthly      calendar-month view (?month=)
// GET  /api/logs/search       Elasticsearch-backed history search
type WellbeingModule struct {
	Emotions *handlers.EmotionHandler
	Tasks    *handlers.TaskHandler
	Rewards  *handlers.RewardHandler
	Logs     *handlers.LogHandler
	JWT      *helpers.JWTManager
}

func NewWellbeingModule(e *handlers.EmotionHandler, t *handlers.TaskHandler, rw *handlers.RewardHandler, l *handlers.LogHandler, jwt *helpers.JWTManager) *WellbeingModule {
	return &WellbeingModule{Emotions: e, Tasks: t, Rewards: rw, Logs: l, JWT: jwt}
}

func (m *WellbeingModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("/emotions", m.Emotions.Record)

		auth.GET("/tasks", m.Tasks.List)
		auth.POST("/tasks/complete", m.Tasks.Complete)
		auth.POST("/tasks/cancel", m.Tasks.Cancel)

		auth.GET("/rewards", m.Rewards.Catalog)
		auth.POST("/rewards", m.Rewards.Claim)
		auth.GET("/rewards/earned", m.Rewards.Earned)

		auth.GET("/logs/weekly", m.Logs.Weekly)
		auth.GET("/logs/monthly", m.Logs.Monthly)
		auth.GET("/logs/search", m.Logs.Search)
	}
}
