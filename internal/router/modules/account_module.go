package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moodhaven/moodhaven/internal/container"
	handlers "github.com/moodhaven/moodhaven/internal/interface/http"
	"github.com/moodhaven/moodhaven/internal/interface/middleware"
	"github.com/moodhaven/moodhaven/pkg/helpers"
)

// AccountModule wires identity and profile routes.
// Public: POST /api/signup, POST /api/login, POST /api/refresh
// Protected: POST /api/logout, GET/PUT /api/profile, POST /api/profile/avatar
type AccountModule struct {
	Handler *handlers.AccountHandler
	JWT     *helpers.JWTManager
}

func NewAccountModule(h *handlers.AccountHandler, jwt *helpers.JWTManager) *AccountModule {
	return &AccountModule{Handler: h, JWT: jwt}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/signup", signupLimiter, m.Handler.SignUp)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/avatar", m.Handler.UploadAvatar)
	}
}
