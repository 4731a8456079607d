package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/moodhaven/moodhaven/internal/application"
	"github.com/moodhaven/moodhaven/pkg/helpers"
	"github.com/moodhaven/moodhaven/pkg/response"
	"github.com/moodhaven/moodhaven/pkg/validation"
)

// AccountHandler serves sign-up, login, session, and profile endpoints.
type AccountHandler struct {
	Svc     *app.AccountService
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewAccountHandler(svc *app.AccountService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

type signupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
	Name     string `json:"name" binding:"required,max=50"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

func (h *AccountHandler) SignUp(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	profile, pair, err := h.Svc.SignUp(c.Request.Context(), app.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if errors.Is(err, app.ErrEmailTaken) {
		response.Error[any](c, http.StatusConflict, "email already registered", nil)
		return
	}
	if err != nil {
		h.Logger.WithError(err).Error("signup failed")
		response.Error[any](c, http.StatusInternalServerError, "signup failed", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusCreated, profile, "account created", nil)
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	profile, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password, clientIP(c), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, profile, "login successful", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

func (h *AccountHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, map[string]any{"refreshed": true}, "token refreshed", map[string]any{
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	})
}

func (h *AccountHandler) Logout(c *gin.Context) {
	uid := c.GetString("userID")
	_ = h.Svc.Logout(c.Request.Context(), uid, clientIP(c), c.GetHeader("User-Agent"))
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

func (h *AccountHandler) GetProfile(c *gin.Context) {
	uid := c.GetString("userID")
	profile, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, profile, "profile", nil)
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString("userID")
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	profile, err := h.Svc.UpdateProfile(c.Request.Context(), uid, req.Name)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "failed to update profile", err.Error())
		return
	}
	response.Success(c, http.StatusOK, profile, "profile updated", nil)
}

// UploadAvatar accepts a multipart "avatar" file and stores it in GCS.
func (h *AccountHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString("userID")
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing avatar file", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable avatar file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), uid, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("avatar upload failed")
		response.Error[any](c, http.StatusInternalServerError, "avatar upload failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar_url": url}, "avatar updated", nil)
}
