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

// RewardHandler serves the reward catalog and claim endpoints.
type RewardHandler struct {
	Svc    *app.WellbeingService
	Logger *logrus.Logger
}

func NewRewardHandler(svc *app.WellbeingService, logger *logrus.Logger) *RewardHandler {
	return &RewardHandler{Svc: svc, Logger: logger}
}

type claimRewardRequest struct {
	Reward string `json:"reward" binding:"required"`
}

func (h *RewardHandler) Catalog(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"rewards": h.Svc.RewardCatalog()}, "reward catalog", nil)
}

func (h *RewardHandler) Claim(c *gin.Context) {
	uid := c.GetString("userID")
	var req claimRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	claim, err := h.Svc.ClaimReward(c.Request.Context(), uid, req.Reward, clientIP(c), c.GetHeader("User-Agent"))
	if errors.Is(err, app.ErrRewardUnknown) {
		response.Error[any](c, http.StatusBadRequest, "unknown reward", nil)
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("claim reward failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to claim reward", nil)
		return
	}
	response.Success(c, http.StatusCreated, claim, "reward claimed", nil)
}

func (h *RewardHandler) Earned(c *gin.Context) {
	uid := c.GetString("userID")
	earned, err := h.Svc.EarnedRewards(c.Request.Context(), uid)
	if err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("list rewards failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to list rewards", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"rewards": earned}, "earned rewards", nil)
}
