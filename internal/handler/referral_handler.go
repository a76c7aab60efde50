package handler

import (
	"errors"
	"net/http"

	"crumble/internal/middleware"
	"crumble/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	engine     *service.ReferralEngine
	milestones *service.MilestoneEngine
}

func NewReferralHandler(engine *service.ReferralEngine, milestones *service.MilestoneEngine) *ReferralHandler {
	return &ReferralHandler{engine: engine, milestones: milestones}
}

// MyCode returns (and creates on first call) the user's referral code.
func (h *ReferralHandler) MyCode(c *gin.Context) {
	userID := middleware.GetUserID(c)
	code, err := h.engine.CodeFor(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referral code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code.Code})
}

// Validate checks a referral code before signup and returns the referrer's
// first name so the signup screen can show who invited the user.
func (h *ReferralHandler) Validate(c *gin.Context) {
	code := c.Param("code")
	owner, err := h.engine.ValidateCode(code)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid referral code"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "referrer_name": owner.Name})
}

// List returns the referrals the current user has made.
func (h *ReferralHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	referrals, err := h.engine.ListForReferrer(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list referrals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": referrals})
}

// Stats returns the completed-referral count and the display tier.
func (h *ReferralHandler) Stats(c *gin.Context) {
	userID := middleware.GetUserID(c)
	count, tier, err := h.engine.Stats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"completed_referrals": count,
		"tier":                tier,
	})
}

// Milestones returns the milestone bonuses the user has already earned.
func (h *ReferralHandler) Milestones(c *gin.Context) {
	userID := middleware.GetUserID(c)
	awards, err := h.milestones.Awards(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load milestones"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestones": awards})
}
