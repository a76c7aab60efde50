package handler

import (
	"net/http"
	"strings"
	"time"

	"crumble/internal/domain"
	"crumble/internal/middleware"
	"crumble/internal/models"
	"crumble/internal/repository"
	"crumble/internal/service"

	"github.com/gin-gonic/gin"
)

type PromoHandler struct {
	repo *repository.PromoRepository
	svc  *service.PromoService
}

func NewPromoHandler(repo *repository.PromoRepository, svc *service.PromoService) *PromoHandler {
	return &PromoHandler{repo: repo, svc: svc}
}

// Quote validates a code against a cart subtotal for the current user and
// returns the discount it would grant.
func (h *PromoHandler) Quote(c *gin.Context) {
	var req struct {
		Code     string `json:"code" binding:"required"`
		Subtotal int64  `json:"subtotal" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)
	p, discount, err := h.svc.Quote(userID, req.Code, req.Subtotal)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": p.Code, "discount": discount})
}

type promoRequest struct {
	Code          string `json:"code" binding:"required"`
	Type          string `json:"type" binding:"required,oneof=FLAT PERCENT"`
	Value         int64  `json:"value" binding:"required,min=1"`
	MinOrderValue int64  `json:"min_order_value"`
	MaxDiscount   int64  `json:"max_discount"`
	ExpiresAt     string `json:"expires_at"` // RFC3339, optional
	UsageLimit    int    `json:"usage_limit"`
	IsActive      *bool  `json:"is_active"`
}

func (h *PromoHandler) Create(c *gin.Context) {
	var req promoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == domain.PromoTypePercent && req.Value > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "percent value cannot exceed 100"})
		return
	}
	p := &models.PromoCode{
		Code:          strings.ToUpper(req.Code),
		Type:          req.Type,
		Value:         req.Value,
		MinOrderValue: req.MinOrderValue,
		MaxDiscount:   req.MaxDiscount,
		UsageLimit:    req.UsageLimit,
		IsActive:      true,
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires_at (use RFC3339)"})
			return
		}
		p.ExpiresAt = &expires
	}
	if err := h.repo.Create(p); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "promo code already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"promo": p})
}

func (h *PromoHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	promos, err := h.repo.List(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list promo codes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"promos": promos})
}

func (h *PromoHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promo id"})
		return
	}
	p, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "promo code not found"})
		return
	}
	var req struct {
		IsActive      *bool  `json:"is_active"`
		ExpiresAt     string `json:"expires_at"`
		UsageLimit    *int   `json:"usage_limit"`
		MinOrderValue *int64 `json:"min_order_value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.UsageLimit != nil {
		p.UsageLimit = *req.UsageLimit
	}
	if req.MinOrderValue != nil {
		p.MinOrderValue = *req.MinOrderValue
	}
	if req.ExpiresAt != "" {
		expires, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires_at (use RFC3339)"})
			return
		}
		p.ExpiresAt = &expires
	}
	if err := h.repo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"promo": p})
}

func (h *PromoHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid promo id"})
		return
	}
	if err := h.repo.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
