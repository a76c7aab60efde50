package handler

import (
	"net/http"

	"crumble/internal/domain"
	"crumble/internal/repository"
	"crumble/internal/ws"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	orderRepo   *repository.OrderRepository
	settingRepo *repository.SettingRepository
	userRepo    *repository.UserRepository
	walletRepo  *repository.WalletRepository
	hub         *ws.Hub
}

func NewAdminHandler(
	orderRepo *repository.OrderRepository,
	settingRepo *repository.SettingRepository,
	userRepo *repository.UserRepository,
	walletRepo *repository.WalletRepository,
	hub *ws.Hub,
) *AdminHandler {
	return &AdminHandler{
		orderRepo:   orderRepo,
		settingRepo: settingRepo,
		userRepo:    userRepo,
		walletRepo:  walletRepo,
		hub:         hub,
	}
}

// OrdersByStatus is the kitchen dashboard feed: all orders in one status.
func (h *AdminHandler) OrdersByStatus(c *gin.Context) {
	status := c.DefaultQuery("status", domain.OrderStatusPending)
	if _, ok := domain.OrderStatusRank[status]; !ok && status != domain.OrderStatusCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}
	limit, offset := pagination(c)
	orders, err := h.orderRepo.ListByStatus(status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// WalletAudit reconciles a user's cached balance against the ledger sum.
func (h *AdminHandler) WalletAudit(c *gin.Context) {
	userID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	u, err := h.userRepo.GetByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	ledgerSum, err := h.walletRepo.LedgerSum(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audit failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":        userID,
		"cached_balance": u.WalletBalance,
		"ledger_sum":     ledgerSum,
		"consistent":     u.WalletBalance == ledgerSum,
	})
}

// Announce pushes a storefront-wide notice to every connected tracking
// client, e.g. a delivery slot closing for the day.
func (h *AdminHandler) Announce(c *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.hub.BroadcastAll(gin.H{
		"type":    "announcement",
		"title":   req.Title,
		"message": req.Message,
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok", "recipients": h.hub.ClientCount()})
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingRepo.GetAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *AdminHandler) SetSetting(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.settingRepo.Set(req.Key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save setting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
