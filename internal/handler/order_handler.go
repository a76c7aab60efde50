package handler

import (
	"errors"
	"net/http"
	"strconv"

	"crumble/internal/domain"
	"crumble/internal/middleware"
	"crumble/internal/repository"
	"crumble/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrderHandler struct {
	coord *service.OrderCoordinator
}

func NewOrderHandler(coord *service.OrderCoordinator) *OrderHandler {
	return &OrderHandler{coord: coord}
}

type priceRequest struct {
	Items           []service.CartItem `json:"items" binding:"required,min=1,dive"`
	PromoCode       string             `json:"promo_code"`
	WalletRequested int64              `json:"wallet_requested"`
}

type placeRequest struct {
	Items           []service.CartItem `json:"items" binding:"required,min=1,dive"`
	PromoCode       string             `json:"promo_code"`
	WalletRequested int64              `json:"wallet_requested"`
	DeliverySlotID  *uint              `json:"delivery_slot_id"`
	DeliveryAddress string             `json:"delivery_address" binding:"required"`
	Notes           string             `json:"notes"`
}

// respondOrderError maps pricing and placement failures onto HTTP statuses.
func respondOrderError(c *gin.Context, err error) {
	var capErr *service.WalletCapError
	switch {
	case errors.As(err, &capErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":            "wallet amount exceeds redemption cap",
			"requested":        capErr.Requested,
			"redeemable_up_to": capErr.Cap,
		})
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPromoInvalid),
		errors.Is(err, service.ErrPromoExpired),
		errors.Is(err, service.ErrPromoExhausted),
		errors.Is(err, service.ErrPromoMinOrder),
		errors.Is(err, service.ErrPromoAlreadyUsed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrProductUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrSlotFull):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order operation failed"})
	}
}

// Price quotes a cart without placing an order.
func (h *OrderHandler) Price(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)
	result, err := h.coord.PriceOrder(userID, req.Items, req.PromoCode, req.WalletRequested)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pricing": result})
}

// Place creates an order from the cart.
func (h *OrderHandler) Place(c *gin.Context) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := middleware.GetUserID(c)
	order, err := h.coord.PlaceOrder(userID, service.PlaceOrderInput{
		Items:           req.Items,
		PromoCode:       req.PromoCode,
		WalletRequested: req.WalletRequested,
		DeliverySlotID:  req.DeliverySlotID,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		respondOrderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// List returns the current user's orders.
func (h *OrderHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	orders, err := h.coord.OrdersForUser(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get returns one order; customers can only see their own.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.coord.GetOrder(orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	role, _ := c.Get("role")
	if order.UserID != middleware.GetUserID(c) && role != domain.RoleAdmin {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Cancel lets a customer cancel their own order while it is not terminal.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	order, err := h.coord.GetOrder(orderID)
	if err != nil || order.UserID != middleware.GetUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	updated, report, err := h.coord.TransitionStatus(orderID, domain.OrderStatusCancelled)
	if err != nil {
		respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": updated, "side_effects": report})
}

// UpdateStatus is the admin transition endpoint that drives the fulfillment
// flow, including DELIVERED with its incentive side effects.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, report, err := h.coord.TransitionStatus(orderID, req.Status)
	if err != nil {
		respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "side_effects": report})
}

func respondTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status update failed"})
	}
}

func parseID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
