package handler

import (
	"errors"
	"net/http"

	"crumble/internal/domain"
	"crumble/internal/middleware"
	"crumble/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ScratchHandler struct {
	engine *service.ScratchCardEngine
}

func NewScratchHandler(engine *service.ScratchCardEngine) *ScratchHandler {
	return &ScratchHandler{engine: engine}
}

// List returns the current user's scratch cards. Pending cards hide their
// amount until revealed.
func (h *ScratchHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pagination(c)
	cards, err := h.engine.ListForUser(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list scratch cards"})
		return
	}
	out := make([]gin.H, 0, len(cards))
	for _, card := range cards {
		entry := gin.H{
			"id":         card.ID,
			"order_id":   card.OrderID,
			"status":     card.Status,
			"created_at": card.CreatedAt,
		}
		if card.Status != domain.ScratchStatusPending {
			entry["amount"] = card.Amount
			entry["revealed_at"] = card.RevealedAt
			entry["credited_at"] = card.CreditedAt
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"scratch_cards": out})
}

// Reveal scratches a pending card, exposing its amount. The wallet credit
// happens on delivery, not here.
func (h *ScratchHandler) Reveal(c *gin.Context) {
	cardID, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return
	}
	userID := middleware.GetUserID(c)
	card, err := h.engine.Reveal(cardID, userID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "scratch card not found"})
		case errors.Is(err, service.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": "card already revealed or no longer active"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reveal failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"scratch_card": card})
}
