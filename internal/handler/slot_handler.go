package handler

import (
	"net/http"
	"time"

	"crumble/internal/models"
	"crumble/internal/repository"

	"github.com/gin-gonic/gin"
)

type SlotHandler struct {
	repo *repository.SlotRepository
}

func NewSlotHandler(repo *repository.SlotRepository) *SlotHandler {
	return &SlotHandler{repo: repo}
}

// ListUpcoming returns bookable delivery windows from today onward.
func (h *SlotHandler) ListUpcoming(c *gin.Context) {
	today := time.Now().Truncate(24 * time.Hour)
	slots, err := h.repo.ListUpcoming(today, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list slots"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

type slotRequest struct {
	Date      string `json:"date" binding:"required"` // YYYY-MM-DD
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Capacity  int    `json:"capacity" binding:"required,min=1"`
	IsActive  *bool  `json:"is_active"`
}

func (h *SlotHandler) Create(c *gin.Context) {
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format (use YYYY-MM-DD)"})
		return
	}
	s := &models.DeliverySlot{
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Capacity:  req.Capacity,
		IsActive:  true,
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
	if err := h.repo.Create(s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"slot": s})
}

func (h *SlotHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slot id"})
		return
	}
	s, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "slot not found"})
		return
	}
	var req struct {
		Capacity *int  `json:"capacity"`
		IsActive *bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Capacity != nil {
		if *req.Capacity < s.Booked {
			c.JSON(http.StatusBadRequest, gin.H{"error": "capacity cannot go below booked count"})
			return
		}
		s.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
	if err := h.repo.Update(s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slot": s})
}
