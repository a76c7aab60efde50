package handler

import (
	"net/http"

	"crumble/internal/models"
	"crumble/internal/repository"

	"github.com/gin-gonic/gin"
)

type BannerHandler struct {
	repo *repository.BannerRepository
}

func NewBannerHandler(repo *repository.BannerRepository) *BannerHandler {
	return &BannerHandler{repo: repo}
}

// ListActive returns the storefront carousel banners.
func (h *BannerHandler) ListActive(c *gin.Context) {
	banners, err := h.repo.ListActive()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list banners"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"banners": banners})
}

func (h *BannerHandler) ListAll(c *gin.Context) {
	banners, err := h.repo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list banners"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"banners": banners})
}

type bannerRequest struct {
	Title    string `json:"title" binding:"required"`
	ImageURL string `json:"image_url" binding:"required"`
	LinkURL  string `json:"link_url"`
	Position int    `json:"position"`
	IsActive *bool  `json:"is_active"`
}

func (h *BannerHandler) Create(c *gin.Context) {
	var req bannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b := &models.Banner{
		Title:    req.Title,
		ImageURL: req.ImageURL,
		LinkURL:  req.LinkURL,
		Position: req.Position,
		IsActive: true,
	}
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if err := h.repo.Create(b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"banner": b})
}

func (h *BannerHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid banner id"})
		return
	}
	b, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "banner not found"})
		return
	}
	var req bannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b.Title = req.Title
	b.ImageURL = req.ImageURL
	b.LinkURL = req.LinkURL
	b.Position = req.Position
	if req.IsActive != nil {
		b.IsActive = *req.IsActive
	}
	if err := h.repo.Update(b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"banner": b})
}

func (h *BannerHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid banner id"})
		return
	}
	if err := h.repo.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
