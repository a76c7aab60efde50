package handler

import (
	"net/http"

	"crumble/internal/domain"
	"crumble/internal/models"
	"crumble/internal/repository"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	repo *repository.ProductRepository
}

func NewProductHandler(repo *repository.ProductRepository) *ProductHandler {
	return &ProductHandler{repo: repo}
}

// List returns available catalog items, optionally filtered by category.
// Admins can pass include_unavailable=true to see hidden items.
func (h *ProductHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	includeUnavailable := c.Query("include_unavailable") == "true" && isAdmin(c)
	products, err := h.repo.List(c.Query("category"), includeUnavailable, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.repo.GetBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

type productRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price" binding:"required,min=1"`
	ImageURL    string `json:"image_url"`
	IsAvailable *bool  `json:"is_available"`
	IsEggless   bool   `json:"is_eggless"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	p := &models.Product{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsAvailable: available,
		IsEggless:   req.IsEggless,
	}
	if err := h.repo.Create(p); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "product with this slug already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": p})
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	p, err := h.repo.GetByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p.Name = req.Name
	p.Slug = req.Slug
	p.Description = req.Description
	p.Category = req.Category
	p.Price = req.Price
	p.ImageURL = req.ImageURL
	p.IsEggless = req.IsEggless
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	if err := h.repo.Update(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	if err := h.repo.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get("role")
	return role == domain.RoleAdmin
}
