package repository

import (
	"crumble/internal/models"

	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(p *models.Product) error {
	return r.db.Create(p).Error
}

func (r *ProductRepository) Update(p *models.Product) error {
	return r.db.Save(p).Error
}

func (r *ProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

func (r *ProductRepository) GetByID(id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) GetBySlug(slug string) (*models.Product, error) {
	var p models.Product
	if err := r.db.Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns available products, optionally filtered by category. Admin
// callers pass includeUnavailable to see the full catalog.
func (r *ProductRepository) List(category string, includeUnavailable bool, limit, offset int) ([]models.Product, error) {
	var list []models.Product
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if !includeUnavailable {
		q = q.Where("is_available = ?", true)
	}
	err := q.Find(&list).Error
	return list, err
}

// GetByIDs loads products for order placement; missing ids surface as a short
// result slice the caller must check.
func (r *ProductRepository) GetByIDs(ids []uint) ([]models.Product, error) {
	var list []models.Product
	err := r.db.Where("id IN ?", ids).Find(&list).Error
	return list, err
}
