package repository

import (
	"strings"

	"crumble/internal/models"

	"gorm.io/gorm"
)

type PromoRepository struct {
	db *gorm.DB
}

func NewPromoRepository(db *gorm.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

func (r *PromoRepository) Create(p *models.PromoCode) error {
	return r.db.Create(p).Error
}

func (r *PromoRepository) Update(p *models.PromoCode) error {
	return r.db.Save(p).Error
}

func (r *PromoRepository) Delete(id uint) error {
	return r.db.Delete(&models.PromoCode{}, id).Error
}

func (r *PromoRepository) GetByID(id uint) (*models.PromoCode, error) {
	var p models.PromoCode
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PromoRepository) GetActiveByCode(code string) (*models.PromoCode, error) {
	var p models.PromoCode
	err := r.db.Where("code = ? AND is_active = ?", strings.ToUpper(code), true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PromoRepository) List(limit, offset int) ([]models.PromoCode, error) {
	var list []models.PromoCode
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// IncrementUsage bumps used_count, respecting the usage limit when one is set.
// Returns false when the code is exhausted.
func (r *PromoRepository) IncrementUsage(id uint) (bool, error) {
	res := r.db.Model(&models.PromoCode{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
