package repository

import (
	"crumble/internal/models"

	"gorm.io/gorm"
)

type BannerRepository struct {
	db *gorm.DB
}

func NewBannerRepository(db *gorm.DB) *BannerRepository {
	return &BannerRepository{db: db}
}

func (r *BannerRepository) Create(b *models.Banner) error {
	return r.db.Create(b).Error
}

func (r *BannerRepository) Update(b *models.Banner) error {
	return r.db.Save(b).Error
}

func (r *BannerRepository) Delete(id uint) error {
	return r.db.Delete(&models.Banner{}, id).Error
}

func (r *BannerRepository) GetByID(id uint) (*models.Banner, error) {
	var b models.Banner
	if err := r.db.First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BannerRepository) ListActive() ([]models.Banner, error) {
	var list []models.Banner
	err := r.db.Where("is_active = ?", true).Order("position ASC").Find(&list).Error
	return list, err
}

func (r *BannerRepository) ListAll() ([]models.Banner, error) {
	var list []models.Banner
	err := r.db.Order("position ASC").Find(&list).Error
	return list, err
}
