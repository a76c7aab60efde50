package models

import (
	"time"

	"gorm.io/gorm"
)

// Banner is a storefront promotional banner managed from the admin panel.
type Banner struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	ImageURL  string         `gorm:"size:500;not null" json:"image_url"`
	LinkURL   string         `gorm:"size:500" json:"link_url"`
	Position  int            `gorm:"not null;default:0" json:"position"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Banner) TableName() string {
	return "banners"
}
