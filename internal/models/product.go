package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog item (cake, pastry, combo). Price is in whole rupees.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Slug        string         `gorm:"uniqueIndex;size:220;not null" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:50;index" json:"category"`
	Price       int64          `gorm:"not null" json:"price"`
	ImageURL    string         `gorm:"size:500" json:"image_url"`
	IsAvailable bool           `gorm:"default:true;index" json:"is_available"`
	IsEggless   bool           `gorm:"default:false" json:"is_eggless"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
