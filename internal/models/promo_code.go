package models

import (
	"time"

	"gorm.io/gorm"
)

// PromoCode is an admin-managed discount code. Type FLAT discounts Value
// rupees; PERCENT discounts Value percent capped at MaxDiscount.
type PromoCode struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Code          string         `gorm:"uniqueIndex;size:30;not null" json:"code"`
	Type          string         `gorm:"size:10;not null" json:"type"`
	Value         int64          `gorm:"not null" json:"value"`
	MinOrderValue int64          `gorm:"not null;default:0" json:"min_order_value"`
	MaxDiscount   int64          `gorm:"not null;default:0" json:"max_discount"`
	ExpiresAt     *time.Time     `json:"expires_at"`
	UsageLimit    int            `gorm:"not null;default:0" json:"usage_limit"` // 0 = unlimited
	UsedCount     int            `gorm:"not null;default:0" json:"used_count"`
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PromoCode) TableName() string {
	return "promo_codes"
}
