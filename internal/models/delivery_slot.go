package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliverySlot is a bookable delivery window for a given date. Capacity is
// decremented atomically when an order books the slot.
type DeliverySlot struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Date      time.Time      `gorm:"not null;index" json:"date"`
	StartTime string         `gorm:"size:5;not null" json:"start_time"` // "09:00"
	EndTime   string         `gorm:"size:5;not null" json:"end_time"`
	Capacity  int            `gorm:"not null" json:"capacity"`
	Booked    int            `gorm:"not null;default:0" json:"booked"`
	IsActive  bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DeliverySlot) TableName() string {
	return "delivery_slots"
}
