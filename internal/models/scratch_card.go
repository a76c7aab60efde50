package models

import (
	"time"

	"gorm.io/gorm"
)

// ScratchCard is a per-order cashback voucher. Exactly one card exists per
// order (unique index on OrderID). Lifecycle: PENDING -> REVEALED -> CREDITED,
// or -> EXPIRED when the order is cancelled before crediting. Rows are never
// deleted.
type ScratchCard struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;index" json:"user_id"`
	OrderID    uint           `gorm:"uniqueIndex;not null" json:"order_id"`
	Amount     int64          `gorm:"not null" json:"amount"`
	Status     string         `gorm:"size:20;not null;index" json:"status"`
	RevealedAt *time.Time     `json:"revealed_at"`
	CreditedAt *time.Time     `json:"credited_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (ScratchCard) TableName() string {
	return "scratch_cards"
}
