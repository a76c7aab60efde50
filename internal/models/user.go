package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a storefront customer or an admin. WalletBalance is a cache of the
// wallet_transactions ledger sum; the ledger is the source of truth.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Email         string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name          string         `gorm:"size:100" json:"name"`
	Phone         string         `gorm:"size:20" json:"phone"`
	PasswordHash  string         `gorm:"size:255" json:"-"`
	GoogleID      *string        `gorm:"uniqueIndex;size:64" json:"-"`
	Role          string         `gorm:"size:20;not null;default:'CUSTOMER';index" json:"role"`
	WalletBalance int64          `gorm:"not null;default:0" json:"wallet_balance"`
	FCMToken      string         `gorm:"size:512" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
