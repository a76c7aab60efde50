package models

import (
	"time"

	"gorm.io/gorm"
)

// WalletTransaction is an immutable ledger entry. A user's spendable balance is
// the running sum of these rows; rows are never updated or deleted.
type WalletTransaction struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	Direction   string         `gorm:"size:10;not null" json:"direction"` // CREDIT, DEBIT
	Amount      int64          `gorm:"not null" json:"amount"`
	Category    string         `gorm:"size:30;not null;index" json:"category"`
	OrderID     *uint          `gorm:"index" json:"order_id"`
	Description string         `gorm:"size:255" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
