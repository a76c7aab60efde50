package models

import (
	"time"

	"gorm.io/gorm"
)

// ReferralCode is a unique invite code belonging to a user.
// Each user has at most one referral code.
type ReferralCode struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Code      string         `gorm:"uniqueIndex;size:20;not null" json:"code"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (ReferralCode) TableName() string { return "referral_codes" }

// Referral links a referrer to a referee. A user can be referred only once
// (unique index on RefereeID). The two bonus flags flip false -> true
// independently and never back; each flip is gated by a conditional update so
// duplicate delivery events cannot double-credit either side.
type Referral struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	ReferrerID            uint           `gorm:"not null;index" json:"referrer_id"`
	RefereeID             uint           `gorm:"uniqueIndex;not null" json:"referee_id"`
	ReferralCode          string         `gorm:"size:20;not null" json:"referral_code"`
	Status                string         `gorm:"size:20;not null;index" json:"status"`
	ReferrerBonus         int64          `gorm:"not null" json:"referrer_bonus"`
	RefereeBonus          int64          `gorm:"not null" json:"referee_bonus"`
	ReferrerBonusCredited bool           `gorm:"not null;default:false" json:"referrer_bonus_credited"`
	RefereeBonusCredited  bool           `gorm:"not null;default:false" json:"referee_bonus_credited"`
	FirstOrderID          *uint          `gorm:"index" json:"first_order_id"`
	CompletedAt           *time.Time     `json:"completed_at"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`

	Referrer User `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	Referee  User `gorm:"foreignKey:RefereeID" json:"referee,omitempty"`
}

func (Referral) TableName() string { return "referrals" }
