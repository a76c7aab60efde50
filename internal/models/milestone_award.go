package models

import "time"

// MilestoneAward records that a referrer has been paid the bonus for one
// milestone level. The (UserID, Level) unique index is the idempotency gate:
// inserting a duplicate fails, so each threshold pays out at most once no
// matter how often the milestone check runs.
type MilestoneAward struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_milestone_user_level" json:"user_id"`
	Level     int       `gorm:"not null;uniqueIndex:idx_milestone_user_level" json:"level"`
	Label     string    `gorm:"size:50;not null" json:"label"`
	Bonus     int64     `gorm:"not null" json:"bonus"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (MilestoneAward) TableName() string { return "milestone_awards" }
