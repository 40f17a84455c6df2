package models

import "time"

type BadgeCondition string

const (
	ConditionSolved BadgeCondition = "solved"
	ConditionXP     BadgeCondition = "xp"
)

type Badge struct {
	ID          string         `gorm:"primaryKey;type:text" json:"id"`
	Name        string         `gorm:"uniqueIndex" json:"name"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"` // Name of the Lucide icon
	Condition   BadgeCondition `gorm:"type:text" json:"condition"`
	Threshold   int            `json:"threshold"`
}

type UserBadge struct {
	UserID     string    `gorm:"primaryKey;type:text" json:"userId"`
	BadgeID    string    `gorm:"primaryKey;type:text" json:"badgeId"`
	UnlockedAt time.Time `json:"unlockedAt"`

	Badge Badge `gorm:"foreignKey:BadgeID" json:"badge"`
}

func (UserBadge) TableName() string {
	return "user_badges"
}
