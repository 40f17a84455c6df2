package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuotaDateLayout is the calendar-date format stored in User.QuotaDate.
const QuotaDateLayout = "2006-01-02"

type User struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joinedAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name         string `gorm:"size:80" json:"name"`
	Email        string `gorm:"size:120;uniqueIndex;not null" json:"email"`
	AuthProvider string `gorm:"size:20;not null" json:"authProvider"`

	XP              int `gorm:"default:0" json:"xp"`
	QuestionsSolved int `gorm:"default:0" json:"questionsSolved"`

	// Daily AI-generation quota. DailyQuotaUsed is only meaningful for QuotaDate.
	DailyQuotaUsed int    `gorm:"default:0" json:"dailyQuotaUsed"`
	QuotaDate      string `gorm:"size:10;index" json:"quotaDate"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
