package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserStats aggregates a user's habit activity.
type UserStats struct {
	TotalHabitsCompleted int `json:"totalHabitsCompleted"`
	CurrentStreak        int `json:"currentStreak"`
	LongestStreak        int `json:"longestStreak"`
	TotalXPEarned        int `json:"totalXpEarned"`
}

// User is an account that owns habits and can be matched with partners.
type User struct {
	ID                   string                      `gorm:"primaryKey;size:36" json:"id"`
	TelegramID           *int64                      `gorm:"uniqueIndex" json:"-"`
	Username             string                      `gorm:"size:50" json:"username"`
	Email                string                      `gorm:"index" json:"email"`
	IsActive             bool                        `gorm:"default:true;index" json:"isActive"`
	Timezone             string                      `gorm:"default:UTC" json:"timezone"`
	Goals                datatypes.JSONSlice[string] `json:"goals"`
	Level                int                         `gorm:"default:1" json:"level"`
	Points               int                         `json:"points"`
	Stats                UserStats                   `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	AllowPartnerRequests bool                        `gorm:"default:true" json:"allowPartnerRequests"`
	CreatedAt            time.Time                   `json:"createdAt"`
	UpdatedAt            time.Time                   `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserBadge records a badge unlocked by a user.
type UserBadge struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     string    `gorm:"size:36;uniqueIndex:idx_user_badge" json:"-"`
	BadgeID    string    `gorm:"uniqueIndex:idx_user_badge" json:"badgeId"`
	UnlockedAt time.Time `json:"unlockedAt"`
}
