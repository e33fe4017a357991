package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultXPReward = 25

// Habit is a recurring practice a user tracks.
type Habit struct {
	ID              string            `gorm:"primaryKey;size:36" json:"id"`
	UserID          string            `gorm:"size:36;index" json:"userId"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Category        string            `gorm:"index" json:"category"`
	Difficulty      string            `json:"difficulty"`
	Frequency       string            `gorm:"default:daily" json:"frequency"`
	XPReward        int               `gorm:"default:25" json:"xpReward"`
	Streak          int               `json:"streak"`
	LastCompletedAt *time.Time        `json:"lastCompleted,omitempty"`
	PointsEarned    int               `json:"pointsEarned"`
	ReminderTime    string            `json:"reminderTime,omitempty"`
	Completions     []HabitCompletion `gorm:"foreignKey:HabitID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// CompletedDates returns the completion timestamps of a loaded habit.
func (h *Habit) CompletedDates() []time.Time {
	dates := make([]time.Time, 0, len(h.Completions))
	for _, c := range h.Completions {
		dates = append(dates, c.CompletedAt)
	}
	return dates
}

// HabitCompletion marks a habit as done on one calendar day.
type HabitCompletion struct {
	ID          uint      `gorm:"primaryKey"`
	HabitID     string    `gorm:"size:36;uniqueIndex:idx_habit_day"`
	Day         string    `gorm:"size:10;uniqueIndex:idx_habit_day"` // YYYY-MM-DD, UTC
	CompletedAt time.Time
	CreatedAt   time.Time
}
