package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChallengeStatus string

const (
	ChallengePending   ChallengeStatus = "pending"
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
)

// Challenge is a time-boxed goal that users join and report progress on.
type Challenge struct {
	ID           string                 `gorm:"primaryKey;size:36" json:"id"`
	CreatorID    string                 `gorm:"size:36;index" json:"creatorId"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	StartDate    time.Time              `json:"startDate"`
	EndDate      time.Time              `json:"endDate"`
	RewardPoints int                    `json:"rewardPoints"`
	Status       ChallengeStatus        `gorm:"default:pending;index" json:"status"`
	Participants []ChallengeParticipant `gorm:"foreignKey:ChallengeID;constraint:OnDelete:CASCADE" json:"participants"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// StatusAt derives the status from the challenge window.
func (c *Challenge) StatusAt(now time.Time) ChallengeStatus {
	switch {
	case now.Before(c.StartDate):
		return ChallengePending
	case now.After(c.EndDate):
		return ChallengeCompleted
	default:
		return ChallengeActive
	}
}

// TotalDays is the length of the window in whole days, rounded up.
func (c *Challenge) TotalDays() int {
	return int(math.Ceil(c.EndDate.Sub(c.StartDate).Hours() / 24))
}

// Participant returns userID's entry, or nil if they have not joined.
func (c *Challenge) Participant(userID string) *ChallengeParticipant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// ChallengeParticipant tracks one user's progress percentage in a challenge.
type ChallengeParticipant struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	ChallengeID string    `gorm:"size:36;uniqueIndex:idx_challenge_user" json:"-"`
	UserID      string    `gorm:"size:36;uniqueIndex:idx_challenge_user;index" json:"userId"`
	Progress    float64   `json:"progress"`
	LastUpdated time.Time `json:"lastUpdated"`
	JoinedAt    time.Time `json:"joinedAt"`
}
