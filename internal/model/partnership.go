package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartnershipStatus string

const (
	PartnershipPending  PartnershipStatus = "pending"
	PartnershipActive   PartnershipStatus = "active"
	PartnershipDeclined PartnershipStatus = "declined"
	PartnershipEnded    PartnershipStatus = "ended"
)

// MatchCriteria is the score breakdown captured when a request was sent.
type MatchCriteria struct {
	HabitSimilarity       float64 `json:"habitSimilarity"`
	TimezoneCompatibility float64 `json:"timezoneCompatibility"`
	ActivityLevel         float64 `json:"activityLevel"`
	GoalAlignment         float64 `json:"goalAlignment"`
}

// Partnership links two users who hold each other accountable.
type Partnership struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	RequesterID string            `gorm:"size:36;index" json:"requesterId"`
	PartnerID   string            `gorm:"size:36;index" json:"partnerId"`
	Status      PartnershipStatus `gorm:"default:pending;index" json:"status"`
	MatchScore  float64           `json:"matchScore"`
	Criteria    MatchCriteria     `gorm:"embedded;embeddedPrefix:criteria_" json:"matchingCriteria"`
	Message     string            `json:"message,omitempty"`
	AcceptedAt  *time.Time        `json:"acceptedAt,omitempty"`
	EndedAt     *time.Time        `json:"endedAt,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (p *Partnership) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Involves reports whether userID is one side of the partnership.
func (p *Partnership) Involves(userID string) bool {
	return p.RequesterID == userID || p.PartnerID == userID
}
