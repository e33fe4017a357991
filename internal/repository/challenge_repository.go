package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"habit-tracker/internal/model"
)

// ChallengeRepository stores challenges and their participants.
type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, c *model.Challenge) error {
	if err := r.db.WithContext(ctx).Omit("Participants").Create(c).Error; err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	return nil
}

// FindByID returns a challenge with its participants loaded.
func (r *ChallengeRepository) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	var c model.Challenge
	if err := r.db.WithContext(ctx).Preload("Participants").Where("id = ?", id).First(&c).Error; err != nil {
		return nil, fmt.Errorf("find challenge %s: %w", id, err)
	}
	return &c, nil
}

// List returns every challenge, soonest start first.
func (r *ChallengeRepository) List(ctx context.Context) ([]model.Challenge, error) {
	var out []model.Challenge
	if err := r.db.WithContext(ctx).Preload("Participants").
		Order("start_date ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return out, nil
}

// ListJoined returns the challenges userID participates in.
func (r *ChallengeRepository) ListJoined(ctx context.Context, userID string) ([]model.Challenge, error) {
	var out []model.Challenge
	joined := r.db.Model(&model.ChallengeParticipant{}).Select("challenge_id").Where("user_id = ?", userID)
	if err := r.db.WithContext(ctx).Preload("Participants").
		Where("id IN (?)", joined).
		Order("start_date ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list joined challenges: %w", err)
	}
	return out, nil
}

// Save persists challenge columns without touching participants.
func (r *ChallengeRepository) Save(ctx context.Context, c *model.Challenge) error {
	if err := r.db.WithContext(ctx).Omit("Participants").Save(c).Error; err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}

// Delete removes a challenge and its participants.
func (r *ChallengeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("challenge_id = ?", id).Delete(&model.ChallengeParticipant{}).Error; err != nil {
			return fmt.Errorf("delete participants: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&model.Challenge{}).Error; err != nil {
			return fmt.Errorf("delete challenge: %w", err)
		}
		return nil
	})
}

func (r *ChallengeRepository) AddParticipant(ctx context.Context, p *model.ChallengeParticipant) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

// SaveProgress saves a participant's progress and, when rewarded is set,
// the user credited for finishing, in one transaction.
func (r *ChallengeRepository) SaveProgress(ctx context.Context, p *model.ChallengeParticipant, rewarded *model.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("save participant: %w", err)
		}
		if rewarded == nil {
			return nil
		}
		if err := tx.Save(rewarded).Error; err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		return nil
	})
}

// RemoveParticipant deletes userID's entry and reports whether one existed.
func (r *ChallengeRepository) RemoveParticipant(ctx context.Context, challengeID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Delete(&model.ChallengeParticipant{})
	if res.Error != nil {
		return false, fmt.Errorf("remove participant: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
