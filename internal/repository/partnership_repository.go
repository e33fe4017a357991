package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"habit-tracker/internal/model"
)

// PartnershipRepository stores partnership requests and active pairs.
type PartnershipRepository struct {
	db *gorm.DB
}

func NewPartnershipRepository(db *gorm.DB) *PartnershipRepository {
	return &PartnershipRepository{db: db}
}

func (r *PartnershipRepository) Create(ctx context.Context, p *model.Partnership) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create partnership: %w", err)
	}
	return nil
}

func (r *PartnershipRepository) FindByID(ctx context.Context, id string) (*model.Partnership, error) {
	var p model.Partnership
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, fmt.Errorf("find partnership %s: %w", id, err)
	}
	return &p, nil
}

// FindOpenBetween returns a pending or active partnership between the two
// users in either direction.
func (r *PartnershipRepository) FindOpenBetween(ctx context.Context, a, b string) (*model.Partnership, error) {
	var p model.Partnership
	err := r.db.WithContext(ctx).
		Where("((requester_id = ? AND partner_id = ?) OR (requester_id = ? AND partner_id = ?)) AND status IN ?",
			a, b, b, a, []model.PartnershipStatus{model.PartnershipPending, model.PartnershipActive}).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartnershipRepository) ListByUser(ctx context.Context, userID string) ([]model.Partnership, error) {
	var out []model.Partnership
	if err := r.db.WithContext(ctx).
		Where("requester_id = ? OR partner_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list partnerships: %w", err)
	}
	return out, nil
}

// ListActive returns every accepted partnership, oldest acceptance first.
func (r *PartnershipRepository) ListActive(ctx context.Context) ([]model.Partnership, error) {
	var out []model.Partnership
	if err := r.db.WithContext(ctx).
		Where("status = ?", model.PartnershipActive).
		Order("accepted_at ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list active partnerships: %w", err)
	}
	return out, nil
}

func (r *PartnershipRepository) Save(ctx context.Context, p *model.Partnership) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("save partnership: %w", err)
	}
	return nil
}
