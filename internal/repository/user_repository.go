package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"habit-tracker/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &user, nil
}

// Save writes every column of user, including zero values.
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// UpsertFromTelegram finds or creates a user linked to a Telegram account
// and refreshes the username.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, username string) (*model.User, error) {
	db := r.db.WithContext(ctx)
	existing, err := r.FindByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		if username != "" && username != existing.Username {
			if err := db.Model(existing).Update("username", username).Error; err != nil {
				return nil, fmt.Errorf("update user: %w", err)
			}
		}
		return existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if username == "" {
			username = "tg" + strconv.FormatInt(telegramID, 10)
		}
		user := model.User{
			TelegramID: &telegramID,
			Username:   username,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return &user, nil
	default:
		return nil, err
	}
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("find user by telegram id %d: %w", telegramID, err)
	}
	return &user, nil
}

// ListMatchable returns every active user except id that accepts partner
// requests, oldest first.
func (r *UserRepository) ListMatchable(ctx context.Context, id string) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("id <> ? AND is_active = ? AND allow_partner_requests = ?", id, true, true).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list matchable users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// TopStreaks returns active users with a running streak, longest current
// streak first and longest ever streak as the tie breaker.
func (r *UserRepository) TopStreaks(ctx context.Context, limit int) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND stats_current_streak > 0", true).
		Order("stats_current_streak DESC, stats_longest_streak DESC, created_at ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list top streaks: %w", err)
	}
	return users, nil
}

// ListLinked returns users that have a Telegram account attached.
func (r *UserRepository) ListLinked(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Where("telegram_id IS NOT NULL").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list linked users: %w", err)
	}
	return users, nil
}

// ListBadges returns the badges a user has unlocked, oldest first.
func (r *UserRepository) ListBadges(ctx context.Context, userID string) ([]model.UserBadge, error) {
	var badges []model.UserBadge
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("unlocked_at ASC, id ASC").Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

func (r *UserRepository) AwardBadges(ctx context.Context, badges []model.UserBadge) error {
	if len(badges) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&badges).Error; err != nil {
		return fmt.Errorf("award badges: %w", err)
	}
	return nil
}
