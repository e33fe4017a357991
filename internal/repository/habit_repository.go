package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"habit-tracker/internal/model"
)

// HabitRepository handles CRUD for habits and their completions.
type HabitRepository struct {
	db *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) Create(ctx context.Context, habit *model.Habit) error {
	if err := r.db.WithContext(ctx).Create(habit).Error; err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

// ListByUser returns a user's habits with completions loaded.
func (r *HabitRepository) ListByUser(ctx context.Context, userID string) ([]model.Habit, error) {
	var habits []model.Habit
	if err := r.db.WithContext(ctx).
		Preload("Completions").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

func (r *HabitRepository) FindByID(ctx context.Context, habitID string) (*model.Habit, error) {
	var habit model.Habit
	if err := r.db.WithContext(ctx).Preload("Completions").Where("id = ?", habitID).First(&habit).Error; err != nil {
		return nil, fmt.Errorf("find habit %s: %w", habitID, err)
	}
	return &habit, nil
}

// Save persists habit columns without touching completions.
func (r *HabitRepository) Save(ctx context.Context, habit *model.Habit) error {
	if err := r.db.WithContext(ctx).Omit("Completions").Save(habit).Error; err != nil {
		return fmt.Errorf("save habit: %w", err)
	}
	return nil
}

// RecordCompletion inserts the completion and saves the habit and its
// owner in one transaction.
func (r *HabitRepository) RecordCompletion(ctx context.Context, habit *model.Habit, completion *model.HabitCompletion, owner *model.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		completion.HabitID = habit.ID
		if err := tx.Create(completion).Error; err != nil {
			return fmt.Errorf("create completion: %w", err)
		}
		if err := tx.Omit("Completions").Save(habit).Error; err != nil {
			return fmt.Errorf("save habit: %w", err)
		}
		if err := tx.Save(owner).Error; err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		return nil
	})
}

func (r *HabitRepository) UpdateStreak(ctx context.Context, habitID string, streak int) error {
	if err := r.db.WithContext(ctx).Model(&model.Habit{}).Where("id = ?", habitID).
		Update("streak", streak).Error; err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

// Delete removes a habit and its completions.
func (r *HabitRepository) Delete(ctx context.Context, habitID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", habitID).Delete(&model.HabitCompletion{}).Error; err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}
		if err := tx.Where("id = ?", habitID).Delete(&model.Habit{}).Error; err != nil {
			return fmt.Errorf("delete habit: %w", err)
		}
		return nil
	})
}

// ForEachBatch walks every habit with completions loaded, batchSize at a
// time.
func (r *HabitRepository) ForEachBatch(ctx context.Context, batchSize int, fn func([]model.Habit) error) error {
	var batch []model.Habit
	res := r.db.WithContext(ctx).Preload("Completions").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	if res.Error != nil {
		return fmt.Errorf("iterate habits: %w", res.Error)
	}
	return nil
}
