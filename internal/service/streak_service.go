package service

import (
	"context"

	"habit-tracker/internal/logger"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/streak"
)

const recalcBatchSize = 200

// RecalcSummary counts the outcome of a full streak recalculation.
type RecalcSummary struct {
	Total        int `json:"total"`
	Updated      int `json:"updated"`
	Unchanged    int `json:"unchanged"`
	Errors       int `json:"errors"`
	UsersUpdated int `json:"usersUpdated"`
}

// StreakService keeps cached streaks in line with completion history.
type StreakService struct {
	habits  *repository.HabitRepository
	users   *repository.UserRepository
	streaks *streak.Calculator
	log     *logger.Logger
}

func NewStreakService(habits *repository.HabitRepository, users *repository.UserRepository, streaks *streak.Calculator, log *logger.Logger) *StreakService {
	return &StreakService{habits: habits, users: users, streaks: streaks, log: log}
}

// RecalculateAll recomputes every habit's cached streak from its
// completions, then every user's current and longest streak. Streaks decay
// to zero overnight this way even when nobody completes anything.
func (s *StreakService) RecalculateAll(ctx context.Context) (RecalcSummary, error) {
	var summary RecalcSummary
	best := make(map[string]int)

	err := s.habits.ForEachBatch(ctx, recalcBatchSize, func(batch []model.Habit) error {
		for i := range batch {
			h := &batch[i]
			summary.Total++
			current := s.streaks.Consecutive(h.CompletedDates(), nil)
			if current > best[h.UserID] {
				best[h.UserID] = current
			}
			if current == h.Streak {
				summary.Unchanged++
				continue
			}
			if err := s.habits.UpdateStreak(ctx, h.ID, current); err != nil {
				summary.Errors++
				s.log.Warn("streak update failed", "habit_id", h.ID, "error", err)
				continue
			}
			s.log.Debug("streak corrected", "habit_id", h.ID, "old", h.Streak, "new", current)
			summary.Updated++
		}
		return ctx.Err()
	})
	if err != nil {
		return summary, err
	}

	users, err := s.users.ListAll(ctx)
	if err != nil {
		return summary, err
	}
	for i := range users {
		u := &users[i]
		current := best[u.ID]
		longest := max(u.Stats.LongestStreak, current)
		if current == u.Stats.CurrentStreak && longest == u.Stats.LongestStreak {
			continue
		}
		u.Stats.CurrentStreak = current
		u.Stats.LongestStreak = longest
		if err := s.users.Save(ctx, u); err != nil {
			summary.Errors++
			s.log.Warn("user streak update failed", "user_id", u.ID, "error", err)
			continue
		}
		summary.UsersUpdated++
	}

	s.log.Info("streak recalculation finished",
		"total", summary.Total,
		"updated", summary.Updated,
		"unchanged", summary.Unchanged,
		"errors", summary.Errors,
		"users_updated", summary.UsersUpdated,
	)
	return summary, nil
}
