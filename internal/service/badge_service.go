package service

import (
	"context"
	"time"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/streak"
)

// Progress is the set of numbers badges are unlocked from.
type Progress struct {
	TotalCompletions int
	MaxStreak        int
	HabitCount       int
	TotalXP          int
}

// Badge is a catalog entry.
type Badge struct {
	ID          string `json:"badgeId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	unlocked    func(Progress) bool
}

// BadgeCatalog lists every badge that can be earned, in display order.
var BadgeCatalog = []Badge{
	{ID: "first_habit", Name: "First Steps", Description: "Complete your first habit", Icon: "🎯",
		unlocked: func(p Progress) bool { return p.TotalCompletions >= 1 }},
	{ID: "week_streak", Name: "Week Warrior", Description: "Maintain a 7-day streak", Icon: "🔥",
		unlocked: func(p Progress) bool { return p.MaxStreak >= 7 }},
	{ID: "habit_collector", Name: "Habit Collector", Description: "Create 5 different habits", Icon: "📚",
		unlocked: func(p Progress) bool { return p.HabitCount >= 5 }},
	{ID: "habit_master", Name: "Habit Master", Description: "Create 10 different habits", Icon: "👑",
		unlocked: func(p Progress) bool { return p.HabitCount >= 10 }},
	{ID: "streak_legend", Name: "Streak Legend", Description: "Achieve a 30-day streak", Icon: "⚡",
		unlocked: func(p Progress) bool { return p.MaxStreak >= 30 }},
	{ID: "dedication_master", Name: "Dedication Master", Description: "Complete 100 habits total", Icon: "💎",
		unlocked: func(p Progress) bool { return p.TotalCompletions >= 100 }},
	{ID: "xp_warrior", Name: "XP Warrior", Description: "Earn 1000 XP from habits", Icon: "⚔️",
		unlocked: func(p Progress) bool { return p.TotalXP >= 1000 }},
}

// EarnedBadges returns the ids of every catalog badge progress satisfies.
func EarnedBadges(p Progress) []string {
	var out []string
	for _, b := range BadgeCatalog {
		if b.unlocked(p) {
			out = append(out, b.ID)
		}
	}
	return out
}

// BadgeStatus is a catalog badge plus whether the user holds it.
type BadgeStatus struct {
	Badge
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

// BadgeService awards badges from habit progress.
type BadgeService struct {
	habits  *repository.HabitRepository
	users   *repository.UserRepository
	streaks *streak.Calculator
	now     func() time.Time
}

func NewBadgeService(habits *repository.HabitRepository, users *repository.UserRepository, streaks *streak.Calculator, now func() time.Time) *BadgeService {
	if now == nil {
		now = time.Now
	}
	return &BadgeService{habits: habits, users: users, streaks: streaks, now: now}
}

// Check awards every newly satisfied badge and returns their ids.
func (s *BadgeService) Check(ctx context.Context, userID string) ([]string, error) {
	progress, err := s.progress(ctx, userID)
	if err != nil {
		return nil, err
	}
	held, err := s.held(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var fresh []model.UserBadge
	var ids []string
	for _, id := range EarnedBadges(progress) {
		if _, ok := held[id]; ok {
			continue
		}
		fresh = append(fresh, model.UserBadge{UserID: userID, BadgeID: id, UnlockedAt: now})
		ids = append(ids, id)
	}
	if err := s.users.AwardBadges(ctx, fresh); err != nil {
		return nil, err
	}
	return ids, nil
}

// List returns the full catalog annotated with the user's unlocks.
func (s *BadgeService) List(ctx context.Context, userID string) ([]BadgeStatus, error) {
	held, err := s.held(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]BadgeStatus, 0, len(BadgeCatalog))
	for _, b := range BadgeCatalog {
		status := BadgeStatus{Badge: b}
		if at, ok := held[b.ID]; ok {
			at := at
			status.Unlocked = true
			status.UnlockedAt = &at
		}
		out = append(out, status)
	}
	return out, nil
}

func (s *BadgeService) progress(ctx context.Context, userID string) (Progress, error) {
	habits, err := s.habits.ListByUser(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	p := Progress{HabitCount: len(habits)}
	for i := range habits {
		p.TotalCompletions += len(habits[i].Completions)
		p.TotalXP += habits[i].PointsEarned
		if n := s.streaks.Consecutive(habits[i].CompletedDates(), nil); n > p.MaxStreak {
			p.MaxStreak = n
		}
	}
	return p, nil
}

func (s *BadgeService) held(ctx context.Context, userID string) (map[string]time.Time, error) {
	badges, err := s.users.ListBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	held := make(map[string]time.Time, len(badges))
	for _, b := range badges {
		held[b.BadgeID] = b.UnlockedAt
	}
	return held, nil
}
