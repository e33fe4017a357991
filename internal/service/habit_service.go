package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"habit-tracker/internal/logger"
	"habit-tracker/internal/matching"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/streak"
)

const pointsPerLevel = 200

// HabitInput represents data required to create a habit.
type HabitInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Difficulty   string `json:"difficulty"`
	Frequency    string `json:"frequency"`
	XPReward     int    `json:"xpReward"`
	ReminderTime string `json:"reminderTime"`
}

// HabitUpdate carries optional field changes; nil fields are left alone.
type HabitUpdate struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Difficulty   *string `json:"difficulty"`
	Frequency    *string `json:"frequency"`
	XPReward     *int    `json:"xpReward"`
	ReminderTime *string `json:"reminderTime"`
}

// CompletionResult describes what a completion changed.
type CompletionResult struct {
	Habit            *model.Habit `json:"habit"`
	AlreadyCompleted bool         `json:"alreadyCompleted"`
	StreakMaintained bool         `json:"streakMaintained"`
	OldStreak        int          `json:"oldStreak"`
	NewStreak        int          `json:"newStreak"`
	PointsAdded      int          `json:"pointsAdded"`
	Level            int          `json:"level"`
	LevelUp          bool         `json:"levelUp"`
	NewBadges        []string     `json:"newBadges"`
}

// HabitService wraps habit-related business logic.
type HabitService struct {
	habits  *repository.HabitRepository
	users   *repository.UserRepository
	badges  *BadgeService
	streaks *streak.Calculator
	log     *logger.Logger
}

func NewHabitService(habits *repository.HabitRepository, users *repository.UserRepository, badges *BadgeService, streaks *streak.Calculator, log *logger.Logger) *HabitService {
	return &HabitService{habits: habits, users: users, badges: badges, streaks: streaks, log: log}
}

// LevelFor returns the level reached with the given points.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return points/pointsPerLevel + 1
}

func (s *HabitService) Create(ctx context.Context, userID string, input HabitInput) (*model.Habit, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	if input.Title == "" {
		return nil, invalid("title is required")
	}
	if input.Category == "" {
		return nil, invalid("category is required")
	}
	difficulty, err := parseDifficulty(input.Difficulty)
	if err != nil {
		return nil, err
	}
	frequency, err := parseFrequency(input.Frequency)
	if err != nil {
		return nil, err
	}
	if input.XPReward < 0 {
		return nil, invalid("xpReward must not be negative")
	}
	if input.XPReward == 0 {
		input.XPReward = model.DefaultXPReward
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, notFound(err, "user")
	}

	habit := model.Habit{
		UserID:       userID,
		Title:        input.Title,
		Description:  strings.TrimSpace(input.Description),
		Category:     input.Category,
		Difficulty:   string(difficulty),
		Frequency:    string(frequency),
		XPReward:     input.XPReward,
		ReminderTime: strings.TrimSpace(input.ReminderTime),
	}
	if err := s.habits.Create(ctx, &habit); err != nil {
		return nil, err
	}
	return &habit, nil
}

func (s *HabitService) List(ctx context.Context, userID string) ([]model.Habit, error) {
	return s.habits.ListByUser(ctx, userID)
}

// Get returns a habit owned by userID.
func (s *HabitService) Get(ctx context.Context, userID, habitID string) (*model.Habit, error) {
	habit, err := s.habits.FindByID(ctx, habitID)
	if err != nil {
		return nil, notFound(err, "habit")
	}
	if habit.UserID != userID {
		return nil, fmt.Errorf("habit %s: %w", habitID, ErrForbidden)
	}
	return habit, nil
}

func (s *HabitService) Update(ctx context.Context, userID, habitID string, upd HabitUpdate) (*model.Habit, error) {
	habit, err := s.Get(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, invalid("title is required")
		}
		habit.Title = title
	}
	if upd.Description != nil {
		habit.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Category != nil {
		category := strings.TrimSpace(*upd.Category)
		if category == "" {
			return nil, invalid("category is required")
		}
		habit.Category = category
	}
	if upd.Difficulty != nil {
		d, err := parseDifficulty(*upd.Difficulty)
		if err != nil {
			return nil, err
		}
		habit.Difficulty = string(d)
	}
	if upd.Frequency != nil {
		f, err := parseFrequency(*upd.Frequency)
		if err != nil {
			return nil, err
		}
		habit.Frequency = string(f)
	}
	if upd.XPReward != nil {
		if *upd.XPReward <= 0 {
			return nil, invalid("xpReward must be positive")
		}
		habit.XPReward = *upd.XPReward
	}
	if upd.ReminderTime != nil {
		habit.ReminderTime = strings.TrimSpace(*upd.ReminderTime)
	}

	if err := s.habits.Save(ctx, habit); err != nil {
		return nil, err
	}
	return habit, nil
}

// Delete removes a habit completely, including its completion history.
func (s *HabitService) Delete(ctx context.Context, userID, habitID string) error {
	if _, err := s.Get(ctx, userID, habitID); err != nil {
		return err
	}
	return s.habits.Delete(ctx, habitID)
}

// Complete records a completion of the habit on day. Completing a day that
// is already recorded changes nothing and awards no points.
func (s *HabitService) Complete(ctx context.Context, userID, habitID string, day time.Time) (*CompletionResult, error) {
	habit, err := s.Get(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}

	key := streak.DayKey(day)
	for _, c := range habit.Completions {
		if c.Day == key {
			s.log.Debug("habit already completed", "habit_id", habit.ID, "day", key)
			return &CompletionResult{Habit: habit, AlreadyCompleted: true, OldStreak: habit.Streak, NewStreak: habit.Streak}, nil
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}

	points := habit.XPReward
	if points <= 0 {
		points = model.DefaultXPReward
	}

	oldStreak := habit.Streak
	maintained := s.streaks.ShouldMaintain(habit.CompletedDates(), day)
	newStreak := s.streaks.Consecutive(habit.CompletedDates(), &day)

	current, err := s.bestCurrentStreak(ctx, userID, habit.ID, newStreak)
	if err != nil {
		return nil, err
	}

	habit.Streak = newStreak
	habit.PointsEarned += points
	if habit.LastCompletedAt == nil || day.After(*habit.LastCompletedAt) {
		completedAt := day
		habit.LastCompletedAt = &completedAt
	}

	oldLevel := user.Level
	user.Points += points
	user.Level = LevelFor(user.Points)
	user.Stats.TotalHabitsCompleted++
	user.Stats.TotalXPEarned += points
	user.Stats.CurrentStreak = current
	if current > user.Stats.LongestStreak {
		user.Stats.LongestStreak = current
	}

	completion := model.HabitCompletion{Day: key, CompletedAt: day}
	if err := s.habits.RecordCompletion(ctx, habit, &completion, user); err != nil {
		return nil, err
	}
	habit.Completions = append(habit.Completions, completion)

	s.log.Info("habit completed",
		"habit_id", habit.ID,
		"user_id", userID,
		"day", key,
		"old_streak", oldStreak,
		"new_streak", newStreak,
		"points", points,
	)
	if user.Level > oldLevel {
		s.log.Info("user leveled up", "user_id", userID, "from", oldLevel, "to", user.Level)
	}

	result := &CompletionResult{
		Habit:            habit,
		StreakMaintained: maintained,
		OldStreak:        oldStreak,
		NewStreak:        newStreak,
		PointsAdded:      points,
		Level:            user.Level,
		LevelUp:          user.Level > oldLevel,
	}

	// Badge failures never undo a completion.
	if s.badges != nil {
		unlocked, err := s.badges.Check(ctx, userID)
		if err != nil {
			s.log.Warn("badge check failed", "user_id", userID, "error", err)
		} else {
			result.NewBadges = unlocked
		}
	}

	return result, nil
}

// StreakInfo reports the current streak status of a habit.
func (s *HabitService) StreakInfo(ctx context.Context, userID, habitID string) (streak.Info, error) {
	habit, err := s.Get(ctx, userID, habitID)
	if err != nil {
		return streak.Info{}, err
	}
	return s.streaks.Info(habit.CompletedDates()), nil
}

// History returns the distinct completion days of a habit, newest first.
func (s *HabitService) History(ctx context.Context, userID, habitID string) ([]string, error) {
	habit, err := s.Get(ctx, userID, habitID)
	if err != nil {
		return nil, err
	}
	return streak.SortedDays(habit.CompletedDates()), nil
}

// bestCurrentStreak is the user's highest current streak once habitID
// moves to streakOf.
func (s *HabitService) bestCurrentStreak(ctx context.Context, userID, habitID string, streakOf int) (int, error) {
	habits, err := s.habits.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	best := streakOf
	for i := range habits {
		if habits[i].ID == habitID {
			continue
		}
		if n := s.streaks.Consecutive(habits[i].CompletedDates(), nil); n > best {
			best = n
		}
	}
	return best, nil
}

func parseDifficulty(raw string) (matching.Difficulty, error) {
	switch d := matching.Difficulty(strings.ToLower(strings.TrimSpace(raw))); d {
	case matching.DifficultyEasy, matching.DifficultyMedium, matching.DifficultyHard:
		return d, nil
	default:
		return "", invalid("difficulty must be easy, medium or hard")
	}
}

func parseFrequency(raw string) (matching.Frequency, error) {
	switch f := matching.Frequency(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return matching.FrequencyDaily, nil
	case matching.FrequencyDaily, matching.FrequencyWeekly:
		return f, nil
	default:
		return "", invalid("frequency must be daily or weekly")
	}
}
