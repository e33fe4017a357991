package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"habit-tracker/internal/logger"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/streak"
)

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// StreakEntry is one row of the individual streak leaderboard.
type StreakEntry struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"userId"`
	Username      string `json:"username"`
	Level         int    `json:"level"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
}

// DuoStreak counts the days on which both partners completed at least one
// habit.
type DuoStreak struct {
	CurrentStreak int           `json:"currentStreak"`
	LongestStreak int           `json:"longestStreak"`
	Status        streak.Status `json:"status"`
	LastCheckIn   string        `json:"lastCheckIn,omitempty"`
}

type PairMember struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Level    int    `json:"level"`
}

// PairEntry is one row of the partnership streak leaderboard.
type PairEntry struct {
	Rank          int          `json:"rank"`
	PartnershipID string       `json:"partnershipId"`
	Users         []PairMember `json:"users"`
	DuoStreak
}

// LeaderboardService ranks users and active partnerships by streak.
type LeaderboardService struct {
	users        *repository.UserRepository
	habits       HabitLister
	partnerships *repository.PartnershipRepository
	streaks      *streak.Calculator
	log          *logger.Logger
}

func NewLeaderboardService(users *repository.UserRepository, habits HabitLister, partnerships *repository.PartnershipRepository, streaks *streak.Calculator, log *logger.Logger) *LeaderboardService {
	return &LeaderboardService{users: users, habits: habits, partnerships: partnerships, streaks: streaks, log: log}
}

// Streaks returns the top users by current streak, then longest streak.
func (s *LeaderboardService) Streaks(ctx context.Context, limit int) ([]StreakEntry, error) {
	users, err := s.users.TopStreaks(ctx, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]StreakEntry, 0, len(users))
	for i, u := range users {
		out = append(out, StreakEntry{
			Rank:          i + 1,
			UserID:        u.ID,
			Username:      u.Username,
			Level:         u.Level,
			CurrentStreak: u.Stats.CurrentStreak,
			LongestStreak: u.Stats.LongestStreak,
		})
	}
	return out, nil
}

// Pairs returns the active partnerships with a running duo streak, highest
// current streak first and longest streak as the tie breaker. Pairs that
// cannot be loaded are skipped.
func (s *LeaderboardService) Pairs(ctx context.Context, limit int) ([]PairEntry, error) {
	active, err := s.partnerships.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*PairEntry, len(active))
	var g errgroup.Group
	g.SetLimit(candidateFetchLimit)
	for i := range active {
		g.Go(func() error {
			p := &active[i]
			entry, err := s.pairEntry(ctx, p)
			if err != nil {
				s.log.Warn("skipping partnership on leaderboard", "partnership_id", p.ID, "error", err)
				return nil
			}
			if entry.CurrentStreak > 0 {
				entries[i] = entry
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]PairEntry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			out = append(out, *e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentStreak != out[j].CurrentStreak {
			return out[i].CurrentStreak > out[j].CurrentStreak
		}
		return out[i].LongestStreak > out[j].LongestStreak
	})
	if n := clampLimit(limit); len(out) > n {
		out = out[:n]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// PairStreak returns the duo streak of a partnership userID belongs to.
func (s *LeaderboardService) PairStreak(ctx context.Context, userID, partnershipID string) (DuoStreak, error) {
	p, err := s.partnerships.FindByID(ctx, partnershipID)
	if err != nil {
		return DuoStreak{}, notFound(err, "partnership")
	}
	if !p.Involves(userID) {
		return DuoStreak{}, fmt.Errorf("partnership %s: %w", partnershipID, ErrForbidden)
	}
	return s.duoStreak(ctx, p.RequesterID, p.PartnerID)
}

func (s *LeaderboardService) pairEntry(ctx context.Context, p *model.Partnership) (*PairEntry, error) {
	duo, err := s.duoStreak(ctx, p.RequesterID, p.PartnerID)
	if err != nil {
		return nil, err
	}
	entry := &PairEntry{PartnershipID: p.ID, DuoStreak: duo}
	for _, id := range []string{p.RequesterID, p.PartnerID} {
		u, err := s.users.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		entry.Users = append(entry.Users, PairMember{UserID: u.ID, Username: u.Username, Level: u.Level})
	}
	return entry, nil
}

func (s *LeaderboardService) duoStreak(ctx context.Context, a, b string) (DuoStreak, error) {
	datesA, err := s.completionDays(ctx, a)
	if err != nil {
		return DuoStreak{}, err
	}
	datesB, err := s.completionDays(ctx, b)
	if err != nil {
		return DuoStreak{}, err
	}

	shared := streak.Shared(datesA, datesB)
	info := s.streaks.Info(shared)
	duo := DuoStreak{
		CurrentStreak: info.Streak,
		LongestStreak: streak.Longest(shared),
		Status:        info.Status,
	}
	if days := streak.SortedDays(shared); len(days) > 0 {
		duo.LastCheckIn = days[0]
	}
	return duo, nil
}

// completionDays flattens the completions of every habit userID owns.
func (s *LeaderboardService) completionDays(ctx context.Context, userID string) ([]time.Time, error) {
	habits, err := s.habits.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	for i := range habits {
		dates = append(dates, habits[i].CompletedDates()...)
	}
	return dates, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardSize
	case limit > MaxLeaderboardSize:
		return MaxLeaderboardSize
	}
	return limit
}
