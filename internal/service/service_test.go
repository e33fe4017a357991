package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"habit-tracker/internal/logger"
	"habit-tracker/internal/matching"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/streak"
	"habit-tracker/internal/testutil"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func day(n int) time.Time { return testNow.AddDate(0, 0, -n) }

type fixture struct {
	db            *gorm.DB
	users         *repository.UserRepository
	habitRepo     *repository.HabitRepository
	partnerships  *repository.PartnershipRepository
	challengeRepo *repository.ChallengeRepository
	calc          *streak.Calculator
	badges        *BadgeService
	habits        *HabitService
	partners      *PartnerService
	streaks       *StreakService
	userSvc       *UserService
	challenges    *ChallengeService
	leaderboard   *LeaderboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := logger.Nop()
	f := &fixture{
		db:            db,
		users:         repository.NewUserRepository(db),
		habitRepo:     repository.NewHabitRepository(db),
		partnerships:  repository.NewPartnershipRepository(db),
		challengeRepo: repository.NewChallengeRepository(db),
		calc:          streak.NewCalculator(clock),
	}
	f.badges = NewBadgeService(f.habitRepo, f.users, f.calc, clock)
	f.habits = NewHabitService(f.habitRepo, f.users, f.badges, f.calc, log)
	f.partners = NewPartnerService(f.users, f.habitRepo, f.partnerships, matching.NewMatcher(clock), log, clock)
	f.streaks = NewStreakService(f.habitRepo, f.users, f.calc, log)
	f.userSvc = NewUserService(f.users)
	f.challenges = NewChallengeService(f.challengeRepo, f.users, log, clock)
	f.leaderboard = NewLeaderboardService(f.users, f.habitRepo, f.partnerships, f.calc, log)
	return f
}

func (f *fixture) user(t *testing.T, name, tz string, goals ...string) *model.User {
	t.Helper()
	u, err := f.userSvc.Create(context.Background(), UserInput{Username: name, Timezone: tz, Goals: goals})
	require.NoError(t, err)
	return u
}

func (f *fixture) habit(t *testing.T, userID, title, category, difficulty string) *model.Habit {
	t.Helper()
	h, err := f.habits.Create(context.Background(), userID, HabitInput{Title: title, Category: category, Difficulty: difficulty})
	require.NoError(t, err)
	return h
}
