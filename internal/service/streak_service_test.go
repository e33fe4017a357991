package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/logger"
	"habit-tracker/internal/streak"
)

func TestStreakServiceRecalculateAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice", "UTC")
	run := f.habit(t, u.ID, "Run", "fitness", "easy")
	read := f.habit(t, u.ID, "Read", "learning", "easy")

	for _, n := range []int{3, 2, 1} {
		_, err := f.habits.Complete(ctx, u.ID, run.ID, day(n))
		require.NoError(t, err)
	}
	_, err := f.habits.Complete(ctx, u.ID, read.ID, day(5))
	require.NoError(t, err)

	// Two days later nothing has been completed: both streaks lapsed.
	later := testNow.AddDate(0, 0, 2)
	svc := NewStreakService(f.habitRepo, f.users, streak.NewCalculator(func() time.Time { return later }), logger.Nop())

	summary, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Updated)
	assert.Zero(t, summary.Unchanged)
	assert.Zero(t, summary.Errors)
	assert.Equal(t, 1, summary.UsersUpdated)

	stored, err := f.habitRepo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.Streak)

	user, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, user.Stats.CurrentStreak)
	assert.Equal(t, 3, user.Stats.LongestStreak)

	again, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Updated)
	assert.Zero(t, again.UsersUpdated)
}
