package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/model"
	"habit-tracker/internal/streak"
)

func (f *fixture) completeOn(t *testing.T, userID, habitID string, days ...int) {
	t.Helper()
	for _, n := range days {
		_, err := f.habits.Complete(context.Background(), userID, habitID, day(n))
		require.NoError(t, err)
	}
}

func (f *fixture) partnership(t *testing.T, a, b *model.User) *model.Partnership {
	t.Helper()
	ctx := context.Background()
	p, err := f.partners.SendRequest(ctx, a.ID, b.ID, "")
	require.NoError(t, err)
	p, err = f.partners.Respond(ctx, b.ID, p.ID, true)
	require.NoError(t, err)
	return p
}

func TestLeaderboardStreaks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.user(t, "alice", "UTC")
	bob := f.user(t, "bob", "UTC")
	f.user(t, "idle", "UTC")

	f.completeOn(t, alice.ID, f.habit(t, alice.ID, "Run", "fitness", "easy").ID, 1, 0)
	f.completeOn(t, bob.ID, f.habit(t, bob.ID, "Read", "learning", "easy").ID, 0)

	board, err := f.leaderboard.Streaks(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, StreakEntry{Rank: 1, UserID: alice.ID, Username: "alice", Level: 1, CurrentStreak: 2, LongestStreak: 2}, board[0])
	assert.Equal(t, 2, board[1].Rank)
	assert.Equal(t, bob.ID, board[1].UserID)

	top, err := f.leaderboard.Streaks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, alice.ID, top[0].UserID)
}

func TestLeaderboardPairsUseSharedDays(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.user(t, "alice", "UTC")
	bob := f.user(t, "bob", "UTC")
	carol := f.user(t, "carol", "UTC")
	dave := f.user(t, "dave", "UTC")

	f.completeOn(t, alice.ID, f.habit(t, alice.ID, "Run", "fitness", "easy").ID, 2, 1, 0)
	f.completeOn(t, bob.ID, f.habit(t, bob.ID, "Read", "learning", "easy").ID, 5, 2, 1, 0)
	// carol and dave are both active but never on the same day
	f.completeOn(t, carol.ID, f.habit(t, carol.ID, "Swim", "fitness", "easy").ID, 0)
	f.completeOn(t, dave.ID, f.habit(t, dave.ID, "Cook", "health", "easy").ID, 1)

	pair := f.partnership(t, alice, bob)
	other := f.partnership(t, carol, dave)

	board, err := f.leaderboard.Pairs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	entry := board[0]
	assert.Equal(t, 1, entry.Rank)
	assert.Equal(t, pair.ID, entry.PartnershipID)
	assert.Equal(t, 3, entry.CurrentStreak)
	assert.Equal(t, 3, entry.LongestStreak)
	assert.Equal(t, streak.StatusActive, entry.Status)
	assert.Equal(t, "2026-03-15", entry.LastCheckIn)
	require.Len(t, entry.Users, 2)
	assert.Equal(t, "alice", entry.Users[0].Username)
	assert.Equal(t, "bob", entry.Users[1].Username)

	duo, err := f.leaderboard.PairStreak(ctx, dave.ID, other.ID)
	require.NoError(t, err)
	assert.Zero(t, duo.CurrentStreak)
	assert.Equal(t, streak.StatusBroken, duo.Status)

	_, err = f.leaderboard.PairStreak(ctx, carol.ID, pair.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = f.leaderboard.PairStreak(ctx, alice.ID, "ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
}
