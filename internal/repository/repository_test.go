package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/testutil"
)

func TestUserRepositoryUpsertFromTelegram(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewDB(t))

	u, err := repo.UpsertFromTelegram(ctx, 42, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "UTC", u.Timezone)
	assert.Equal(t, 1, u.Level)

	again, err := repo.UpsertFromTelegram(ctx, 42, "alice2")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	found, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice2", found.Username)

	anon, err := repo.UpsertFromTelegram(ctx, 7, "")
	require.NoError(t, err)
	assert.Equal(t, "tg7", anon.Username)

	linked, err := repo.ListLinked(ctx)
	require.NoError(t, err)
	assert.Len(t, linked, 2)
}

func TestUserRepositoryListMatchable(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewDB(t))

	me := &model.User{Username: "me"}
	other := &model.User{Username: "other", Goals: []string{"health"}}
	gone := &model.User{Username: "gone"}
	private := &model.User{Username: "private"}
	for _, u := range []*model.User{me, other, gone, private} {
		require.NoError(t, repo.Create(ctx, u))
	}
	gone.IsActive = false
	require.NoError(t, repo.Save(ctx, gone))
	private.AllowPartnerRequests = false
	require.NoError(t, repo.Save(ctx, private))

	users, err := repo.ListMatchable(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, other.ID, users[0].ID)
	assert.Equal(t, []string{"health"}, []string(users[0].Goals))

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestHabitRepositoryCompletions(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	users := repository.NewUserRepository(db)
	habits := repository.NewHabitRepository(db)

	u := &model.User{Username: "u"}
	require.NoError(t, users.Create(ctx, u))

	h := &model.Habit{UserID: u.ID, Title: "Run", Category: "fitness", Difficulty: "medium"}
	require.NoError(t, habits.Create(ctx, h))
	assert.Equal(t, model.DefaultXPReward, h.XPReward)

	day := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	h.Streak = 1
	u.Points = 25
	require.NoError(t, habits.RecordCompletion(ctx, h, &model.HabitCompletion{Day: "2026-03-14", CompletedAt: day}, u))

	// same day twice violates the unique index and rolls the user back too
	u.Points = 50
	err := habits.RecordCompletion(ctx, h, &model.HabitCompletion{Day: "2026-03-14", CompletedAt: day}, u)
	assert.Error(t, err)

	owner, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, owner.Points)

	loaded, err := habits.FindByID(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Completions, 1)
	assert.Equal(t, 1, loaded.Streak)
	assert.True(t, loaded.CompletedDates()[0].Equal(day))

	require.NoError(t, habits.UpdateStreak(ctx, h.ID, 5))
	list, err := habits.ListByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].Streak)

	require.NoError(t, habits.Delete(ctx, h.ID))
	_, err = habits.FindByID(ctx, h.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestHabitRepositoryForEachBatch(t *testing.T) {
	ctx := context.Background()
	habits := repository.NewHabitRepository(testutil.NewDB(t))

	for i := 0; i < 5; i++ {
		require.NoError(t, habits.Create(ctx, &model.Habit{UserID: "u", Title: "h"}))
	}

	seen := 0
	batches := 0
	err := habits.ForEachBatch(ctx, 2, func(batch []model.Habit) error {
		batches++
		seen += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
	assert.Equal(t, 3, batches)
}

func TestPartnershipRepositoryFindOpenBetween(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPartnershipRepository(testutil.NewDB(t))

	p := &model.Partnership{RequesterID: "a", PartnerID: "b", MatchScore: 70}
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, model.PartnershipPending, p.Status)

	found, err := repo.FindOpenBetween(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	p.Status = model.PartnershipDeclined
	require.NoError(t, repo.Save(ctx, p))
	_, err = repo.FindOpenBetween(ctx, "a", "b")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	list, err := repo.ListByUser(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserRepositoryTopStreaks(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewDB(t))

	steady := &model.User{Username: "steady", Stats: model.UserStats{CurrentStreak: 4, LongestStreak: 4}}
	veteran := &model.User{Username: "veteran", Stats: model.UserStats{CurrentStreak: 4, LongestStreak: 12}}
	fresh := &model.User{Username: "fresh", Stats: model.UserStats{CurrentStreak: 1, LongestStreak: 1}}
	idle := &model.User{Username: "idle", Stats: model.UserStats{LongestStreak: 30}}
	for _, u := range []*model.User{steady, veteran, fresh, idle} {
		require.NoError(t, repo.Create(ctx, u))
	}

	top, err := repo.TopStreaks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"veteran", "steady", "fresh"}, []string{top[0].Username, top[1].Username, top[2].Username})

	top, err = repo.TopStreaks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, veteran.ID, top[0].ID)
}

func TestChallengeRepositoryParticipants(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := repository.NewChallengeRepository(db)
	users := repository.NewUserRepository(db)

	u := &model.User{Username: "alice"}
	require.NoError(t, users.Create(ctx, u))

	start := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	c := &model.Challenge{CreatorID: u.ID, Title: "Run", StartDate: start, EndDate: start.AddDate(0, 0, 5)}
	require.NoError(t, repo.Create(ctx, c))
	require.NotEmpty(t, c.ID)

	p := &model.ChallengeParticipant{ChallengeID: c.ID, UserID: u.ID, JoinedAt: start}
	require.NoError(t, repo.AddParticipant(ctx, p))
	assert.Error(t, repo.AddParticipant(ctx, &model.ChallengeParticipant{ChallengeID: c.ID, UserID: u.ID}), "one entry per user")

	joined, err := repo.ListJoined(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	require.Len(t, joined[0].Participants, 1)

	p.Progress = 100
	u.Points = 30
	require.NoError(t, repo.SaveProgress(ctx, p, u))
	stored, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ChallengePending, stored.Status)
	assert.Equal(t, 100.0, stored.Participant(u.ID).Progress)
	owner, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, owner.Points)

	removed, err := repo.RemoveParticipant(ctx, c.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.RemoveParticipant(ctx, c.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.FindByID(ctx, c.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
