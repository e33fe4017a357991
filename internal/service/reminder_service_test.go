package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderServiceDailySummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.user(t, "alice", "UTC")

	done := f.habit(t, u.ID, "Run", "fitness", "easy")
	risky := f.habit(t, u.ID, "Read <books>", "learning", "easy")
	f.habit(t, u.ID, "Meditate", "mindfulness", "easy")

	_, err := f.habits.Complete(ctx, u.ID, done.ID, day(0))
	require.NoError(t, err)
	_, err = f.habits.Complete(ctx, u.ID, risky.ID, day(1))
	require.NoError(t, err)

	user, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)

	text, err := NewReminderService(f.habitRepo).DailySummary(ctx, *user, testNow)
	require.NoError(t, err)

	assert.Contains(t, text, "2026-03-15")
	assert.Contains(t, text, "Read &lt;books&gt;")

	atRisk := strings.Index(text, "Streaks at risk")
	todo := strings.Index(text, "Still to do today")
	doneIdx := strings.Index(text, "Done today")
	require.True(t, atRisk >= 0 && todo > atRisk && doneIdx > todo, text)

	assert.Contains(t, text[atRisk:todo], "Read")
	assert.Contains(t, text[todo:doneIdx], "Meditate")
	assert.Contains(t, text[doneIdx:], "Run")
}

func TestReminderServiceNoHabits(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "empty", "UTC")

	text, err := NewReminderService(f.habitRepo).DailySummary(context.Background(), *u, testNow)
	require.NoError(t, err)
	assert.Contains(t, text, "/newhabit")
}
