package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit-tracker/internal/matching"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
)

type failingLister struct {
	inner *repository.HabitRepository
	fail  map[string]bool
}

func (l failingLister) ListByUser(ctx context.Context, userID string) ([]model.Habit, error) {
	if l.fail[userID] {
		return nil, errors.New("habit store unavailable")
	}
	return l.inner.ListByUser(ctx, userID)
}

func TestPartnerServiceDiscoverRanksCandidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	me := f.user(t, "me", "EST", "health")
	f.habit(t, me.ID, "Run", "fitness", "medium")

	twin := f.user(t, "twin", "EST", "health")
	f.habit(t, twin.ID, "Run", "fitness", "medium")

	far := f.user(t, "far", "JST", "career")
	f.habit(t, far.ID, "Code", "work", "hard")

	matches, err := f.partners.Discover(ctx, me.ID, 5)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, twin.ID, matches[0].UserID)
	assert.Equal(t, far.ID, matches[1].UserID)
	assert.Greater(t, matches[0].MatchScore, matches[1].MatchScore)
	assert.Equal(t, []string{"Run"}, matches[0].CommonHabits)

	top, err := f.partners.Discover(ctx, me.ID, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, twin.ID, top[0].UserID)

	_, err = f.partners.Discover(ctx, "ghost", 5)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPartnerServiceSkipsUnavailableCandidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	me := f.user(t, "me", "UTC")
	broken := f.user(t, "broken", "UTC")
	ok := f.user(t, "ok", "UTC")

	lister := failingLister{inner: f.habitRepo, fail: map[string]bool{broken.ID: true}}
	svc := NewPartnerService(f.users, lister, f.partnerships, matching.NewMatcher(clock), f.partners.log, clock)

	matches, err := svc.Discover(ctx, me.ID, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, ok.ID, matches[0].UserID)
}

func TestPartnerServiceDiscoverIgnoresInactiveUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	me := f.user(t, "me", "UTC")
	away := f.user(t, "away", "UTC")
	inactive := false
	_, err := f.userSvc.Update(ctx, away.ID, ProfileUpdate{IsActive: &inactive})
	require.NoError(t, err)

	matches, err := f.partners.Discover(ctx, me.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestPartnerServiceDiscoverWithCriteria(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	me := f.user(t, "me", "GMT")
	near := f.user(t, "near", "GMT")
	f.user(t, "elsewhere", "JST")

	gmt := matching.DefaultFilter()
	gmt.PreferredTimezone = "GMT"
	matches, err := f.partners.DiscoverWithCriteria(ctx, me.ID, gmt)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, near.ID, matches[0].UserID)

	// an explicit zero activity band is honored, not widened
	idle := matching.DefaultFilter()
	idle.ActivityMax = 0
	matches, err = f.partners.DiscoverWithCriteria(ctx, me.ID, idle)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = f.partners.DiscoverWithCriteria(ctx, me.ID, matching.Filter{ActivityMin: 80, ActivityMax: 20})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPartnerServiceRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.user(t, "alice", "UTC", "health")
	bob := f.user(t, "bob", "UTC", "health")
	carol := f.user(t, "carol", "UTC")

	_, err := f.partners.SendRequest(ctx, alice.ID, alice.ID, "")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = f.partners.SendRequest(ctx, alice.ID, "ghost", "")
	assert.True(t, errors.Is(err, ErrNotFound))

	p, err := f.partners.SendRequest(ctx, alice.ID, bob.ID, " let's go ")
	require.NoError(t, err)
	assert.Equal(t, model.PartnershipPending, p.Status)
	assert.Equal(t, "let's go", p.Message)
	// no habits and no activity on either side, same zone and goals
	assert.Equal(t, 82.5, p.MatchScore)

	_, err = f.partners.SendRequest(ctx, bob.ID, alice.ID, "")
	assert.True(t, errors.Is(err, ErrPartnershipExists))

	_, err = f.partners.Respond(ctx, alice.ID, p.ID, true)
	assert.True(t, errors.Is(err, ErrForbidden), "requester cannot answer their own request")

	_, err = f.partners.Respond(ctx, carol.ID, p.ID, true)
	assert.True(t, errors.Is(err, ErrForbidden))

	accepted, err := f.partners.Respond(ctx, bob.ID, p.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.PartnershipActive, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
	assert.True(t, accepted.AcceptedAt.Equal(testNow))

	_, err = f.partners.Respond(ctx, bob.ID, p.ID, false)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	eval, err := f.partners.Evaluate(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 82.5, eval.CurrentScore)
	assert.Equal(t, 82.5, eval.NewScore)
	assert.Zero(t, eval.Improvement)

	_, err = f.partners.Evaluate(ctx, carol.ID, p.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	list, err := f.partners.List(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	ended, err := f.partners.End(ctx, alice.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PartnershipEnded, ended.Status)

	_, err = f.partners.End(ctx, bob.ID, p.ID)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	// once ended, a new request between the pair is allowed again
	_, err = f.partners.SendRequest(ctx, bob.ID, alice.ID, "")
	require.NoError(t, err)
}

func TestPartnerServiceRespectsOptOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.user(t, "alice", "UTC")
	bob := f.user(t, "bob", "UTC")
	closed := false
	_, err := f.userSvc.Update(ctx, bob.ID, ProfileUpdate{AllowPartnerRequests: &closed})
	require.NoError(t, err)

	_, err = f.partners.SendRequest(ctx, alice.ID, bob.ID, "")
	assert.True(t, errors.Is(err, ErrForbidden))

	matches, err := f.partners.Discover(ctx, alice.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, matches, "opted-out users are not offered as partners")
}

func TestPartnerServiceDeclineClosesRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.user(t, "alice", "UTC")
	bob := f.user(t, "bob", "UTC")

	p, err := f.partners.SendRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)

	declined, err := f.partners.Respond(ctx, bob.ID, p.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.PartnershipDeclined, declined.Status)
	require.NotNil(t, declined.EndedAt)

	_, err = f.partners.End(ctx, alice.ID, p.ID)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
