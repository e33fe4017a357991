package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"habit-tracker/internal/logger"
	"habit-tracker/internal/matching"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
)

const (
	DefaultPartnerCount  = 5
	criteriaSearchPool   = 20
	candidateFetchLimit  = 8
	maxPartnerMessageLen = 500
)

// HabitLister loads the habits of one user.
type HabitLister interface {
	ListByUser(ctx context.Context, userID string) ([]model.Habit, error)
}

// PartnerService assembles profiles from storage and runs the matcher on
// them.
type PartnerService struct {
	users        *repository.UserRepository
	habits       HabitLister
	partnerships *repository.PartnershipRepository
	matcher      *matching.Matcher
	log          *logger.Logger
	now          func() time.Time
}

func NewPartnerService(users *repository.UserRepository, habits HabitLister, partnerships *repository.PartnershipRepository, matcher *matching.Matcher, log *logger.Logger, now func() time.Time) *PartnerService {
	if now == nil {
		now = time.Now
	}
	return &PartnerService{users: users, habits: habits, partnerships: partnerships, matcher: matcher, log: log, now: now}
}

// Discover ranks every other active user open to requests for userID and
// returns the best k.
func (s *PartnerService) Discover(ctx context.Context, userID string, k int) ([]matching.Match, error) {
	subject, err := s.subjectProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.users.ListMatchable(ctx, userID)
	if err != nil {
		return nil, err
	}
	pool, err := s.assemble(ctx, candidates)
	if err != nil {
		return nil, err
	}

	matches := s.matcher.FindPartners(subject, pool, k)
	s.log.Info("partner discovery",
		"user_id", userID,
		"candidates", len(candidates),
		"scored", len(pool),
		"returned", len(matches),
	)
	return matches, nil
}

// DiscoverWithCriteria filters the top of the ranking by f. Callers start
// from matching.DefaultFilter; every field of f is applied as given.
func (s *PartnerService) DiscoverWithCriteria(ctx context.Context, userID string, f matching.Filter) ([]matching.Match, error) {
	if f.ActivityMin > f.ActivityMax {
		return nil, invalid("activityMin must not exceed activityMax")
	}
	matches, err := s.Discover(ctx, userID, criteriaSearchPool)
	if err != nil {
		return nil, err
	}
	return matching.FilterByCriteria(matches, f), nil
}

// SendRequest opens a pending partnership from userID to partnerID with
// the pair's current match score.
func (s *PartnerService) SendRequest(ctx context.Context, userID, partnerID, message string) (*model.Partnership, error) {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return nil, invalid("partnerId is required")
	}
	if partnerID == userID {
		return nil, invalid("cannot partner with yourself")
	}
	message = strings.TrimSpace(message)
	if len(message) > maxPartnerMessageLen {
		return nil, invalid("message is longer than %d characters", maxPartnerMessageLen)
	}

	subject, err := s.subjectProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	partner, err := s.users.FindByID(ctx, partnerID)
	if err != nil {
		return nil, notFound(err, "partner")
	}
	if !partner.IsActive || !partner.AllowPartnerRequests {
		return nil, fmt.Errorf("partner %s does not accept requests: %w", partnerID, ErrForbidden)
	}

	if _, err := s.partnerships.FindOpenBetween(ctx, userID, partnerID); err == nil {
		return nil, ErrPartnershipExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check partnership: %w", err)
	}

	partnerHabits, err := s.habits.ListByUser(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	match := s.matcher.Score(subject, profileOf(partner, partnerHabits))

	p := model.Partnership{
		RequesterID: userID,
		PartnerID:   partnerID,
		Status:      model.PartnershipPending,
		MatchScore:  match.MatchScore,
		Criteria:    model.MatchCriteria(match.MatchingCriteria),
		Message:     message,
	}
	if err := s.partnerships.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.log.Info("partnership requested", "from", userID, "to", partnerID, "score", match.MatchScore)
	return &p, nil
}

// Respond lets the invited user accept or decline a pending request.
func (s *PartnerService) Respond(ctx context.Context, userID, partnershipID string, accept bool) (*model.Partnership, error) {
	p, err := s.partnerships.FindByID(ctx, partnershipID)
	if err != nil {
		return nil, notFound(err, "partnership")
	}
	if p.PartnerID != userID {
		return nil, fmt.Errorf("partnership %s: %w", partnershipID, ErrForbidden)
	}
	if p.Status != model.PartnershipPending {
		return nil, invalid("partnership is %s, not pending", p.Status)
	}

	now := s.now()
	if accept {
		p.Status = model.PartnershipActive
		p.AcceptedAt = &now
	} else {
		p.Status = model.PartnershipDeclined
		p.EndedAt = &now
	}
	if err := s.partnerships.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// End closes a pending or active partnership from either side.
func (s *PartnerService) End(ctx context.Context, userID, partnershipID string) (*model.Partnership, error) {
	p, err := s.partnerships.FindByID(ctx, partnershipID)
	if err != nil {
		return nil, notFound(err, "partnership")
	}
	if !p.Involves(userID) {
		return nil, fmt.Errorf("partnership %s: %w", partnershipID, ErrForbidden)
	}
	if p.Status != model.PartnershipPending && p.Status != model.PartnershipActive {
		return nil, invalid("partnership is already %s", p.Status)
	}
	now := s.now()
	p.Status = model.PartnershipEnded
	p.EndedAt = &now
	if err := s.partnerships.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PartnerService) List(ctx context.Context, userID string) ([]model.Partnership, error) {
	return s.partnerships.ListByUser(ctx, userID)
}

// Evaluate rescores an existing partnership with both users' current data.
func (s *PartnerService) Evaluate(ctx context.Context, userID, partnershipID string) (matching.Evaluation, error) {
	p, err := s.partnerships.FindByID(ctx, partnershipID)
	if err != nil {
		return matching.Evaluation{}, notFound(err, "partnership")
	}
	if !p.Involves(userID) {
		return matching.Evaluation{}, fmt.Errorf("partnership %s: %w", partnershipID, ErrForbidden)
	}

	requester, err := s.subjectProfile(ctx, p.RequesterID)
	if err != nil {
		return matching.Evaluation{}, err
	}
	partner, err := s.subjectProfile(ctx, p.PartnerID)
	if err != nil {
		return matching.Evaluation{}, err
	}
	return s.matcher.Evaluate(p.MatchScore, requester, partner), nil
}

func (s *PartnerService) subjectProfile(ctx context.Context, userID string) (matching.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return matching.Profile{}, notFound(err, "user")
	}
	habits, err := s.habits.ListByUser(ctx, userID)
	if err != nil {
		return matching.Profile{}, err
	}
	return profileOf(user, habits), nil
}

// assemble loads habits for every candidate concurrently. A candidate whose
// habits cannot be loaded is skipped; the pool keeps candidate order.
func (s *PartnerService) assemble(ctx context.Context, candidates []model.User) ([]matching.Profile, error) {
	profiles := make([]*matching.Profile, len(candidates))

	var g errgroup.Group
	g.SetLimit(candidateFetchLimit)
	for i := range candidates {
		g.Go(func() error {
			user := &candidates[i]
			habits, err := s.habits.ListByUser(ctx, user.ID)
			if err != nil {
				s.log.Warn("skipping partner candidate", "candidate_id", user.ID, "error", err)
				return nil
			}
			p := profileOf(user, habits)
			profiles[i] = &p
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pool := make([]matching.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p != nil {
			pool = append(pool, *p)
		}
	}
	return pool, nil
}

func profileOf(user *model.User, habits []model.Habit) matching.Profile {
	p := matching.Profile{
		UserID:   user.ID,
		Timezone: user.Timezone,
		Goals:    []string(user.Goals),
		Stats: matching.Stats{
			TotalHabitsCompleted: user.Stats.TotalHabitsCompleted,
			CurrentStreak:        user.Stats.CurrentStreak,
		},
		Habits: make([]matching.HabitProfile, 0, len(habits)),
	}
	for _, h := range habits {
		p.Habits = append(p.Habits, matching.HabitProfile{
			Name:       h.Title,
			Category:   h.Category,
			Difficulty: matching.Difficulty(h.Difficulty),
			Frequency:  matching.Frequency(h.Frequency),
		})
	}
	return p
}
