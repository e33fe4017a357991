package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"habit-tracker/internal/logger"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
	"habit-tracker/internal/streak"
)

const maxProgress = 100

// ChallengeInput represents data required to create a challenge. Dates are
// YYYY-MM-DD or RFC3339.
type ChallengeInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	RewardPoints int    `json:"rewardPoints"`
}

// ChallengeUpdate carries optional field changes; nil fields are left alone.
type ChallengeUpdate struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	StartDate    *string `json:"startDate"`
	EndDate      *string `json:"endDate"`
	RewardPoints *int    `json:"rewardPoints"`
}

// ProgressResult describes a progress report on a challenge.
type ProgressResult struct {
	ChallengeID   string                      `json:"challengeId"`
	Title         string                      `json:"title"`
	Progress      *model.ChallengeParticipant `json:"progress"`
	Days          int                         `json:"days"`
	TotalDays     int                         `json:"totalDays"`
	PointsAwarded int                         `json:"pointsAwarded"`
}

// ChallengeService runs challenge membership and progress reporting.
type ChallengeService struct {
	challenges *repository.ChallengeRepository
	users      *repository.UserRepository
	log        *logger.Logger
	now        func() time.Time
}

func NewChallengeService(challenges *repository.ChallengeRepository, users *repository.UserRepository, log *logger.Logger, now func() time.Time) *ChallengeService {
	if now == nil {
		now = time.Now
	}
	return &ChallengeService{challenges: challenges, users: users, log: log, now: now}
}

func (s *ChallengeService) Create(ctx context.Context, userID string, input ChallengeInput) (*model.Challenge, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	start, err := parseChallengeDate("startDate", input.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseChallengeDate("endDate", input.EndDate)
	if err != nil {
		return nil, err
	}
	start = midnight(start)
	if start.Before(midnight(s.now())) {
		return nil, invalid("start date cannot be in the past")
	}
	if !end.After(start) {
		return nil, invalid("end date must be after start date")
	}
	if input.RewardPoints < 0 {
		return nil, invalid("rewardPoints must not be negative")
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, notFound(err, "user")
	}

	c := model.Challenge{
		CreatorID:    userID,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		StartDate:    start,
		EndDate:      end,
		RewardPoints: input.RewardPoints,
	}
	c.Status = c.StatusAt(s.now())
	if err := s.challenges.Create(ctx, &c); err != nil {
		return nil, err
	}
	s.log.Info("challenge created", "challenge_id", c.ID, "creator_id", userID, "start", streak.DayKey(start), "end", streak.DayKey(end))
	return &c, nil
}

func (s *ChallengeService) Get(ctx context.Context, challengeID string) (*model.Challenge, error) {
	c, err := s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return nil, notFound(err, "challenge")
	}
	return c, nil
}

func (s *ChallengeService) List(ctx context.Context) ([]model.Challenge, error) {
	return s.challenges.List(ctx)
}

// ListJoined returns the challenges userID has joined.
func (s *ChallengeService) ListJoined(ctx context.Context, userID string) ([]model.Challenge, error) {
	return s.challenges.ListJoined(ctx, userID)
}

// Update changes a challenge owned by userID. A start date that is still
// ahead cannot be moved into the past.
func (s *ChallengeService) Update(ctx context.Context, userID, challengeID string, upd ChallengeUpdate) (*model.Challenge, error) {
	c, err := s.owned(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, invalid("title cannot be empty")
		}
		c.Title = title
	}
	if upd.Description != nil {
		c.Description = strings.TrimSpace(*upd.Description)
	}

	today := midnight(s.now())
	start, end := c.StartDate, c.EndDate
	if upd.StartDate != nil {
		parsed, err := parseChallengeDate("startDate", *upd.StartDate)
		if err != nil {
			return nil, err
		}
		parsed = midnight(parsed)
		if !parsed.Equal(start) && !midnight(start).Before(today) && parsed.Before(today) {
			return nil, invalid("cannot move start date into the past")
		}
		start = parsed
	}
	if upd.EndDate != nil {
		parsed, err := parseChallengeDate("endDate", *upd.EndDate)
		if err != nil {
			return nil, err
		}
		end = parsed
	}
	if !end.After(start) {
		return nil, invalid("end date must be after start date")
	}
	c.StartDate, c.EndDate = start, end

	if upd.RewardPoints != nil {
		if *upd.RewardPoints < 0 {
			return nil, invalid("rewardPoints must not be negative")
		}
		c.RewardPoints = *upd.RewardPoints
	}

	c.Status = c.StatusAt(s.now())
	if err := s.challenges.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChallengeService) Delete(ctx context.Context, userID, challengeID string) error {
	if _, err := s.owned(ctx, userID, challengeID); err != nil {
		return err
	}
	return s.challenges.Delete(ctx, challengeID)
}

// Join adds userID to the challenge. Joining twice is a no-op.
func (s *ChallengeService) Join(ctx context.Context, userID, challengeID string) (*model.Challenge, error) {
	c, err := s.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c.Participant(userID) != nil {
		return c, nil
	}
	if c.StatusAt(s.now()) == model.ChallengeCompleted {
		return nil, invalid("challenge has already ended")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, notFound(err, "user")
	}

	now := s.now()
	p := model.ChallengeParticipant{
		ChallengeID: c.ID,
		UserID:      userID,
		LastUpdated: now,
		JoinedAt:    now,
	}
	if err := s.challenges.AddParticipant(ctx, &p); err != nil {
		return nil, err
	}
	c.Participants = append(c.Participants, p)
	s.log.Info("challenge joined", "challenge_id", c.ID, "user_id", userID)
	return c, nil
}

// Leave removes userID and their progress from the challenge.
func (s *ChallengeService) Leave(ctx context.Context, userID, challengeID string) (*model.Challenge, error) {
	if _, err := s.Get(ctx, challengeID); err != nil {
		return nil, err
	}
	removed, err := s.challenges.RemoveParticipant(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, invalid("not a participant of this challenge")
	}
	s.log.Info("challenge left", "challenge_id", challengeID, "user_id", userID)
	return s.Get(ctx, challengeID)
}

// UpdateProgress sets userID's completion percentage. Progress may move
// forward by at most one day of the challenge window per report; reaching
// 100 for the first time awards the challenge's reward points.
func (s *ChallengeService) UpdateProgress(ctx context.Context, userID, challengeID string, progress float64) (*ProgressResult, error) {
	if math.IsNaN(progress) || progress < 0 || progress > maxProgress {
		return nil, invalid("progress must be a number between 0 and 100")
	}
	c, err := s.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	p := c.Participant(userID)
	if p == nil {
		return nil, fmt.Errorf("challenge %s: not a participant: %w", challengeID, ErrForbidden)
	}

	total := c.TotalDays()
	prevDays := daysOf(p.Progress, total)
	newDays := daysOf(progress, total)
	if diff := newDays - prevDays; diff != 0 && diff != 1 {
		return nil, invalid("only one day of progress can be added at a time (at day %d, next allowed %d)", prevDays, prevDays+1)
	}

	var rewarded *model.User
	awarded := 0
	if p.Progress < maxProgress && progress == maxProgress && c.RewardPoints > 0 {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return nil, notFound(err, "user")
		}
		awarded = c.RewardPoints
		user.Points += awarded
		user.Level = LevelFor(user.Points)
		user.Stats.TotalXPEarned += awarded
		rewarded = user
	}

	previous := p.Progress
	p.Progress = progress
	p.LastUpdated = s.now()
	if err := s.challenges.SaveProgress(ctx, p, rewarded); err != nil {
		return nil, err
	}

	s.log.Info("challenge progress",
		"challenge_id", c.ID,
		"user_id", userID,
		"from", previous,
		"to", progress,
		"points", awarded,
	)
	return &ProgressResult{
		ChallengeID:   c.ID,
		Title:         c.Title,
		Progress:      p,
		Days:          newDays,
		TotalDays:     total,
		PointsAwarded: awarded,
	}, nil
}

func (s *ChallengeService) owned(ctx context.Context, userID, challengeID string) (*model.Challenge, error) {
	c, err := s.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c.CreatorID != userID {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, ErrForbidden)
	}
	return c, nil
}

func parseChallengeDate(field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, invalid("%s is required", field)
	}
	t, err := streak.ParseDay(raw)
	if err != nil {
		return time.Time{}, invalid("%s: %v", field, err)
	}
	return t.UTC(), nil
}

func midnight(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

func daysOf(progress float64, totalDays int) int {
	return int(math.Round(progress / maxProgress * float64(totalDays)))
}
