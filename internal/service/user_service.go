package service

import (
	"context"
	"strings"

	"habit-tracker/internal/matching"
	"habit-tracker/internal/model"
	"habit-tracker/internal/repository"
)

// UserInput represents data required to create a user profile.
type UserInput struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Timezone string   `json:"timezone"`
	Goals    []string `json:"goals"`
}

// ProfileUpdate carries optional profile changes.
type ProfileUpdate struct {
	Username             *string   `json:"username"`
	Timezone             *string   `json:"timezone"`
	Goals                *[]string `json:"goals"`
	AllowPartnerRequests *bool     `json:"allowPartnerRequests"`
	IsActive             *bool     `json:"isActive"`
}

// UserService manages user profiles.
type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Create(ctx context.Context, input UserInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, invalid("username is required")
	}
	if len(username) > 50 {
		return nil, invalid("username is longer than 50 characters")
	}
	timezone := strings.TrimSpace(input.Timezone)
	if !matching.KnownTimezone(timezone) {
		return nil, invalid("unknown timezone %q", timezone)
	}
	user := model.User{
		Username: username,
		Email:    strings.ToLower(strings.TrimSpace(input.Email)),
		Timezone: timezone,
		Goals:    cleanGoals(input.Goals),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, userID string, upd ProfileUpdate) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if name == "" || len(name) > 50 {
			return nil, invalid("username must be 1 to 50 characters")
		}
		user.Username = name
	}
	if upd.Timezone != nil {
		tz := strings.TrimSpace(*upd.Timezone)
		if !matching.KnownTimezone(tz) {
			return nil, invalid("unknown timezone %q", tz)
		}
		if tz == "" {
			tz = "UTC"
		}
		user.Timezone = tz
	}
	if upd.Goals != nil {
		user.Goals = cleanGoals(*upd.Goals)
	}
	if upd.AllowPartnerRequests != nil {
		user.AllowPartnerRequests = *upd.AllowPartnerRequests
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// cleanGoals trims goal tags and drops blanks and repeats.
func cleanGoals(goals []string) []string {
	seen := make(map[string]struct{}, len(goals))
	out := make([]string, 0, len(goals))
	for _, g := range goals {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
