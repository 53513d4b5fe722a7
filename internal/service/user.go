package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/codeminder/internal/model"
	"github.com/sakif/codeminder/internal/repository"
)

type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading user %s: %w", userID, err)
	}
	return user, nil
}

// ProfileUpdate carries the editable profile fields. Empty fields keep the
// current value.
type ProfileUpdate struct {
	Name    string
	Handles model.Handles
}

// UpdateProfile applies update. Snapshots cached for an old handle are kept;
// the profile service treats them as stale once the handle changes.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading user %s: %w", userID, err)
	}

	if name := strings.TrimSpace(update.Name); name != "" {
		user.Name = name
	}
	user.Handles = user.Handles.Merge(trimHandles(update.Handles))

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: updating user %s: %w", userID, err)
	}
	s.logger.Info("profile updated", slog.String("userID", userID))
	return user, nil
}

func trimHandles(h model.Handles) model.Handles {
	return model.Handles{
		GitHub:        strings.TrimSpace(h.GitHub),
		LeetCode:      strings.TrimSpace(h.LeetCode),
		Codeforces:    strings.TrimSpace(h.Codeforces),
		GeeksForGeeks: strings.TrimSpace(h.GeeksForGeeks),
	}
}
