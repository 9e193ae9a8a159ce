package service

import (
	"context"
	"fmt"
	"time"

	"journal-server/internal/domain"
	"journal-server/internal/repository"
)

type UserService struct {
	m repository.Manager
}

func NewUserService(m repository.Manager) *UserService {
	return &UserService{m: m}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.m.Users(s.m.DB()).FindByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	user.Password = ""
	return user, nil
}

func (s *UserService) UpdateUsername(ctx context.Context, userID, newUsername string) (*domain.User, error) {
	users := s.m.Users(s.m.DB())

	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	usernameExists, err := users.UsernameExists(ctx, newUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if usernameExists && user.Username != newUsername {
		return nil, ErrUsernameTaken
	}

	user.Username = newUsername
	user.UpdatedAt = time.Now()

	if err := users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.Password = ""
	return user, nil
}
