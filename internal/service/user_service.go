package service

import (
	"context"

	"messenger/internal/domain"
)

// UserService provides user lookup operations for the HTTP surface.
type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.users.Search(ctx, query, limit)
}

func (s *UserService) UpdateProfile(ctx context.Context, user *domain.User, name string, avatarURL *string) (*domain.User, error) {
	if name != "" {
		user.Name = name
	}
	if avatarURL != nil {
		user.AvatarURL = avatarURL
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
