package service

import (
	"context"
	"errors"

	"github.com/bookbuddy/bookbuddy-go/internal/crypto"
	"github.com/bookbuddy/bookbuddy-go/internal/model"
	"github.com/bookbuddy/bookbuddy-go/internal/repository"
)

// UserService handles profile management.
type UserService struct {
	users *repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Profile retrieves a user's profile.
func (s *UserService) Profile(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.ToUserResponse(user), nil
}

// UpdateProfile applies a partial profile update. Changing email or username
// to a value held by a different user is a conflict; re-submitting the
// current value is not.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateProfileRequest) (model.UserResponse, error) {
	current, err := s.getUser(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}

	if req.Email != nil && *req.Email != current.Email {
		if err := validateEmail(*req.Email); err != nil {
			return model.UserResponse{}, err
		}
		if _, err := s.users.GetByEmail(ctx, *req.Email); err == nil {
			return model.UserResponse{}, ErrEmailTaken
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, err
		}
	}

	if req.Username != nil && *req.Username != current.Username {
		if err := validateUsername(*req.Username); err != nil {
			return model.UserResponse{}, err
		}
		if _, err := s.users.GetByUsername(ctx, *req.Username); err == nil {
			return model.UserResponse{}, ErrUsernameTaken
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, err
		}
	}

	if err := s.users.Update(ctx, userID, req.Username, req.Email); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return model.UserResponse{}, ErrEmailTaken
		}
		return model.UserResponse{}, err
	}

	updated, err := s.getUser(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.ToUserResponse(updated), nil
}

// ChangePassword replaces the user's password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !crypto.VerifyPassword(currentPassword, user.PasswordHash) {
		return ErrWrongPassword
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, userID, hash)
}

// DeleteAccount removes the user after verifying their password. Owned books
// are removed by the storage-level cascade.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64, password string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	if !crypto.VerifyPassword(password, user.PasswordHash) {
		return ErrPasswordIncorrect
	}

	err = s.users.Delete(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *UserService) getUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
