package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/bookbuddy/bookbuddy-go/internal/crypto"
	"github.com/bookbuddy/bookbuddy-go/internal/model"
	"github.com/bookbuddy/bookbuddy-go/internal/repository"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	minPasswordLen = 6
	maxPasswordLen = 100
)

// AuthService handles registration, login, and token issuance.
type AuthService struct {
	users     *repository.UserRepository
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(users *repository.UserRepository, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

// Register creates a new user account and returns an auth token. The email
// conflict check runs before the username check, so when both collide the
// email conflict is the one reported.
func (s *AuthService) Register(ctx context.Context, req model.CreateUserRequest) (model.AuthResponse, error) {
	if err := validateNewCredentials(req.Username, req.Email, req.Password); err != nil {
		return model.AuthResponse{}, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return model.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.AuthResponse{}, err
	}

	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return model.AuthResponse{}, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.AuthResponse{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Two concurrent registrations can both pass the lookups above; the
		// unique constraint decides the race.
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return model.AuthResponse{}, ErrEmailTaken
		}
		return model.AuthResponse{}, err
	}

	token, err := crypto.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token: token,
		User:  model.ToUserResponse(user),
	}, nil
}

// Login authenticates a user and returns an auth token. An unknown email and
// a wrong password fail identically so the response never reveals which
// field was wrong.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if user == nil {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	token, err := crypto.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		Token: token,
		User:  model.ToUserResponse(user),
	}, nil
}

// Authenticate verifies credentials without issuing a token. It returns
// (nil, nil) when the email is unknown or the password does not verify.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if !crypto.VerifyPassword(password, user.PasswordHash) {
		return nil, nil
	}

	return user, nil
}

// TokenForUser issues a token for an already-authenticated user, e.g. in a
// refresh flow. expiresMinutes overrides the configured expiry when positive.
func (s *AuthService) TokenForUser(user *model.User, expiresMinutes int) (string, error) {
	expiry := s.jwtExpiry
	if expiresMinutes > 0 {
		expiry = time.Duration(expiresMinutes) * time.Minute
	}
	return crypto.GenerateToken(user.ID, user.Email, s.jwtSecret, expiry)
}

func validateNewCredentials(username, email, password string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	return validatePassword(password)
}

func validateUsername(username string) error {
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return validationError(fmt.Sprintf("username must be between %d and %d characters", minUsernameLen, maxUsernameLen))
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationError("invalid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return validationError(fmt.Sprintf("password must be between %d and %d characters", minPasswordLen, maxPasswordLen))
	}
	return nil
}
