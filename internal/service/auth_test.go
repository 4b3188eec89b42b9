package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/bookbuddy/bookbuddy-go/internal/crypto"
	"github.com/bookbuddy/bookbuddy-go/internal/model"
	"github.com/bookbuddy/bookbuddy-go/internal/repository"
)

const testSecret = "test-secret"

func newTestAuthService(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := NewAuthService(repository.NewUserRepository(db), testSecret, time.Hour)
	return svc, mock
}

func mockUserRows(id int64, username, email, hash string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
		AddRow(id, username, email, hash, now, now)
}

func expectKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *service.Error, got %v", err)
	}
	if svcErr.Kind != kind {
		t.Fatalf("error kind = %d, want %d (message %q)", svcErr.Kind, kind, svcErr.Message)
	}
}

func TestRegisterShortUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), model.CreateUserRequest{
		Username: "ab",
		Email:    "test@example.com",
		Password: "password123",
	})
	expectKind(t, err, KindValidation)
}

func TestRegisterBadEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), model.CreateUserRequest{
		Username: "alice",
		Email:    "not-an-email",
		Password: "password123",
	})
	expectKind(t, err, KindValidation)
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), model.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "pw",
	})
	expectKind(t, err, KindValidation)
}

func TestRegisterEmailConflict(t *testing.T) {
	svc, mock := newTestAuthService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = ?`)).
		WithArgs("alice@example.com").
		WillReturnRows(mockUserRows(1, "someone", "alice@example.com", "h"))

	_, err := svc.Register(context.Background(), model.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterEmailConflictReportedBeforeUsername(t *testing.T) {
	svc, mock := newTestAuthService(t)

	// Both the email and the username are taken; only the email lookup runs
	// and the email conflict is reported.
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = ?`)).
		WithArgs("alice@example.com").
		WillReturnRows(mockUserRows(1, "alice", "alice@example.com", "h"))

	_, err := svc.Register(context.Background(), model.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("Register() error = %v, want ErrEmailTaken", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegisterUsernameConflict(t *testing.T) {
	svc, mock := newTestAuthService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = ?`)).
		WithArgs("alice@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = ?`)).
		WithArgs("alice").
		WillReturnRows(mockUserRows(2, "alice", "other@example.com", "h"))

	_, err := svc.Register(context.Background(), model.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("Register() error = %v, want ErrUsernameTaken", err)
	}
}

func TestRegisterSuccessTokenMatchesUser(t *testing.T) {
	svc, mock := newTestAuthService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = ?`)).
		WithArgs("alice@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = ?`)).
		WithArgs("alice").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("alice", "alice@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	resp, err := svc.Register(context.Background(), model.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "pw123456",
	})
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if resp.User.ID != 7 || resp.User.Email != "alice@example.com" {
		t.Errorf("Register() user = %+v", resp.User)
	}

	claims, err := crypto.DecodeToken(resp.Token, testSecret)
	if err != nil {
		t.Fatalf("DecodeToken() unexpected error: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("token user_id = %d, want 7", claims.UserID)
	}
	if claims.Subject != "alice@example.com" {
		t.Errorf("token sub = %q, want alice@example.com", claims.Subject)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRegisterDuplicateRace(t *testing.T) {
	svc, mock := newTestAuthService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = ?`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = ?`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(errors.New("Error 1062: Duplicate entry 'alice@example.com' for key 'uq_users_email'"))

	_, err := svc.Register(context.Background(), model.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	expectKind(t, err, KindConflict)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, mock := newTestAuthService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = ?`)).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "ghost@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginWrongPasswordSameError(t *testing.T) {
	svc, mock := newTestAuthService(t)

	hash, err := crypto.HashPassword("right-password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = ?`)).
		WithArgs("alice@example.com").
		WillReturnRows(mockUserRows(7, "alice", "alice@example.com", hash))

	_, err = svc.Login(context.Background(), model.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	// Wrong password and unknown email must be indistinguishable.
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	svc, mock := newTestAuthService(t)

	hash, err := crypto.HashPassword("pw123456")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = ?`)).
		WithArgs("alice@example.com").
		WillReturnRows(mockUserRows(7, "alice", "alice@example.com", hash))

	resp, err := svc.Login(context.Background(), model.LoginRequest{
		Email:    "alice@example.com",
		Password: "pw123456",
	})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}

	claims, err := crypto.DecodeToken(resp.Token, testSecret)
	if err != nil {
		t.Fatalf("DecodeToken() unexpected error: %v", err)
	}
	if claims.UserID != 7 || claims.Subject != "alice@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAuthenticateNonThrowing(t *testing.T) {
	svc, mock := newTestAuthService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = ?`)).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	user, err := svc.Authenticate(context.Background(), "ghost@example.com", "whatever")
	if err != nil {
		t.Fatalf("Authenticate() unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("Authenticate() = %+v, want nil", user)
	}
}

func TestTokenForUserOverridesExpiry(t *testing.T) {
	svc, _ := newTestAuthService(t)

	user := &model.User{ID: 7, Email: "alice@example.com"}

	token, err := svc.TokenForUser(user, 5)
	if err != nil {
		t.Fatalf("TokenForUser() unexpected error: %v", err)
	}

	claims, err := crypto.DecodeToken(token, testSecret)
	if err != nil {
		t.Fatalf("DecodeToken() unexpected error: %v", err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl > 6*time.Minute || ttl < 4*time.Minute {
		t.Errorf("token ttl = %v, want ~5m", ttl)
	}
}
