package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/bookbuddy/bookbuddy-go/internal/crypto"
	"github.com/bookbuddy/bookbuddy-go/internal/repository"
)

const testSecret = "middleware-test-secret"

func setupUsers(t *testing.T) (*repository.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repository.NewUserRepository(db), mock
}

func identityProbe(t *testing.T, gotID *int64, gotEmail *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := UserIDFromContext(r.Context()); ok {
			*gotID = id
		}
		if email, ok := UserEmailFromContext(r.Context()); ok {
			*gotEmail = email
		}
		w.WriteHeader(http.StatusOK)
	})
}

func expectUserLookup(mock sqlmock.Sqlmock, id int64, email string) {
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(id, "alice", email, "hash", time.Now(), time.Now()))
}

func TestRequireAuthMissingHeader(t *testing.T) {
	users, _ := setupUsers(t)

	var gotID int64
	var gotEmail string
	handler := RequireAuth(testSecret, users)(identityProbe(t, &gotID, &gotEmail))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
	if gotID != 0 {
		t.Error("handler ran despite missing token")
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	users, _ := setupUsers(t)
	handler := RequireAuth(testSecret, users)(http.NotFoundHandler())

	for _, header := range []string{"Bearer", "Bearer ", "Basic abc", "garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if resp.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, resp.Code)
		}
	}
}

func TestRequireAuthWrongSecret(t *testing.T) {
	users, _ := setupUsers(t)
	handler := RequireAuth(testSecret, users)(http.NotFoundHandler())

	token, err := crypto.GenerateToken(7, "a@x.com", "some-other-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
}

func TestRequireAuthDeletedUser(t *testing.T) {
	users, mock := setupUsers(t)
	handler := RequireAuth(testSecret, users)(http.NotFoundHandler())

	token, err := crypto.GenerateToken(42, "gone@x.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = ?`)).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	users, mock := setupUsers(t)

	var gotID int64
	var gotEmail string
	handler := RequireAuth(testSecret, users)(identityProbe(t, &gotID, &gotEmail))

	token, err := crypto.GenerateToken(7, "a@x.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	expectUserLookup(mock, 7, "a@x.com")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.Code, resp.Body)
	}
	if gotID != 7 {
		t.Errorf("user id = %d, want 7", gotID)
	}
	if gotEmail != "a@x.com" {
		t.Errorf("email = %q, want a@x.com", gotEmail)
	}
}

func TestOptionalAuthAnonymous(t *testing.T) {
	users, _ := setupUsers(t)

	var gotID int64
	var gotEmail string
	handler := OptionalAuth(testSecret, users)(identityProbe(t, &gotID, &gotEmail))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if gotID != 0 {
		t.Errorf("user id = %d, want anonymous", gotID)
	}
}

func TestOptionalAuthBadTokenProceedsAnonymous(t *testing.T) {
	users, _ := setupUsers(t)

	var gotID int64
	var gotEmail string
	handler := OptionalAuth(testSecret, users)(identityProbe(t, &gotID, &gotEmail))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	if gotID != 0 {
		t.Errorf("user id = %d, want anonymous", gotID)
	}
}

func TestOptionalAuthValidToken(t *testing.T) {
	users, mock := setupUsers(t)

	var gotID int64
	var gotEmail string
	handler := OptionalAuth(testSecret, users)(identityProbe(t, &gotID, &gotEmail))

	token, err := crypto.GenerateToken(9, "b@x.com", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	expectUserLookup(mock, 9, "b@x.com")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if gotID != 9 || gotEmail != "b@x.com" {
		t.Errorf("identity = (%d, %q), want (9, b@x.com)", gotID, gotEmail)
	}
}
