package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGCreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("insert into users").
		WithArgs("u1", "ana@example.com", "hash", "active").
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	err = store.CreateUser(context.Background(), &User{
		ID: "u1", Email: "ana@example.com", PasswordHash: "hash", Status: "active",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGFindUserByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users where email=").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "status", "created_at", "updated_at"}))

	store := NewPGStore(db)
	if _, err := store.FindUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRevokeRefreshTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("update refresh_tokens set revoked=true").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	store := NewPGStore(db)
	if err := store.RevokeRefreshTokens(context.Background(), "u1"); err != nil {
		t.Fatalf("RevokeRefreshTokens: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGCreateRefreshToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	expires := time.Now().Add(time.Hour)
	mock.ExpectExec("insert into refresh_tokens").
		WithArgs("rt1", "u1", "hash", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPGStore(db)
	err = store.CreateRefreshToken(context.Background(), &RefreshToken{
		ID: "rt1", UserID: "u1", TokenHash: "hash", ExpiresAt: expires,
	})
	if err != nil {
		t.Fatalf("CreateRefreshToken: %v", err)
	}
}
