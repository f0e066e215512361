package invite

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreMarkUsedLosesRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(`update employee_invitations set used=true\s+where token=\$1 and used=false and expires_at > \$2`).
		WithArgs("tok-1", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.MarkUsed(context.Background(), "tok-1", now); !errors.Is(err, ErrAlreadyUsed) {
		t.Fatalf("expected ErrAlreadyUsed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreMarkUsedWins(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(`update employee_invitations set used=true\s+where token=\$1 and used=false and expires_at > \$2`).
		WithArgs("tok-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.MarkUsed(context.Background(), "tok-1", now); err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreDeleteScopedToEmployer(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`delete from employee_invitations where id=$1 and employer_id=$2`)).
		WithArgs("inv-1", "emp-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Delete(context.Background(), "inv-1", "emp-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreFindConsumableMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`select .+ from employee_invitations`).
		WithArgs("tok-miss", now).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "employer_id", "email", "token", "expires_at", "used", "created_at",
		}))

	if _, err := store.FindConsumable(context.Background(), "tok-miss", now); !errors.Is(err, ErrNotFoundOrExpired) {
		t.Fatalf("expected ErrNotFoundOrExpired, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGStoreFindConsumableHit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewPGStore(db)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	expires := now.Add(24 * time.Hour)
	mock.ExpectQuery(`select .+ from employee_invitations`).
		WithArgs("tok-1", now).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "employer_id", "email", "token", "expires_at", "used", "created_at",
		}).AddRow("inv-1", "emp-1", "a@b.com", "tok-1", expires, false, now))

	inv, err := store.FindConsumable(context.Background(), "tok-1", now)
	if err != nil {
		t.Fatalf("FindConsumable: %v", err)
	}
	if inv.ID != "inv-1" || inv.EmployerID != "emp-1" || inv.Used {
		t.Fatalf("unexpected invitation: %+v", inv)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
