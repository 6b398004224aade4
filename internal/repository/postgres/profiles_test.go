package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v2"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/repository"
)

func newProfileMock(t *testing.T) (pgxmock.PgxPoolIface, *ProfileRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, NewProfileRepository(mock)
}

func sampleProfileRow(createdAt time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(profileColumns).AddRow(
		"user-1",
		"jane@example.com",
		"Jane Doe",
		nil,
		domain.RoleStudent,
		true,
		[]byte(`{"theme":"dark"}`),
		nil,
		createdAt,
		createdAt,
	)
}

func TestProfileRepositoryGetByID(t *testing.T) {
	mock, repo := newProfileMock(t)
	createdAt := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, email, full_name, avatar_url, role, is_active, preferences, last_login, created_at, updated_at FROM profiles`).
		WithArgs("user-1").
		WillReturnRows(sampleProfileRow(createdAt))

	profile, err := repo.GetByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}

	if profile.Email != "jane@example.com" || profile.FullName != "Jane Doe" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.Role != domain.RoleStudent || !profile.IsActive {
		t.Fatalf("unexpected role/active: %+v", profile)
	}
	if profile.Preferences["theme"] != "dark" {
		t.Fatalf("preferences not decoded: %+v", profile.Preferences)
	}
	if profile.AvatarURL != nil || profile.LastLogin != nil {
		t.Fatalf("expected nil avatar and last_login, got %+v", profile)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}

func TestProfileRepositoryGetByIDNotFound(t *testing.T) {
	mock, repo := newProfileMock(t)

	mock.ExpectQuery(`SELECT .* FROM profiles`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}

func TestProfileRepositoryGetByIDRequiresID(t *testing.T) {
	_, repo := newProfileMock(t)

	if _, err := repo.GetByID(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestProfileRepositoryInsert(t *testing.T) {
	mock, repo := newProfileMock(t)
	createdAt := time.Now().UTC()

	profile := domain.Profile{
		ID:        "user-1",
		Email:     "jane@example.com",
		FullName:  "Jane Doe",
		Role:      domain.RoleStudent,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	mock.ExpectExec(`INSERT INTO profiles`).
		WithArgs("user-1", "jane@example.com", "Jane Doe", (*string)(nil), domain.RoleStudent, true, nil, (*time.Time)(nil), createdAt, createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Insert(context.Background(), profile); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}

func TestProfileRepositoryInsertConflict(t *testing.T) {
	mock, repo := newProfileMock(t)

	mock.ExpectExec(`INSERT INTO profiles`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Insert(context.Background(), domain.Profile{ID: "user-1", Email: "jane@example.com"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}

func TestProfileRepositoryUpdateReturnsRow(t *testing.T) {
	mock, repo := newProfileMock(t)
	createdAt := time.Now().UTC()

	fullName := "Jane Q. Doe"
	mock.ExpectQuery(`UPDATE profiles SET updated_at = \$1, full_name = \$2 WHERE id = \$3 RETURNING`).
		WithArgs(pgxmock.AnyArg(), fullName, "user-1").
		WillReturnRows(sampleProfileRow(createdAt))

	profile, err := repo.Update(context.Background(), "user-1", domain.ProfileUpdate{FullName: &fullName})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if profile.ID != "user-1" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}

func TestProfileRepositoryUpdateNotFound(t *testing.T) {
	mock, repo := newProfileMock(t)

	fullName := "Jane"
	mock.ExpectQuery(`UPDATE profiles`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.Update(context.Background(), "missing", domain.ProfileUpdate{FullName: &fullName}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}

func TestProfileRepositoryUpsertInserts(t *testing.T) {
	mock, repo := newProfileMock(t)
	createdAt := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO profiles .* ON CONFLICT \(id\) DO NOTHING RETURNING`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(sampleProfileRow(createdAt))

	profile, err := repo.Upsert(context.Background(), domain.Profile{
		ID:        "user-1",
		Email:     "jane@example.com",
		FullName:  "Jane Doe",
		Role:      domain.RoleStudent,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if profile.ID != "user-1" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}

func TestProfileRepositoryUpsertConflictReturnsExisting(t *testing.T) {
	mock, repo := newProfileMock(t)
	createdAt := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO profiles .* ON CONFLICT \(id\) DO NOTHING RETURNING`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM profiles`).
		WithArgs("user-1").
		WillReturnRows(sampleProfileRow(createdAt))

	profile, err := repo.Upsert(context.Background(), domain.Profile{ID: "user-1", Email: "jane@example.com"})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if profile.FullName != "Jane Doe" {
		t.Fatalf("expected existing row to win, got %+v", profile)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}

func TestProfileRepositoryTouchLastLogin(t *testing.T) {
	mock, repo := newProfileMock(t)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE profiles SET last_login = \$1 WHERE id = \$2`).
		WithArgs(at, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.TouchLastLogin(context.Background(), "user-1", at); err != nil {
		t.Fatalf("TouchLastLogin returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}

func TestProfileRepositoryTouchLastLoginMissingRow(t *testing.T) {
	mock, repo := newProfileMock(t)

	mock.ExpectExec(`UPDATE profiles SET last_login`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.TouchLastLogin(context.Background(), "missing", time.Now()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unfulfilled expectations: %v", err)
	}
}
