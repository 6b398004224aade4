package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/repository"
)

var profileColumns = []string{
	"id",
	"email",
	"full_name",
	"avatar_url",
	"role",
	"is_active",
	"preferences",
	"last_login",
	"created_at",
	"updated_at",
}

// ProfileRepository implements port.ProfileStore backed by the provider's
// PostgreSQL profiles table.
type ProfileRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewProfileRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewProfileRepository(exec pgExecutor) *ProfileRepository {
	return &ProfileRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByID retrieves a profile row, mapping a missing row to repository.ErrNotFound.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if id == "" {
		return nil, fmt.Errorf("profile id is required")
	}

	stmt, args, err := r.builder.
		Select(profileColumns...).
		From("profiles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select profile sql: %w", err)
	}

	profile, err := scanProfile(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select profile: %w", err)
	}

	return profile, nil
}

// Insert creates a new profile row. An existing row with the same id fails
// with repository.ErrConflict.
func (r *ProfileRepository) Insert(ctx context.Context, profile domain.Profile) error {
	preferences, err := marshalPreferences(profile.Preferences)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.
		Insert("profiles").
		Columns(profileColumns...).
		Values(
			profile.ID,
			profile.Email,
			profile.FullName,
			profile.AvatarURL,
			profile.Role,
			profile.IsActive,
			preferences,
			profile.LastLogin,
			profile.CreatedAt,
			profile.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert profile sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert profile: %w", err)
	}

	return nil
}

// Update applies a partial mutation and returns the persisted row.
func (r *ProfileRepository) Update(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Profile, error) {
	if id == "" {
		return nil, fmt.Errorf("profile id is required")
	}

	builder := r.builder.
		Update("profiles").
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + returningColumns())

	if update.FullName != nil {
		builder = builder.Set("full_name", *update.FullName)
	}
	if update.AvatarURL != nil {
		builder = builder.Set("avatar_url", *update.AvatarURL)
	}
	if update.Role != nil {
		builder = builder.Set("role", *update.Role)
	}
	if update.Preferences != nil {
		preferences, err := marshalPreferences(update.Preferences)
		if err != nil {
			return nil, err
		}
		builder = builder.Set("preferences", preferences)
	}

	stmt, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update profile sql: %w", err)
	}

	profile, err := scanProfile(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return profile, nil
}

// Upsert inserts the row when absent; an existing row is left byte-for-byte
// untouched. Returns whichever row is persisted afterwards.
func (r *ProfileRepository) Upsert(ctx context.Context, profile domain.Profile) (*domain.Profile, error) {
	preferences, err := marshalPreferences(profile.Preferences)
	if err != nil {
		return nil, err
	}

	stmt, args, err := r.builder.
		Insert("profiles").
		Columns(profileColumns...).
		Values(
			profile.ID,
			profile.Email,
			profile.FullName,
			profile.AvatarURL,
			profile.Role,
			profile.IsActive,
			preferences,
			profile.LastLogin,
			profile.CreatedAt,
			profile.UpdatedAt,
		).
		Suffix("ON CONFLICT (id) DO NOTHING RETURNING " + returningColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert profile sql: %w", err)
	}

	inserted, err := scanProfile(r.exec.QueryRow(ctx, stmt, args...))
	if err == nil {
		return inserted, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	// Conflict path: the existing row wins.
	return r.GetByID(ctx, profile.ID)
}

// TouchLastLogin stamps the last_login column.
func (r *ProfileRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if id == "" {
		return fmt.Errorf("profile id is required")
	}

	stmt, args, err := r.builder.
		Update("profiles").
		Set("last_login", at.UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch last_login sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("touch last_login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func returningColumns() string {
	return strings.Join(profileColumns, ", ")
}

func marshalPreferences(preferences map[string]any) (any, error) {
	if preferences == nil {
		return nil, nil
	}
	raw, err := json.Marshal(preferences)
	if err != nil {
		return nil, fmt.Errorf("marshal preferences: %w", err)
	}
	return raw, nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var (
		profile     domain.Profile
		preferences []byte
	)

	if err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Role,
		&profile.IsActive,
		&preferences,
		&profile.LastLogin,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(preferences) > 0 {
		if err := json.Unmarshal(preferences, &profile.Preferences); err != nil {
			return nil, fmt.Errorf("decode preferences: %w", err)
		}
	}

	return &profile, nil
}
