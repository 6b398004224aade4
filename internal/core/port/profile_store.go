package port

import (
	"context"
	"time"

	"github.com/arklim/learnhub-client/internal/core/domain"
)

// ProfileStore exposes persistence behavior for profile rows in the
// provider's data store.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Insert(ctx context.Context, profile domain.Profile) error
	Update(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Profile, error)
	// Upsert inserts the row when absent and otherwise leaves the existing
	// row untouched, returning whichever row is persisted afterwards.
	Upsert(ctx context.Context, profile domain.Profile) (*domain.Profile, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
