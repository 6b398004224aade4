package port

import (
	"context"
	"time"

	"github.com/arklim/learnhub-client/internal/core/domain"
)

// ProfileCache provides read-through caching for profile rows keyed by
// identity id.
type ProfileCache interface {
	Get(ctx context.Context, id string) (*domain.Profile, error)
	Set(ctx context.Context, profile domain.Profile, ttl time.Duration) error
	Invalidate(ctx context.Context, id string) error
}
