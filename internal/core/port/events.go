package port

import (
	"context"

	"github.com/arklim/learnhub-client/internal/core/domain"
)

// EventPublisher publishes auth lifecycle events to the message bus.
// Publishing is fire-and-forget from the caller's perspective; failures are
// logged by implementations and never fail the triggering operation.
type EventPublisher interface {
	PublishSignedIn(ctx context.Context, event domain.SignedInEvent) error
	PublishSignedOut(ctx context.Context, event domain.SignedOutEvent) error
	PublishProfileProvisioned(ctx context.Context, event domain.ProfileProvisionedEvent) error
}
