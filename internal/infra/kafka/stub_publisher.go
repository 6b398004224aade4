package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishSignedIn logs auth.signed_in events.
func (p *StubPublisher) PublishSignedIn(_ context.Context, event domain.SignedInEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"email":        event.Email,
		"signed_in_at": event.SignedInAt,
		"metadata":     event.Metadata,
	}
	p.logEvent("auth.signed_in", event.UserID, event.SignedInAt, payload)
	return nil
}

// PublishSignedOut logs auth.signed_out events.
func (p *StubPublisher) PublishSignedOut(_ context.Context, event domain.SignedOutEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"signed_out_at": event.SignedOutAt,
		"metadata":      event.Metadata,
	}
	p.logEvent("auth.signed_out", event.UserID, event.SignedOutAt, payload)
	return nil
}

// PublishProfileProvisioned logs profile.provisioned events.
func (p *StubPublisher) PublishProfileProvisioned(_ context.Context, event domain.ProfileProvisionedEvent) error {
	payload := map[string]any{
		"user_id":        event.UserID,
		"email":          event.Email,
		"full_name":      event.FullName,
		"role":           event.Role,
		"provisioned_at": event.ProvisionedAt,
		"metadata":       event.Metadata,
	}
	p.logEvent("profile.provisioned", event.UserID, event.ProvisionedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
