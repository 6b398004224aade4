package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arklim/learnhub-client/internal/core/domain"
	"github.com/arklim/learnhub-client/internal/core/port"
	"github.com/arklim/learnhub-client/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishSignedIn publishes auth.signed_in events.
func (p *EventPublisher) PublishSignedIn(ctx context.Context, event domain.SignedInEvent) error {
	payload := struct {
		UserID     string         `json:"user_id"`
		Email      string         `json:"email,omitempty"`
		SignedInAt time.Time      `json:"signed_in_at"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}{
		UserID:     event.UserID,
		Email:      event.Email,
		SignedInAt: event.SignedInAt.UTC(),
		Metadata:   event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.signed_in", event.UserID, event.SignedInAt, payload)
}

// PublishSignedOut publishes auth.signed_out events.
func (p *EventPublisher) PublishSignedOut(ctx context.Context, event domain.SignedOutEvent) error {
	payload := struct {
		UserID      string         `json:"user_id"`
		SignedOutAt time.Time      `json:"signed_out_at"`
		Metadata    map[string]any `json:"metadata,omitempty"`
	}{
		UserID:      event.UserID,
		SignedOutAt: event.SignedOutAt.UTC(),
		Metadata:    event.Metadata,
	}

	return p.publish(ctx, event.EventID, "auth.signed_out", event.UserID, event.SignedOutAt, payload)
}

// PublishProfileProvisioned publishes profile.provisioned events.
func (p *EventPublisher) PublishProfileProvisioned(ctx context.Context, event domain.ProfileProvisionedEvent) error {
	payload := struct {
		UserID        string         `json:"user_id"`
		Email         string         `json:"email,omitempty"`
		FullName      string         `json:"full_name,omitempty"`
		Role          string         `json:"role"`
		ProvisionedAt time.Time      `json:"provisioned_at"`
		Metadata      map[string]any `json:"metadata,omitempty"`
	}{
		UserID:        event.UserID,
		Email:         event.Email,
		FullName:      event.FullName,
		Role:          event.Role,
		ProvisionedAt: event.ProvisionedAt.UTC(),
		Metadata:      event.Metadata,
	}

	return p.publish(ctx, event.EventID, "profile.provisioned", event.UserID, event.ProvisionedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
