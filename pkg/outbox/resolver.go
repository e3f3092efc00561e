package outbox

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/edilsuite/gestionale-backend/pkg/config"
	"github.com/edilsuite/gestionale-backend/pkg/db/models"
)

// ResolvedEvent carries the decoded envelope plus the topic it publishes to.
type ResolvedEvent struct {
	Envelope PayloadEnvelope
	Topic    string
}

// Resolver validates stored outbox rows and routes them. Every domain event
// flows through the single domain topic; malformed rows resolve to a
// non-retryable error so they land in the DLQ instead of looping.
type Resolver struct {
	topic string
}

func NewResolver(cfg config.PubSubConfig) (*Resolver, error) {
	if cfg.DomainTopic == "" {
		return nil, errors.New("domain topic is required")
	}
	return &Resolver{topic: cfg.DomainTopic}, nil
}

func (r *Resolver) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	if !event.EventType.IsValid() {
		return nil, NewNonRetryableError(fmt.Errorf("unknown event type %q", event.EventType))
	}
	if !event.AggregateType.IsValid() {
		return nil, NewNonRetryableError(fmt.Errorf("unknown aggregate type %q", event.AggregateType))
	}
	var envelope PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decoding payload envelope: %w", err))
	}
	return &ResolvedEvent{Envelope: envelope, Topic: r.topic}, nil
}

// NonRetryableError marks publish failures that must not be retried.
type NonRetryableError struct {
	err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{err: err}
}

func (e NonRetryableError) Error() string {
	if e.err == nil {
		return "non-retryable outbox error"
	}
	return e.err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.err
}
