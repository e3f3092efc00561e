package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edilsuite/gestionale-backend/internal/inventory"
	"github.com/edilsuite/gestionale-backend/pkg/config"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	"github.com/edilsuite/gestionale-backend/pkg/logger"
	"github.com/edilsuite/gestionale-backend/pkg/metrics"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
)

type stubDedupStore struct {
	acquired map[string]bool
	failWith error
	released []string
}

func (s *stubDedupStore) AlertDedupKey(productID, warehouseID string) string {
	return "gst:alert:low_stock:" + productID + ":" + warehouseID
}

func (s *stubDedupStore) TryAcquireAlert(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.failWith != nil {
		return false, s.failWith
	}
	if s.acquired == nil {
		s.acquired = make(map[string]bool)
	}
	if s.acquired[key] {
		return false, nil
	}
	s.acquired[key] = true
	return true, nil
}

func (s *stubDedupStore) ReleaseAlert(ctx context.Context, key string) error {
	if s.failWith != nil {
		return s.failWith
	}
	delete(s.acquired, key)
	s.released = append(s.released, key)
	return nil
}

func newTestConsumer(t *testing.T, store *stubDedupStore, maxAttempts int) *Consumer {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "alerts-test", Level: zerolog.Disabled, Output: io.Discard})
	consumer, err := NewConsumer(
		&pubsub.Subscriber{},
		store,
		metrics.NewConsumerMetrics(nil),
		config.AlertsConfig{DedupTTL: time.Hour, MaxAttempts: maxAttempts},
		logg,
	)
	require.NoError(t, err)
	return consumer
}

func alertMessage(t *testing.T, eventType enums.OutboxEventType, payload inventory.LowStockEvent) *pubsub.Message {
	t.Helper()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    data,
	})
	require.NoError(t, err)

	return &pubsub.Message{
		ID:         uuid.NewString(),
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func lowStockPayload() inventory.LowStockEvent {
	return inventory.LowStockEvent{
		ProductID:         uuid.New(),
		WarehouseID:       uuid.New(),
		QuantityAvailable: 4,
		QuantityFree:      4,
		Threshold:         5,
		MovementID:        uuid.New(),
		MovementCode:      "MOV-20260828-001",
	}
}

func TestProcessLowStockAcksAndDedups(t *testing.T) {
	store := &stubDedupStore{}
	consumer := newTestConsumer(t, store, 5)
	payload := lowStockPayload()

	first := consumer.process(context.Background(), alertMessage(t, enums.EventInventoryLowStock, payload))
	assert.True(t, first.ack)
	assert.False(t, first.nack)

	// same (product, warehouse) within the TTL is suppressed but still acked
	second := consumer.process(context.Background(), alertMessage(t, enums.EventInventoryLowStock, payload))
	assert.True(t, second.ack)

	key := store.AlertDedupKey(payload.ProductID.String(), payload.WarehouseID.String())
	assert.True(t, store.acquired[key])
}

func TestProcessRecoveredReleasesSlot(t *testing.T) {
	store := &stubDedupStore{}
	consumer := newTestConsumer(t, store, 5)
	payload := lowStockPayload()

	_ = consumer.process(context.Background(), alertMessage(t, enums.EventInventoryLowStock, payload))

	result := consumer.process(context.Background(), alertMessage(t, enums.EventInventoryRecovered, payload))
	assert.True(t, result.ack)
	require.Len(t, store.released, 1)

	// alert fires again after recovery
	again := consumer.process(context.Background(), alertMessage(t, enums.EventInventoryLowStock, payload))
	assert.True(t, again.ack)
	key := store.AlertDedupKey(payload.ProductID.String(), payload.WarehouseID.String())
	assert.True(t, store.acquired[key])
}

func TestProcessSkipsForeignEvents(t *testing.T) {
	store := &stubDedupStore{}
	consumer := newTestConsumer(t, store, 5)

	msg := &pubsub.Message{
		ID:         uuid.NewString(),
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": string(enums.EventDocumentConfirmed)},
	}
	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.Empty(t, store.acquired)
}

func TestProcessAcksMalformedPayload(t *testing.T) {
	store := &stubDedupStore{}
	consumer := newTestConsumer(t, store, 5)

	msg := &pubsub.Message{
		ID:         uuid.NewString(),
		Data:       []byte(`not json`),
		Attributes: map[string]string{"event_type": string(enums.EventInventoryLowStock)},
	}
	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
}

func TestProcessNacksOnStoreFailure(t *testing.T) {
	store := &stubDedupStore{failWith: errors.New("redis down")}
	consumer := newTestConsumer(t, store, 5)

	result := consumer.process(context.Background(), alertMessage(t, enums.EventInventoryLowStock, lowStockPayload()))
	assert.True(t, result.nack)
}

func TestProcessDropsAfterMaxAttempts(t *testing.T) {
	store := &stubDedupStore{failWith: errors.New("redis down")}
	consumer := newTestConsumer(t, store, 3)

	msg := alertMessage(t, enums.EventInventoryLowStock, lowStockPayload())
	attempt := 3
	msg.DeliveryAttempt = &attempt

	result := consumer.process(context.Background(), msg)
	assert.True(t, result.ack)
	assert.False(t, result.nack)
}
