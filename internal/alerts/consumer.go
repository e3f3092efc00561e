package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/edilsuite/gestionale-backend/internal/inventory"
	"github.com/edilsuite/gestionale-backend/pkg/config"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	"github.com/edilsuite/gestionale-backend/pkg/logger"
	"github.com/edilsuite/gestionale-backend/pkg/metrics"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
)

// dedupStore is the slice of the redis client the consumer needs.
type dedupStore interface {
	AlertDedupKey(productID, warehouseID string) string
	TryAcquireAlert(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseAlert(ctx context.Context, key string) error
}

// Consumer delivers low stock alerts. One alert per (product, warehouse)
// within the dedup TTL; a stock recovery event resets the slot so the next
// dip below threshold alerts again.
type Consumer struct {
	subscription *pubsub.Subscriber
	store        dedupStore
	metrics      *metrics.ConsumerMetrics
	cfg          config.AlertsConfig
	logg         *logger.Logger
}

// NewConsumer builds the low stock alert consumer.
func NewConsumer(subscription *pubsub.Subscriber, store dedupStore, consumerMetrics *metrics.ConsumerMetrics, cfg config.AlertsConfig, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("alerts subscription required")
	}
	if store == nil {
		return nil, fmt.Errorf("dedup store required")
	}
	if consumerMetrics == nil {
		return nil, fmt.Errorf("consumer metrics required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		subscription: subscription,
		store:        store,
		metrics:      consumerMetrics,
		cfg:          cfg,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	started := time.Now()
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	switch eventType {
	case string(enums.EventInventoryLowStock), string(enums.EventInventoryRecovered):
	default:
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		c.metrics.IncFailed(eventType)
		return processResult{ack: true}
	}

	var payload inventory.LowStockEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		c.metrics.IncFailed(eventType)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"product_id":   payload.ProductID.String(),
		"warehouse_id": payload.WarehouseID.String(),
	})

	var result processResult
	if eventType == string(enums.EventInventoryRecovered) {
		result = c.handleRecovered(ctx, payload, logCtx)
	} else {
		result = c.handleLowStock(ctx, payload, logCtx)
	}

	if result.nack && c.attemptsExhausted(msg) {
		c.logg.Error(logCtx, "alert dropped after max delivery attempts", nil)
		c.metrics.IncFailed(eventType)
		return processResult{ack: true}
	}
	if result.ack {
		c.metrics.ObserveDuration(eventType, time.Since(started))
	}
	return result
}

func (c *Consumer) handleLowStock(ctx context.Context, payload inventory.LowStockEvent, logCtx context.Context) processResult {
	eventType := string(enums.EventInventoryLowStock)
	key := c.store.AlertDedupKey(payload.ProductID.String(), payload.WarehouseID.String())

	acquired, err := c.store.TryAcquireAlert(ctx, key, c.cfg.DedupTTL)
	if err != nil {
		c.logg.Error(logCtx, "alert dedup check failed", err)
		return processResult{nack: true}
	}
	if !acquired {
		c.metrics.IncDuplicate(eventType)
		return processResult{ack: true}
	}

	// delivery channel is the structured log stream; downstream notification
	// fan-out subscribes to the same topic independently
	c.logg.Warn(c.logg.WithFields(logCtx, map[string]any{
		"quantity_available": payload.QuantityAvailable,
		"quantity_free":      payload.QuantityFree,
		"threshold":          payload.Threshold,
		"movement_code":      payload.MovementCode,
	}), "low stock alert")

	c.metrics.IncProcessed(eventType)
	return processResult{ack: true}
}

func (c *Consumer) handleRecovered(ctx context.Context, payload inventory.LowStockEvent, logCtx context.Context) processResult {
	eventType := string(enums.EventInventoryRecovered)
	key := c.store.AlertDedupKey(payload.ProductID.String(), payload.WarehouseID.String())

	if err := c.store.ReleaseAlert(ctx, key); err != nil {
		c.logg.Error(logCtx, "alert dedup release failed", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "stock recovered, alert slot released")
	c.metrics.IncProcessed(eventType)
	return processResult{ack: true}
}

func (c *Consumer) attemptsExhausted(msg *pubsub.Message) bool {
	if c.cfg.MaxAttempts <= 0 || msg.DeliveryAttempt == nil {
		return false
	}
	return *msg.DeliveryAttempt >= c.cfg.MaxAttempts
}
