package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
)

// LowStockEvent is the payload carried by low stock and recovery events.
type LowStockEvent struct {
	ProductID         uuid.UUID `json:"product_id"`
	WarehouseID       uuid.UUID `json:"warehouse_id"`
	QuantityAvailable int       `json:"quantity_available"`
	QuantityFree      int       `json:"quantity_free"`
	Threshold         int       `json:"threshold"`
	MovementID        uuid.UUID `json:"movement_id"`
	MovementCode      string    `json:"movement_code"`
}

// Monitor re-evaluates an inventory record after the ledger applied a
// movement and queues alert events through the outbox. One alert per
// triggering movement, regardless of how many buckets moved.
type Monitor struct {
	ledger *Ledger
	outbox outboxPublisher
}

func NewMonitor(ledger *Ledger, publisher outboxPublisher) *Monitor {
	return &Monitor{ledger: ledger, outbox: publisher}
}

// OnMovementApplied inspects the record the movement touched. availableDelta
// is the net change the movement caused on the available bucket of
// warehouseID. Decreases that leave the record low raise a low stock event;
// increases that lift it back over the threshold raise a recovery event so
// downstream dedup can reset.
func (m *Monitor) OnMovementApplied(ctx context.Context, tx *gorm.DB, movement models.StockMovement, warehouseID uuid.UUID, availableDelta int) error {
	if availableDelta == 0 {
		return nil
	}

	record, err := m.ledger.Find(ctx, tx, movement.ProductID, warehouseID)
	if err != nil {
		return err
	}
	if record.LowStockThreshold <= 0 {
		return nil
	}

	payload := LowStockEvent{
		ProductID:         record.ProductID,
		WarehouseID:       record.WarehouseID,
		QuantityAvailable: record.QuantityAvailable,
		QuantityFree:      record.QuantityFree(),
		Threshold:         record.LowStockThreshold,
		MovementID:        movement.ID,
		MovementCode:      movement.Code,
	}

	if availableDelta < 0 && record.IsLowStock() {
		return m.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryLowStock,
			AggregateType: enums.AggregateInventoryRecord,
			AggregateID:   record.ProductID,
			Version:       1,
			Data:          payload,
		})
	}

	if availableDelta > 0 && !record.IsLowStock() {
		previous := record.QuantityAvailable - availableDelta
		if previous <= record.LowStockThreshold {
			return m.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventInventoryRecovered,
				AggregateType: enums.AggregateInventoryRecord,
				AggregateID:   record.ProductID,
				Version:       1,
				Data:          payload,
			})
		}
	}

	return nil
}
