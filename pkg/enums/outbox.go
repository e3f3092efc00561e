package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateDocument        OutboxAggregateType = "document"
	AggregateStockMovement   OutboxAggregateType = "stock_movement"
	AggregateInventoryRecord OutboxAggregateType = "inventory_record"
	AggregateSiteMaterial    OutboxAggregateType = "site_material"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateDocument,
	AggregateStockMovement,
	AggregateInventoryRecord,
	AggregateSiteMaterial,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventDocumentConfirmed     OutboxEventType = "document_confirmed"
	EventDocumentCancelled     OutboxEventType = "document_cancelled"
	EventDocumentDelivered     OutboxEventType = "document_delivered"
	EventStockMovementCreated  OutboxEventType = "stock_movement_created"
	EventStockMovementReversed OutboxEventType = "stock_movement_reversed"
	EventInventoryAdjusted     OutboxEventType = "inventory_adjusted"
	EventInventoryLowStock     OutboxEventType = "inventory_low_stock"
	EventInventoryRecovered    OutboxEventType = "inventory_stock_recovered"
	EventSiteMaterialUpdated   OutboxEventType = "site_material_updated"
)

var validOutboxEventTypes = []OutboxEventType{
	EventDocumentConfirmed,
	EventDocumentCancelled,
	EventDocumentDelivered,
	EventStockMovementCreated,
	EventStockMovementReversed,
	EventInventoryAdjusted,
	EventInventoryLowStock,
	EventInventoryRecovered,
	EventSiteMaterialUpdated,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
