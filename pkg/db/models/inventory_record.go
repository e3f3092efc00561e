package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord tracks the four quantity buckets per (product, warehouse).
// Rows are created lazily the first time stock touches the pair.
type InventoryRecord struct {
	ProductID          uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	WarehouseID        uuid.UUID `gorm:"column:warehouse_id;type:uuid;primaryKey"`
	QuantityAvailable  int       `gorm:"column:quantity_available;not null;default:0"`
	QuantityReserved   int       `gorm:"column:quantity_reserved;not null;default:0"`
	QuantityInTransit  int       `gorm:"column:quantity_in_transit;not null;default:0"`
	QuantityQuarantine int       `gorm:"column:quantity_quarantine;not null;default:0"`
	LowStockThreshold  int       `gorm:"column:low_stock_threshold;not null;default:0"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// QuantityFree is available stock not spoken for by reservations.
func (r InventoryRecord) QuantityFree() int {
	return r.QuantityAvailable - r.QuantityReserved
}

// TotalOnHand sums every bucket physically present in the warehouse.
func (r InventoryRecord) TotalOnHand() int {
	return r.QuantityAvailable + r.QuantityReserved + r.QuantityQuarantine
}

// IsLowStock reports whether available stock sits at or below the threshold.
// A zero threshold disables the alert for the pair.
func (r InventoryRecord) IsLowStock() bool {
	return r.LowStockThreshold > 0 && r.QuantityAvailable <= r.LowStockThreshold
}
