package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentLine is one product row on a transport document.
type DocumentLine struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DocumentID uuid.UUID        `gorm:"column:document_id;type:uuid;not null;index"`
	ProductID  uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Quantity   int              `gorm:"column:quantity;not null"`
	UnitCost   *decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2)"`
	Notes      *string          `gorm:"column:notes"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
