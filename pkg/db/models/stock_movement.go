package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/edilsuite/gestionale-backend/pkg/enums"
)

// StockMovement is an append-only ledger entry. Rows are never updated after
// insert except for the reversal flags. Quantity is positive for document
// generated movements; manual adjustments carry the sign directly.
type StockMovement struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code            string             `gorm:"column:code;not null;uniqueIndex"`
	MovementType    enums.MovementType `gorm:"column:movement_type;type:stock_movement_type_enum;not null"`
	ProductID       uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	WarehouseID     uuid.UUID          `gorm:"column:warehouse_id;type:uuid;not null;index"`
	FromWarehouseID *uuid.UUID         `gorm:"column:from_warehouse_id;type:uuid"`
	ToWarehouseID   *uuid.UUID         `gorm:"column:to_warehouse_id;type:uuid"`
	SiteID          *uuid.UUID         `gorm:"column:site_id;type:uuid;index"`
	SupplierID      *uuid.UUID         `gorm:"column:supplier_id;type:uuid"`
	DocumentID      *uuid.UUID         `gorm:"column:document_id;type:uuid;index"`
	Quantity        int                `gorm:"column:quantity;not null"`
	UnitCost        *decimal.Decimal   `gorm:"column:unit_cost;type:numeric(12,2)"`
	MovementDate    time.Time          `gorm:"column:movement_date;not null"`
	ReferenceDoc    string             `gorm:"column:reference_document;not null;default:''"`
	Notes           *string            `gorm:"column:notes"`
	PerformedBy     *uuid.UUID         `gorm:"column:performed_by;type:uuid"`
	Reversed        bool               `gorm:"column:reversed;not null;default:false"`
	ReversedAt      *time.Time         `gorm:"column:reversed_at"`
	ReversalReason  *string            `gorm:"column:reversal_reason"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
}
