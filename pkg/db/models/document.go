package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/edilsuite/gestionale-backend/pkg/enums"
)

// Document is a transport document (DDT) heading stock in or out of a warehouse.
type Document struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string               `gorm:"column:code;not null;uniqueIndex"`
	DocumentType  enums.DocumentType   `gorm:"column:document_type;type:document_type_enum;not null"`
	Status        enums.DocumentStatus `gorm:"column:status;type:document_status_enum;not null;default:'draft'"`
	WarehouseID   uuid.UUID            `gorm:"column:warehouse_id;type:uuid;not null"`
	ToWarehouseID *uuid.UUID           `gorm:"column:to_warehouse_id;type:uuid"`
	SiteID        *uuid.UUID           `gorm:"column:site_id;type:uuid"`
	SupplierID    *uuid.UUID           `gorm:"column:supplier_id;type:uuid"`
	Counterparty  *string              `gorm:"column:counterparty"`
	ReturnReason  *enums.ReturnReason  `gorm:"column:return_reason;type:return_reason_enum"`
	Carrier       *string              `gorm:"column:carrier"`
	Notes         *string              `gorm:"column:notes"`
	IssueDate     time.Time            `gorm:"column:issue_date;not null"`
	CreatedBy     *uuid.UUID           `gorm:"column:created_by;type:uuid"`
	ConfirmedAt   *time.Time           `gorm:"column:confirmed_at"`
	DeliveredAt   *time.Time           `gorm:"column:delivered_at"`
	CancelledAt   *time.Time           `gorm:"column:cancelled_at"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`

	Lines []DocumentLine `gorm:"foreignKey:DocumentID"`
}
