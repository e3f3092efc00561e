package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
	"github.com/edilsuite/gestionale-backend/pkg/pagination"
)

// Repository defines persistence for inventory records and the movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindRecord(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryRecord, error)
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID, limit int) ([]models.InventoryRecord, error)
	ListLowStock(ctx context.Context, limit int) ([]models.InventoryRecord, error)
	SetThreshold(ctx context.Context, productID, warehouseID uuid.UUID, threshold int) error

	InsertMovement(ctx context.Context, movement *models.StockMovement) (*models.StockMovement, error)
	FindMovement(ctx context.Context, id uuid.UUID) (*models.StockMovement, error)
	FindMovementsByDocument(ctx context.Context, documentID uuid.UUID) ([]models.StockMovement, error)
	ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) ([]models.StockMovement, error)
	MarkMovementReversed(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	NextMovementCode(ctx context.Context) (string, error)
}

// MovementFilters narrows movement listings.
type MovementFilters struct {
	ProductID   *uuid.UUID
	WarehouseID *uuid.UUID
	SiteID      *uuid.UUID
	DocumentID  *uuid.UUID
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
