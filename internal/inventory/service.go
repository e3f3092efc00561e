package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
	"github.com/edilsuite/gestionale-backend/pkg/pagination"
)

// siteProjector receives manual site allocation/return quantities so the per
// site material totals stay in step with the ledger.
type siteProjector interface {
	ApplyManualMovement(ctx context.Context, tx *gorm.DB, siteID, productID uuid.UUID, deliveredDelta, returnedDelta int) error
}

// Service exposes ledger operations that do not go through a document.
type Service interface {
	RecordManualMovement(ctx context.Context, input ManualMovementInput) (*models.StockMovement, error)
	Reserve(ctx context.Context, input ReservationInput) error
	Release(ctx context.Context, input ReservationInput) error
	SetThreshold(ctx context.Context, productID, warehouseID uuid.UUID, threshold int) error
	GetRecord(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryRecord, error)
	ListByWarehouse(ctx context.Context, warehouseID uuid.UUID, limit int) ([]models.InventoryRecord, error)
	ListLowStock(ctx context.Context, limit int) ([]models.InventoryRecord, error)
	GetMovement(ctx context.Context, id uuid.UUID) (*models.StockMovement, error)
	ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) ([]models.StockMovement, error)
}

// ManualMovementInput describes an operator-entered ledger entry with no
// owning document. Adjustments carry their sign in Quantity; the other types
// take a positive quantity and imply the direction. Bucket is honored for
// adjustments only (quarantine corrections and the like) and defaults to
// available when empty.
type ManualMovementInput struct {
	MovementType enums.MovementType
	ProductID    uuid.UUID
	WarehouseID  uuid.UUID
	SiteID       *uuid.UUID
	Quantity     int
	Bucket       enums.Bucket
	UnitCost     *decimal.Decimal
	Notes        *string
	ActorID      uuid.UUID
}

// ReservationInput moves stock between the available and reserved buckets.
type ReservationInput struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Quantity    int
	ActorID     uuid.UUID
}

type service struct {
	repo    Repository
	ledger  *Ledger
	monitor *Monitor
	tx      txRunner
	outbox  outboxPublisher
	sites   siteProjector
}

// NewService wires the inventory service. The site projector may be nil when
// manual site movements are not enabled.
func NewService(repo Repository, ledger *Ledger, monitor *Monitor, tx txRunner, publisher outboxPublisher, sites siteProjector) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if monitor == nil {
		return nil, fmt.Errorf("low stock monitor required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		ledger:  ledger,
		monitor: monitor,
		tx:      tx,
		outbox:  publisher,
		sites:   sites,
	}, nil
}

// MovementEvent is the outbox payload for created and reversed ledger entries.
type MovementEvent struct {
	MovementID   uuid.UUID          `json:"movement_id"`
	Code         string             `json:"code"`
	MovementType enums.MovementType `json:"movement_type"`
	ProductID    uuid.UUID          `json:"product_id"`
	WarehouseID  uuid.UUID          `json:"warehouse_id"`
	DocumentID   *uuid.UUID         `json:"document_id,omitempty"`
	SiteID       *uuid.UUID         `json:"site_id,omitempty"`
	Quantity     int                `json:"quantity"`
}

func (s *service) RecordManualMovement(ctx context.Context, input ManualMovementInput) (*models.StockMovement, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.WarehouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}
	bucket, delta, err := manualEffect(input)
	if err != nil {
		return nil, err
	}

	var created *models.StockMovement
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		code, err := repo.NextMovementCode(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate movement code")
		}

		actorID := input.ActorID
		movement := &models.StockMovement{
			ID:           uuid.New(),
			Code:         code,
			MovementType: input.MovementType,
			ProductID:    input.ProductID,
			WarehouseID:  input.WarehouseID,
			SiteID:       input.SiteID,
			Quantity:     input.Quantity,
			UnitCost:     input.UnitCost,
			MovementDate: time.Now().UTC(),
			Notes:        input.Notes,
		}
		if actorID != uuid.Nil {
			movement.PerformedBy = &actorID
		}
		if _, err := repo.InsertMovement(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert stock movement")
		}

		if err := s.ledger.ApplyDelta(ctx, tx, input.ProductID, input.WarehouseID, bucket, delta); err != nil {
			return err
		}

		if s.sites != nil && input.SiteID != nil {
			deliveredDelta, returnedDelta := siteDeltas(input.MovementType, input.Quantity)
			if deliveredDelta != 0 || returnedDelta != 0 {
				if err := s.sites.ApplyManualMovement(ctx, tx, *input.SiteID, input.ProductID, deliveredDelta, returnedDelta); err != nil {
					return err
				}
			}
		}

		actor := buildActor(input.ActorID)
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockMovementCreated,
			AggregateType: enums.AggregateStockMovement,
			AggregateID:   movement.ID,
			Version:       1,
			Actor:         actor,
			Data: MovementEvent{
				MovementID:   movement.ID,
				Code:         movement.Code,
				MovementType: movement.MovementType,
				ProductID:    movement.ProductID,
				WarehouseID:  movement.WarehouseID,
				SiteID:       movement.SiteID,
				Quantity:     movement.Quantity,
			},
		}); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryAdjusted,
			AggregateType: enums.AggregateInventoryRecord,
			AggregateID:   input.ProductID,
			Version:       1,
			Actor:         actor,
			Data: map[string]any{
				"product_id":   input.ProductID.String(),
				"warehouse_id": input.WarehouseID.String(),
				"bucket":       bucket,
				"delta":        delta,
				"movement_id":  movement.ID.String(),
			},
		}); err != nil {
			return err
		}

		if bucket == enums.BucketAvailable {
			if err := s.monitor.OnMovementApplied(ctx, tx, *movement, input.WarehouseID, delta); err != nil {
				return err
			}
		}

		created = movement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Reserve(ctx context.Context, input ReservationInput) error {
	if input.ProductID == uuid.Nil || input.WarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse ids required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.ledger.Reserve(ctx, tx, input.ProductID, input.WarehouseID, input.Quantity)
	})
}

func (s *service) Release(ctx context.Context, input ReservationInput) error {
	if input.ProductID == uuid.Nil || input.WarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse ids required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.ledger.Release(ctx, tx, input.ProductID, input.WarehouseID, input.Quantity)
	})
}

func (s *service) SetThreshold(ctx context.Context, productID, warehouseID uuid.UUID, threshold int) error {
	if productID == uuid.Nil || warehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product and warehouse ids required")
	}
	if threshold < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "threshold cannot be negative")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.ledger.GetOrCreate(ctx, tx, productID, warehouseID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).SetThreshold(ctx, productID, warehouseID, threshold); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set low stock threshold")
		}
		return nil
	})
}

func (s *service) GetRecord(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryRecord, error) {
	record, err := s.repo.FindRecord(ctx, productID, warehouseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}
	return record, nil
}

func (s *service) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID, limit int) ([]models.InventoryRecord, error) {
	records, err := s.repo.ListByWarehouse(ctx, warehouseID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory records")
	}
	return records, nil
}

func (s *service) ListLowStock(ctx context.Context, limit int) ([]models.InventoryRecord, error) {
	records, err := s.repo.ListLowStock(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock records")
	}
	return records, nil
}

func (s *service) GetMovement(ctx context.Context, id uuid.UUID) (*models.StockMovement, error) {
	movement, err := s.repo.FindMovement(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock movement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock movement")
	}
	return movement, nil
}

func (s *service) ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) ([]models.StockMovement, error) {
	movements, err := s.repo.ListMovements(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return movements, nil
}

// manualEffect returns the target bucket and signed delta for a manual entry.
func manualEffect(input ManualMovementInput) (enums.Bucket, int, error) {
	bucket := enums.BucketAvailable
	switch input.MovementType {
	case enums.MovementTypeAdjustment:
		if input.Quantity == 0 {
			return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "adjustment quantity cannot be zero")
		}
		if input.Bucket != "" {
			if !input.Bucket.IsValid() {
				return "", 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown inventory bucket %q", input.Bucket))
			}
			bucket = input.Bucket
		}
		return bucket, input.Quantity, nil
	case enums.MovementTypeWaste:
		if input.Quantity <= 0 {
			return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "waste quantity must be positive")
		}
		return bucket, -input.Quantity, nil
	case enums.MovementTypeSiteAllocation:
		if input.Quantity <= 0 {
			return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "site allocation quantity must be positive")
		}
		if input.SiteID == nil {
			return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "site id required for site allocation")
		}
		return bucket, -input.Quantity, nil
	case enums.MovementTypeSiteReturn:
		if input.Quantity <= 0 {
			return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "site return quantity must be positive")
		}
		if input.SiteID == nil {
			return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "site id required for site return")
		}
		return bucket, input.Quantity, nil
	default:
		return "", 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("movement type %q cannot be recorded manually", input.MovementType))
	}
}

func siteDeltas(movementType enums.MovementType, quantity int) (delivered, returned int) {
	switch movementType {
	case enums.MovementTypeSiteAllocation:
		return quantity, 0
	case enums.MovementTypeSiteReturn:
		return 0, quantity
	default:
		return 0, 0
	}
}

func buildActor(actorID uuid.UUID) *outbox.ActorRef {
	if actorID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{ActorID: actorID}
}
