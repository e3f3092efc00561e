package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
)

// Ledger owns every mutation of inventory_records. All writes are single
// guarded UPDATE statements so concurrent documents touching the same
// (product, warehouse) pair serialize on the row without lost updates.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// GetOrCreate returns the record for the pair, creating a zeroed row on first
// contact. The insert is idempotent under concurrency.
func (l *Ledger) GetOrCreate(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID) (*models.InventoryRecord, error) {
	if err := l.ensureRecord(ctx, tx, productID, warehouseID); err != nil {
		return nil, err
	}
	return l.Find(ctx, tx, productID, warehouseID)
}

// Find loads the record without creating it. Returns NotFound when the pair
// has never seen stock.
func (l *Ledger) Find(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := tx.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory record not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory record")
	}
	return &record, nil
}

// ApplyDelta atomically adds amount to the named bucket, creating the record
// first if absent. The available bucket may go negative; the other buckets
// are floored at zero and underflow is a state conflict.
func (l *Ledger) ApplyDelta(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, bucket enums.Bucket, amount int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for ledger mutation")
	}
	if amount == 0 {
		return nil
	}
	column, err := bucketColumn(bucket)
	if err != nil {
		return err
	}
	if err := l.ensureRecord(ctx, tx, productID, warehouseID); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE inventory_records
		SET %s = %s + ?, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND warehouse_id = ?`, column, column)
	args := []any{amount, productID, warehouseID}
	if amount < 0 && bucket != enums.BucketAvailable {
		query += fmt.Sprintf(" AND %s + ? >= 0", column)
		args = append(args, amount)
	}

	res := tx.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "apply inventory delta")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("bucket %s would go negative", bucket)).
			WithDetails(map[string]any{
				"product_id":   productID.String(),
				"warehouse_id": warehouseID.String(),
				"bucket":       bucket,
				"amount":       amount,
			})
	}
	return nil
}

// Reserve moves amount from available to reserved. Fails when free stock is
// short; the caller decides whether that is retryable.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, amount int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for ledger mutation")
	}
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "reserve amount must be positive")
	}
	if err := l.ensureRecord(ctx, tx, productID, warehouseID); err != nil {
		return err
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE inventory_records
		SET quantity_available = quantity_available - ?,
			quantity_reserved = quantity_reserved + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND warehouse_id = ? AND quantity_available >= ?`,
		amount, amount, productID, warehouseID, amount)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "available stock below requested reservation").
			WithDetails(map[string]any{
				"product_id":   productID.String(),
				"warehouse_id": warehouseID.String(),
				"amount":       amount,
			})
	}
	return nil
}

// Release moves amount from reserved back to available.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID, amount int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for ledger mutation")
	}
	if amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "release amount must be positive")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE inventory_records
		SET quantity_available = quantity_available + ?,
			quantity_reserved = quantity_reserved - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND warehouse_id = ? AND quantity_reserved >= ?`,
		amount, amount, productID, warehouseID, amount)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "release exceeds reserved stock").
			WithDetails(map[string]any{
				"product_id":   productID.String(),
				"warehouse_id": warehouseID.String(),
				"amount":       amount,
			})
	}
	return nil
}

func (l *Ledger) ensureRecord(ctx context.Context, tx *gorm.DB, productID, warehouseID uuid.UUID) error {
	res := tx.WithContext(ctx).Exec(`
		INSERT INTO inventory_records (product_id, warehouse_id, quantity_available, quantity_reserved, quantity_in_transit, quantity_quarantine, low_stock_threshold, updated_at)
		VALUES (?, ?, 0, 0, 0, 0, COALESCE((SELECT low_stock_threshold FROM products WHERE id = ?), 0), CURRENT_TIMESTAMP)
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`,
		productID, warehouseID, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "create inventory record")
	}
	return nil
}

func bucketColumn(bucket enums.Bucket) (string, error) {
	switch bucket {
	case enums.BucketAvailable:
		return "quantity_available", nil
	case enums.BucketReserved:
		return "quantity_reserved", nil
	case enums.BucketInTransit:
		return "quantity_in_transit", nil
	case enums.BucketQuarantine:
		return "quantity_quarantine", nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown inventory bucket %q", bucket))
	}
}
