package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/internal/repo"
	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/pagination"
)

type repository struct {
	repo.Base
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) FindRecord(ctx context.Context, productID, warehouseID uuid.UUID) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := r.DB(ctx).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListByWarehouse(ctx context.Context, warehouseID uuid.UUID, limit int) ([]models.InventoryRecord, error) {
	if limit <= 0 || limit > pagination.MaxLimit {
		limit = pagination.DefaultLimit
	}
	var records []models.InventoryRecord
	err := r.DB(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("product_id ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *repository) ListLowStock(ctx context.Context, limit int) ([]models.InventoryRecord, error) {
	if limit <= 0 || limit > pagination.MaxLimit {
		limit = pagination.DefaultLimit
	}
	var records []models.InventoryRecord
	err := r.DB(ctx).
		Where("low_stock_threshold > 0 AND quantity_available <= low_stock_threshold").
		Order("warehouse_id ASC").
		Order("product_id ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *repository) SetThreshold(ctx context.Context, productID, warehouseID uuid.UUID, threshold int) error {
	res := r.DB(ctx).Exec(`
		UPDATE inventory_records
		SET low_stock_threshold = ?, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND warehouse_id = ?`,
		threshold, productID, warehouseID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) InsertMovement(ctx context.Context, movement *models.StockMovement) (*models.StockMovement, error) {
	if err := r.DB(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

func (r *repository) FindMovement(ctx context.Context, id uuid.UUID) (*models.StockMovement, error) {
	var movement models.StockMovement
	err := r.DB(ctx).
		Where("id = ?", id).
		First(&movement).Error
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) FindMovementsByDocument(ctx context.Context, documentID uuid.UUID) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := r.DB(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&movements).Error
	return movements, err
}

func (r *repository) ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) ([]models.StockMovement, error) {
	query := r.DB(ctx).Model(&models.StockMovement{})
	if filters.ProductID != nil {
		query = query.Where("product_id = ?", *filters.ProductID)
	}
	if filters.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filters.WarehouseID)
	}
	if filters.SiteID != nil {
		query = query.Where("site_id = ?", *filters.SiteID)
	}
	if filters.DocumentID != nil {
		query = query.Where("document_id = ?", *filters.DocumentID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var movements []models.StockMovement
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.NormalizeLimit(params.Limit)).
		Find(&movements).Error
	return movements, err
}

// MarkMovementReversed flips the reversal marker. The guard on reversed makes
// double-reversal a detectable no-op: the second caller gets false back.
func (r *repository) MarkMovementReversed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	res := r.DB(ctx).Exec(`
		UPDATE stock_movements
		SET reversed = ?, reversed_at = CURRENT_TIMESTAMP, reversal_reason = ?
		WHERE id = ? AND reversed = ?`,
		true, reason, id, false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// NextMovementCode issues the next MOV-<yyyymmdd>-<seq> code. Runs inside the
// caller's transaction; the unique index on code backstops races.
func (r *repository) NextMovementCode(ctx context.Context) (string, error) {
	day := time.Now().UTC().Format("20060102")
	prefix := fmt.Sprintf("MOV-%s-", day)
	var count int64
	err := r.DB(ctx).
		Model(&models.StockMovement{}).
		Where("code LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, count+1), nil
}
