package sites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/internal/repo"
	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	"github.com/edilsuite/gestionale-backend/pkg/pagination"
)

type repository struct {
	repo.Base
}

// NewRepository builds a site materials repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

// IncrementQuantities upserts the (site, product) row adding the deltas to
// the running totals. Always increments, never overwrites absolutes.
func (r *repository) IncrementQuantities(ctx context.Context, siteID, productID uuid.UUID, deliveredDelta, returnedDelta int) error {
	return r.DB(ctx).Exec(`
		INSERT INTO site_material_records (id, site_id, product_id, planned_qty, delivered_qty, returned_qty, status, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (site_id, product_id) DO UPDATE SET
			delivered_qty = site_material_records.delivered_qty + excluded.delivered_qty,
			returned_qty = site_material_records.returned_qty + excluded.returned_qty,
			updated_at = CURRENT_TIMESTAMP`,
		uuid.New(), siteID, productID, deliveredDelta, returnedDelta, enums.SiteMaterialStatusPlanned).Error
}

func (r *repository) SetPlannedQty(ctx context.Context, siteID, productID uuid.UUID, planned int) error {
	return r.DB(ctx).Exec(`
		INSERT INTO site_material_records (id, site_id, product_id, planned_qty, delivered_qty, returned_qty, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, 0, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (site_id, product_id) DO UPDATE SET
			planned_qty = excluded.planned_qty,
			updated_at = CURRENT_TIMESTAMP`,
		uuid.New(), siteID, productID, planned, enums.SiteMaterialStatusPlanned).Error
}

func (r *repository) UpdateStatus(ctx context.Context, siteID, productID uuid.UUID, status enums.SiteMaterialStatus) error {
	return r.DB(ctx).Exec(`
		UPDATE site_material_records
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE site_id = ? AND product_id = ?`,
		status, siteID, productID).Error
}

func (r *repository) Find(ctx context.Context, siteID, productID uuid.UUID) (*models.SiteMaterialRecord, error) {
	var record models.SiteMaterialRecord
	err := r.DB(ctx).
		Where("site_id = ? AND product_id = ?", siteID, productID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListBySite(ctx context.Context, siteID uuid.UUID, limit int) ([]models.SiteMaterialRecord, error) {
	if limit <= 0 || limit > pagination.MaxLimit {
		limit = pagination.DefaultLimit
	}
	var records []models.SiteMaterialRecord
	err := r.DB(ctx).
		Where("site_id = ?", siteID).
		Order("product_id ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
