package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/edilsuite/gestionale-backend/pkg/enums"
)

// SiteMaterialRecord is the per-site projection of planned versus delivered
// material, maintained by the delivery projector.
type SiteMaterialRecord struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SiteID       uuid.UUID                `gorm:"column:site_id;type:uuid;not null;uniqueIndex:uq_site_material"`
	ProductID    uuid.UUID                `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_site_material"`
	PlannedQty   int                      `gorm:"column:planned_qty;not null;default:0"`
	DeliveredQty int                      `gorm:"column:delivered_qty;not null;default:0"`
	ReturnedQty  int                      `gorm:"column:returned_qty;not null;default:0"`
	Status       enums.SiteMaterialStatus `gorm:"column:status;type:site_material_status_enum;not null;default:'planned'"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// InUseQty is the quantity currently at the site.
func (r SiteMaterialRecord) InUseQty() int {
	return r.DeliveredQty - r.ReturnedQty
}

// DeriveStatus recomputes the status from the quantity columns.
func (r SiteMaterialRecord) DeriveStatus() enums.SiteMaterialStatus {
	net := r.DeliveredQty - r.ReturnedQty
	switch {
	case net <= 0:
		return enums.SiteMaterialStatusPlanned
	case r.PlannedQty > 0 && net >= r.PlannedQty:
		return enums.SiteMaterialStatusCompleted
	default:
		return enums.SiteMaterialStatusPartial
	}
}
