package sites

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
)

// Repository defines persistence for the per-site material read model.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	IncrementQuantities(ctx context.Context, siteID, productID uuid.UUID, deliveredDelta, returnedDelta int) error
	SetPlannedQty(ctx context.Context, siteID, productID uuid.UUID, planned int) error
	UpdateStatus(ctx context.Context, siteID, productID uuid.UUID, status enums.SiteMaterialStatus) error
	Find(ctx context.Context, siteID, productID uuid.UUID) (*models.SiteMaterialRecord, error)
	ListBySite(ctx context.Context, siteID uuid.UUID, limit int) ([]models.SiteMaterialRecord, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
