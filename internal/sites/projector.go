package sites

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
)

// SiteMaterialEvent is the outbox payload for projection updates.
type SiteMaterialEvent struct {
	SiteID       uuid.UUID                `json:"site_id"`
	ProductID    uuid.UUID                `json:"product_id"`
	PlannedQty   int                      `json:"planned_qty"`
	DeliveredQty int                      `json:"delivered_qty"`
	ReturnedQty  int                      `json:"returned_qty"`
	Status       enums.SiteMaterialStatus `json:"status"`
	DocumentID   *uuid.UUID               `json:"document_id,omitempty"`
}

// Projector maintains the per-(site, product) material totals. It runs
// inside the caller's transaction so the projection commits or rolls back
// with the ledger write that caused it.
type Projector struct {
	repo   Repository
	outbox outboxPublisher
}

func NewProjector(repo Repository, publisher outboxPublisher) (*Projector, error) {
	if repo == nil {
		return nil, fmt.Errorf("site materials repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Projector{repo: repo, outbox: publisher}, nil
}

// OnDelivered accumulates every line of a delivered outgoing document into
// the site's delivered totals. The caller gates on document type and site.
func (p *Projector) OnDelivered(ctx context.Context, tx *gorm.DB, document *models.Document) error {
	if document.SiteID == nil {
		return nil
	}
	documentID := document.ID
	for _, line := range document.Lines {
		if err := p.apply(ctx, tx, *document.SiteID, line.ProductID, line.Quantity, 0, &documentID); err != nil {
			return err
		}
	}
	return nil
}

// ApplyManualMovement folds a manual site allocation or return into the
// projection.
func (p *Projector) ApplyManualMovement(ctx context.Context, tx *gorm.DB, siteID, productID uuid.UUID, deliveredDelta, returnedDelta int) error {
	return p.apply(ctx, tx, siteID, productID, deliveredDelta, returnedDelta, nil)
}

func (p *Projector) apply(ctx context.Context, tx *gorm.DB, siteID, productID uuid.UUID, deliveredDelta, returnedDelta int, documentID *uuid.UUID) error {
	repo := p.repo.WithTx(tx)

	if err := repo.IncrementQuantities(ctx, siteID, productID, deliveredDelta, returnedDelta); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment site material totals")
	}

	record, err := repo.Find(ctx, siteID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load site material record")
	}

	status := record.DeriveStatus()
	if status != record.Status {
		if err := repo.UpdateStatus(ctx, siteID, productID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update site material status")
		}
		record.Status = status
	}

	return p.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSiteMaterialUpdated,
		AggregateType: enums.AggregateSiteMaterial,
		AggregateID:   record.ID,
		Version:       1,
		Data: SiteMaterialEvent{
			SiteID:       record.SiteID,
			ProductID:    record.ProductID,
			PlannedQty:   record.PlannedQty,
			DeliveredQty: record.DeliveredQty,
			ReturnedQty:  record.ReturnedQty,
			Status:       record.Status,
			DocumentID:   documentID,
		},
	})
}

// SetPlannedQty records the planned quantity for a (site, product) pair and
// recomputes the derived status.
func (p *Projector) SetPlannedQty(ctx context.Context, tx *gorm.DB, siteID, productID uuid.UUID, planned int) error {
	if planned < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "planned quantity cannot be negative")
	}
	repo := p.repo.WithTx(tx)
	if err := repo.SetPlannedQty(ctx, siteID, productID, planned); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set planned quantity")
	}
	record, err := repo.Find(ctx, siteID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load site material record")
	}
	if status := record.DeriveStatus(); status != record.Status {
		if err := repo.UpdateStatus(ctx, siteID, productID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update site material status")
		}
	}
	return nil
}

// ListBySite reads the projection for one site.
func (p *Projector) ListBySite(ctx context.Context, siteID uuid.UUID, limit int) ([]models.SiteMaterialRecord, error) {
	records, err := p.repo.ListBySite(ctx, siteID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list site materials")
	}
	return records, nil
}
