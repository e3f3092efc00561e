package documents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
	"github.com/edilsuite/gestionale-backend/pkg/pagination"
)

// Repository defines persistence for transport documents and their lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Insert(ctx context.Context, document *models.Document) (*models.Document, error)
	UpdateDraft(ctx context.Context, document *models.Document) error
	ReplaceLines(ctx context.Context, documentID uuid.UUID, lines []models.DocumentLine) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, filters Filters, params pagination.Params) ([]models.Document, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.DocumentStatus, stamps StatusStamps) (bool, error)
	NextDocumentCode(ctx context.Context) (string, error)
}

// Filters narrows document listings.
type Filters struct {
	DocumentType *enums.DocumentType
	Status       *enums.DocumentStatus
	WarehouseID  *uuid.UUID
	SiteID       *uuid.UUID
}

// StatusStamps carries the lifecycle timestamps a transition sets alongside
// the status column.
type StatusStamps struct {
	ConfirmedAt *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// deliveryProjector updates the per site material read model when an
// outgoing document bound to a site is delivered.
type deliveryProjector interface {
	OnDelivered(ctx context.Context, tx *gorm.DB, document *models.Document) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
