package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/internal/inventory"
	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
	"github.com/edilsuite/gestionale-backend/pkg/pagination"
)

// Service drives the transport document lifecycle. Confirm, Cancel and
// Deliver each run in exactly one transaction spanning the status flip,
// every ledger mutation and every queued event.
type Service interface {
	CreateDraft(ctx context.Context, input DocumentInput) (*models.Document, error)
	UpdateDraft(ctx context.Context, id uuid.UUID, input DocumentInput) (*models.Document, error)
	Confirm(ctx context.Context, id, actorID uuid.UUID) (*models.Document, error)
	MarkInTransit(ctx context.Context, id, actorID uuid.UUID) (*models.Document, error)
	Deliver(ctx context.Context, id, actorID uuid.UUID) (*models.Document, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string, actorID uuid.UUID) (*models.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Document, error)
	List(ctx context.Context, filters Filters, params pagination.Params) ([]models.Document, error)
}

// DocumentInput is the draft header plus lines. Upstream request validation
// resolves the foreign keys; the service revalidates the invariants it owns.
type DocumentInput struct {
	DocumentType  enums.DocumentType
	WarehouseID   uuid.UUID
	ToWarehouseID *uuid.UUID
	SiteID        *uuid.UUID
	SupplierID    *uuid.UUID
	Counterparty  *string
	ReturnReason  *enums.ReturnReason
	Carrier       *string
	Notes         *string
	IssueDate     time.Time
	ActorID       uuid.UUID
	Lines         []LineInput
}

// LineInput is one product row of a draft.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitCost  *decimal.Decimal
	Notes     *string
}

// DocumentEvent is the outbox payload for lifecycle events.
type DocumentEvent struct {
	DocumentID    uuid.UUID            `json:"document_id"`
	Code          string               `json:"code"`
	DocumentType  enums.DocumentType   `json:"document_type"`
	Status        enums.DocumentStatus `json:"status"`
	WarehouseID   uuid.UUID            `json:"warehouse_id"`
	ToWarehouseID *uuid.UUID           `json:"to_warehouse_id,omitempty"`
	SiteID        *uuid.UUID           `json:"site_id,omitempty"`
	Reason        string               `json:"reason,omitempty"`
}

type service struct {
	repo      Repository
	inventory inventory.Repository
	ledger    *inventory.Ledger
	monitor   *inventory.Monitor
	tx        txRunner
	outbox    outboxPublisher
	sites     deliveryProjector
}

// NewService wires the document lifecycle service. The delivery projector
// may be nil when the site read model is not enabled.
func NewService(
	repo Repository,
	inventoryRepo inventory.Repository,
	ledger *inventory.Ledger,
	monitor *inventory.Monitor,
	tx txRunner,
	publisher outboxPublisher,
	sites deliveryProjector,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if inventoryRepo == nil {
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
		repo:      repo,
		inventory: inventoryRepo,
		ledger:    ledger,
		monitor:   monitor,
		tx:        tx,
		outbox:    publisher,
		sites:     sites,
	}, nil
}

func (s *service) CreateDraft(ctx context.Context, input DocumentInput) (*models.Document, error) {
	if err := validateDocumentInput(input); err != nil {
		return nil, err
	}

	var created *models.Document
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		code, err := repo.NextDocumentCode(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate document code")
		}

		document := buildDocument(input)
		document.ID = uuid.New()
		document.Code = code
		document.Status = enums.DocumentStatusDraft

		created, err = repo.Insert(ctx, document)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert document")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) UpdateDraft(ctx context.Context, id uuid.UUID, input DocumentInput) (*models.Document, error) {
	if err := validateDocumentInput(input); err != nil {
		return nil, err
	}

	var updated *models.Document
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		document, err := s.loadDocument(ctx, repo, id)
		if err != nil {
			return err
		}
		if document.Status != enums.DocumentStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("document in status %q is immutable", document.Status))
		}

		next := buildDocument(input)
		next.ID = document.ID
		if err := repo.UpdateDraft(ctx, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update document")
		}
		if err := repo.ReplaceLines(ctx, document.ID, next.Lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace document lines")
		}

		updated, err = repo.FindByID(ctx, document.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload document")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Confirm moves a draft to issued, generating and applying every stock
// movement the document implies. Any failure rolls the whole transition back
// and the document stays draft.
func (s *service) Confirm(ctx context.Context, id, actorID uuid.UUID) (*models.Document, error) {
	var confirmed *models.Document
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		inv := s.inventory.WithTx(tx)

		document, err := s.loadDocument(ctx, repo, id)
		if err != nil {
			return err
		}
		if !document.Status.CanBeConfirmed() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("document in status %q cannot be confirmed", document.Status))
		}
		if len(document.Lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "document has no lines")
		}

		if err := s.checkFreeStock(ctx, tx, document); err != nil {
			return err
		}

		now := time.Now().UTC()
		ok, err := repo.TransitionStatus(ctx, document.ID, enums.DocumentStatusDraft, enums.DocumentStatusIssued, StatusStamps{ConfirmedAt: &now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition document status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "document status changed concurrently")
		}

		actor := actorRef(actorID)
		for _, line := range document.Lines {
			planned, err := planLineMovements(document, line)
			if err != nil {
				return err
			}
			for _, plan := range planned {
				if err := s.applyPlannedMovement(ctx, tx, inv, plan, actorID, actor); err != nil {
					return err
				}
			}
		}

		document.Status = enums.DocumentStatusIssued
		document.ConfirmedAt = &now
		if err := s.emitLifecycleEvent(ctx, tx, enums.EventDocumentConfirmed, document, actor, ""); err != nil {
			return err
		}

		confirmed = document
		return nil
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}

// Cancel reverses every movement the document generated and parks it in the
// cancelled terminal state. Delivery is a point of no return.
func (s *service) Cancel(ctx context.Context, id uuid.UUID, reason string, actorID uuid.UUID) (*models.Document, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason required")
	}

	var cancelled *models.Document
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		document, err := s.loadDocument(ctx, repo, id)
		if err != nil {
			return err
		}
		if document.Status == enums.DocumentStatusDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivered documents cannot be cancelled")
		}
		if !document.Status.CanBeCancelled() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("document in status %q cannot be cancelled", document.Status))
		}

		now := time.Now().UTC()
		ok, err := repo.TransitionStatus(ctx, document.ID, document.Status, enums.DocumentStatusCancelled, StatusStamps{CancelledAt: &now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition document status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "document status changed concurrently")
		}

		actor := actorRef(actorID)
		if _, err := s.reverseMovements(ctx, tx, document, reason, actor); err != nil {
			return err
		}

		document.Status = enums.DocumentStatusCancelled
		document.CancelledAt = &now
		if err := s.emitLifecycleEvent(ctx, tx, enums.EventDocumentCancelled, document, actor, reason); err != nil {
			return err
		}

		cancelled = document
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// MarkInTransit records that the goods physically left the warehouse.
func (s *service) MarkInTransit(ctx context.Context, id, actorID uuid.UUID) (*models.Document, error) {
	var updated *models.Document
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		document, err := s.loadDocument(ctx, repo, id)
		if err != nil {
			return err
		}
		if document.Status != enums.DocumentStatusIssued {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("document in status %q cannot be marked in transit", document.Status))
		}

		ok, err := repo.TransitionStatus(ctx, document.ID, enums.DocumentStatusIssued, enums.DocumentStatusInTransit, StatusStamps{})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition document status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "document status changed concurrently")
		}

		document.Status = enums.DocumentStatusInTransit
		updated = document
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Deliver closes the document. Outgoing documents bound to a site feed the
// site material projection in the same transaction.
func (s *service) Deliver(ctx context.Context, id, actorID uuid.UUID) (*models.Document, error) {
	var delivered *models.Document
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		document, err := s.loadDocument(ctx, repo, id)
		if err != nil {
			return err
		}
		if !document.Status.CanBeDelivered() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("document in status %q cannot be delivered", document.Status))
		}

		now := time.Now().UTC()
		ok, err := repo.TransitionStatus(ctx, document.ID, document.Status, enums.DocumentStatusDelivered, StatusStamps{DeliveredAt: &now})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition document status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConcurrency, "document status changed concurrently")
		}

		document.Status = enums.DocumentStatusDelivered
		document.DeliveredAt = &now

		if s.sites != nil && document.DocumentType == enums.DocumentTypeOutgoing && document.SiteID != nil {
			if err := s.sites.OnDelivered(ctx, tx, document); err != nil {
				return err
			}
		}

		actor := actorRef(actorID)
		if err := s.emitLifecycleEvent(ctx, tx, enums.EventDocumentDelivered, document, actor, ""); err != nil {
			return err
		}

		delivered = document
		return nil
	})
	if err != nil {
		return nil, err
	}
	return delivered, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	document, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	return document, nil
}

func (s *service) List(ctx context.Context, filters Filters, params pagination.Params) ([]models.Document, error) {
	docs, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	return docs, nil
}

func (s *service) loadDocument(ctx context.Context, repo Repository, id uuid.UUID) (*models.Document, error) {
	document, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	return document, nil
}

func (s *service) applyPlannedMovement(ctx context.Context, tx *gorm.DB, inv inventory.Repository, plan plannedMovement, actorID uuid.UUID, actor *outbox.ActorRef) error {
	code, err := inv.NextMovementCode(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate movement code")
	}

	movement := plan.Movement
	movement.Code = code
	if actorID != uuid.Nil {
		performer := actorID
		movement.PerformedBy = &performer
	}
	if _, err := inv.InsertMovement(ctx, &movement); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert stock movement")
	}

	for _, delta := range plan.Deltas {
		if err := s.ledger.ApplyDelta(ctx, tx, movement.ProductID, delta.WarehouseID, delta.Bucket, delta.Amount); err != nil {
			return err
		}
		if delta.Bucket == enums.BucketAvailable {
			if err := s.monitor.OnMovementApplied(ctx, tx, movement, delta.WarehouseID, delta.Amount); err != nil {
				return err
			}
		}
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockMovementCreated,
		AggregateType: enums.AggregateStockMovement,
		AggregateID:   movement.ID,
		Version:       1,
		Actor:         actor,
		Data: inventory.MovementEvent{
			MovementID:   movement.ID,
			Code:         movement.Code,
			MovementType: movement.MovementType,
			ProductID:    movement.ProductID,
			WarehouseID:  movement.WarehouseID,
			DocumentID:   movement.DocumentID,
			SiteID:       movement.SiteID,
			Quantity:     movement.Quantity,
		},
	})
}

// checkFreeStock rejects a confirm that would ship more than the unreserved
// stock on hand. Only outgoing and internal documents drain their source
// warehouse against real availability; returns and rentals follow the ledger
// policy and may drive the bucket negative.
func (s *service) checkFreeStock(ctx context.Context, tx *gorm.DB, document *models.Document) error {
	if document.DocumentType != enums.DocumentTypeOutgoing && document.DocumentType != enums.DocumentTypeInternal {
		return nil
	}

	required := make(map[uuid.UUID]int)
	for _, line := range document.Lines {
		required[line.ProductID] += line.Quantity
	}

	for productID, qty := range required {
		free := 0
		record, err := s.ledger.Find(ctx, tx, productID, document.WarehouseID)
		if err != nil {
			if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
				return err
			}
		} else {
			free = record.QuantityFree()
		}
		if free < qty {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "free stock below requested quantity").
				WithDetails(map[string]any{
					"product_id":   productID.String(),
					"warehouse_id": document.WarehouseID.String(),
					"requested":    qty,
					"free":         free,
				})
		}
	}
	return nil
}

func (s *service) emitLifecycleEvent(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, document *models.Document, actor *outbox.ActorRef, reason string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateDocument,
		AggregateID:   document.ID,
		Version:       1,
		Actor:         actor,
		Data: DocumentEvent{
			DocumentID:    document.ID,
			Code:          document.Code,
			DocumentType:  document.DocumentType,
			Status:        document.Status,
			WarehouseID:   document.WarehouseID,
			ToWarehouseID: document.ToWarehouseID,
			SiteID:        document.SiteID,
			Reason:        reason,
		},
	})
}

func validateDocumentInput(input DocumentInput) error {
	if !input.DocumentType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid document type %q", input.DocumentType))
	}
	if input.WarehouseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "warehouse id required")
	}
	if input.DocumentType.RequiresDestinationWarehouse() {
		if input.ToWarehouseID == nil || *input.ToWarehouseID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "destination warehouse required for internal documents")
		}
		if *input.ToWarehouseID == input.WarehouseID {
			return pkgerrors.New(pkgerrors.CodeValidation, "destination warehouse must differ from source")
		}
	} else if input.ToWarehouseID != nil {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("document type %q does not take a destination warehouse", input.DocumentType))
	}
	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: product id required", i))
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i))
		}
	}
	return nil
}

func buildDocument(input DocumentInput) *models.Document {
	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = time.Now().UTC()
	}

	document := &models.Document{
		DocumentType:  input.DocumentType,
		WarehouseID:   input.WarehouseID,
		ToWarehouseID: input.ToWarehouseID,
		SiteID:        input.SiteID,
		SupplierID:    input.SupplierID,
		Counterparty:  input.Counterparty,
		ReturnReason:  input.ReturnReason,
		Carrier:       input.Carrier,
		Notes:         input.Notes,
		IssueDate:     issueDate,
	}
	if input.ActorID != uuid.Nil {
		creator := input.ActorID
		document.CreatedBy = &creator
	}

	lines := make([]models.DocumentLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		lines = append(lines, models.DocumentLine{
			ID:        uuid.New(),
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitCost:  line.UnitCost,
			Notes:     line.Notes,
		})
	}
	document.Lines = lines
	return document
}

func actorRef(actorID uuid.UUID) *outbox.ActorRef {
	if actorID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{ActorID: actorID}
}
