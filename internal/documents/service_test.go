package documents

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/internal/inventory"
	"github.com/edilsuite/gestionale-backend/internal/sites"
	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
)

func setupDocumentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  unit TEXT NOT NULL DEFAULT 'pcs',
  low_stock_threshold INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  document_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  warehouse_id TEXT NOT NULL,
  to_warehouse_id TEXT,
  site_id TEXT,
  supplier_id TEXT,
  counterparty TEXT,
  return_reason TEXT,
  carrier TEXT,
  notes TEXT,
  issue_date DATETIME NOT NULL,
  created_by TEXT,
  confirmed_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS document_lines (
  id TEXT PRIMARY KEY,
  document_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_cost NUMERIC,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS stock_movements (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  movement_type TEXT NOT NULL,
  product_id TEXT NOT NULL,
  warehouse_id TEXT NOT NULL,
  from_warehouse_id TEXT,
  to_warehouse_id TEXT,
  site_id TEXT,
  supplier_id TEXT,
  document_id TEXT,
  quantity INTEGER NOT NULL,
  unit_cost NUMERIC,
  movement_date DATETIME NOT NULL,
  reference_document TEXT NOT NULL DEFAULT '',
  notes TEXT,
  performed_by TEXT,
  reversed INTEGER NOT NULL DEFAULT 0,
  reversed_at DATETIME,
  reversal_reason TEXT,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS inventory_records (
  product_id TEXT NOT NULL,
  warehouse_id TEXT NOT NULL,
  quantity_available INTEGER NOT NULL DEFAULT 0,
  quantity_reserved INTEGER NOT NULL DEFAULT 0,
  quantity_in_transit INTEGER NOT NULL DEFAULT 0,
  quantity_quarantine INTEGER NOT NULL DEFAULT 0,
  low_stock_threshold INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME,
  PRIMARY KEY (product_id, warehouse_id)
);`, `
CREATE TABLE IF NOT EXISTS site_material_records (
  id TEXT PRIMARY KEY,
  site_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  planned_qty INTEGER NOT NULL DEFAULT 0,
  delivered_qty INTEGER NOT NULL DEFAULT 0,
  returned_qty INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'planned',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (site_id, product_id)
);`}
	for _, ddl := range statements {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type capturingOutbox struct {
	events []outbox.DomainEvent
}

func (c *capturingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturingOutbox) countByType(eventType enums.OutboxEventType) int {
	count := 0
	for _, event := range c.events {
		if event.EventType == eventType {
			count++
		}
	}
	return count
}

type docsTestEnv struct {
	db        *gorm.DB
	svc       Service
	ledger    *inventory.Ledger
	inventory inventory.Repository
	projector *sites.Projector
	publisher *capturingOutbox
}

func newDocsTestEnv(t *testing.T) *docsTestEnv {
	t.Helper()

	db := setupDocumentsTestDB(t)
	publisher := &capturingOutbox{}
	ledger := inventory.NewLedger()
	monitor := inventory.NewMonitor(ledger, publisher)
	invRepo := inventory.NewRepository(db)

	projector, err := sites.NewProjector(sites.NewRepository(db), publisher)
	require.NoError(t, err)

	svc, err := NewService(
		NewRepository(db),
		invRepo,
		ledger,
		monitor,
		&gormTxRunner{db: db},
		publisher,
		projector,
	)
	require.NoError(t, err)

	return &docsTestEnv{
		db:        db,
		svc:       svc,
		ledger:    ledger,
		inventory: invRepo,
		projector: projector,
		publisher: publisher,
	}
}

func (e *docsTestEnv) seedProduct(t *testing.T, threshold int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	err := e.db.Exec(`
		INSERT INTO products (id, code, name, unit, low_stock_threshold)
		VALUES (?, ?, ?, 'pcs', ?)`,
		id, "PRD-"+id.String()[:8], "rebar", threshold).Error
	require.NoError(t, err)
	return id
}

func (e *docsTestEnv) seedStock(t *testing.T, productID, warehouseID uuid.UUID, qty int) {
	t.Helper()
	require.NoError(t, e.ledger.ApplyDelta(context.Background(), e.db, productID, warehouseID, enums.BucketAvailable, qty))
}

func (e *docsTestEnv) record(t *testing.T, productID, warehouseID uuid.UUID) *models.InventoryRecord {
	t.Helper()
	record, err := e.ledger.GetOrCreate(context.Background(), e.db, productID, warehouseID)
	require.NoError(t, err)
	return record
}

func (e *docsTestEnv) movements(t *testing.T, documentID uuid.UUID) []models.StockMovement {
	t.Helper()
	movements, err := e.inventory.FindMovementsByDocument(context.Background(), documentID)
	require.NoError(t, err)
	return movements
}

func draftInput(docType enums.DocumentType, warehouseID uuid.UUID, lines ...LineInput) DocumentInput {
	return DocumentInput{
		DocumentType: docType,
		WarehouseID:  warehouseID,
		ActorID:      uuid.New(),
		Lines:        lines,
	}
}

func TestCreateDraftAssignsCodeAndLines(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()

	document, err := env.svc.CreateDraft(context.Background(), draftInput(
		enums.DocumentTypeIncoming, warehouseID,
		LineInput{ProductID: productID, Quantity: 5},
	))
	require.NoError(t, err)
	assert.Equal(t, enums.DocumentStatusDraft, document.Status)
	assert.Contains(t, document.Code, "DDT-")
	require.Len(t, document.Lines, 1)
	assert.Equal(t, productID, document.Lines[0].ProductID)
}

func TestCreateDraftValidation(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	toID := uuid.New()

	cases := []struct {
		name  string
		input DocumentInput
	}{
		{
			name:  "invalid type",
			input: draftInput("bogus", warehouseID),
		},
		{
			name:  "missing warehouse",
			input: draftInput(enums.DocumentTypeIncoming, uuid.Nil),
		},
		{
			name:  "internal without destination",
			input: draftInput(enums.DocumentTypeInternal, warehouseID),
		},
		{
			name: "internal with same destination",
			input: DocumentInput{
				DocumentType:  enums.DocumentTypeInternal,
				WarehouseID:   warehouseID,
				ToWarehouseID: &warehouseID,
			},
		},
		{
			name: "destination on non-internal",
			input: DocumentInput{
				DocumentType:  enums.DocumentTypeIncoming,
				WarehouseID:   warehouseID,
				ToWarehouseID: &toID,
			},
		},
		{
			name: "non-positive line quantity",
			input: draftInput(enums.DocumentTypeIncoming, warehouseID,
				LineInput{ProductID: productID, Quantity: 0}),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.CreateDraft(context.Background(), tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestUpdateDraftRejectsNonDraft(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeIncoming, warehouseID,
		LineInput{ProductID: productID, Quantity: 2},
	))
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)

	_, err = env.svc.UpdateDraft(ctx, document.ID, draftInput(
		enums.DocumentTypeIncoming, warehouseID,
		LineInput{ProductID: productID, Quantity: 9},
	))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestUpdateDraftReplacesLines(t *testing.T) {
	env := newDocsTestEnv(t)
	first := env.seedProduct(t, 0)
	second := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeIncoming, warehouseID,
		LineInput{ProductID: first, Quantity: 2},
	))
	require.NoError(t, err)

	updated, err := env.svc.UpdateDraft(ctx, document.ID, draftInput(
		enums.DocumentTypeIncoming, warehouseID,
		LineInput{ProductID: second, Quantity: 7},
	))
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, second, updated.Lines[0].ProductID)
	assert.Equal(t, 7, updated.Lines[0].Quantity)
}

func TestConfirmIncomingAppliesLedger(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeIncoming, warehouseID,
		LineInput{ProductID: productID, Quantity: 5},
	))
	require.NoError(t, err)

	confirmed, err := env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.DocumentStatusIssued, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	record := env.record(t, productID, warehouseID)
	assert.Equal(t, 5, record.QuantityAvailable)

	movements := env.movements(t, document.ID)
	require.Len(t, movements, 1)
	assert.Equal(t, enums.MovementTypeIntake, movements[0].MovementType)
	assert.Equal(t, document.Code, movements[0].ReferenceDoc)

	assert.Equal(t, 1, env.publisher.countByType(enums.EventDocumentConfirmed))
	assert.Equal(t, 1, env.publisher.countByType(enums.EventStockMovementCreated))
}

func TestConfirmWithoutLinesFails(t *testing.T) {
	env := newDocsTestEnv(t)
	warehouseID := uuid.New()
	ctx := context.Background()

	document, err := env.svc.CreateDraft(ctx, draftInput(enums.DocumentTypeIncoming, warehouseID))
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestConfirmTwiceFailsWithoutExtraMovements(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeIncoming, warehouseID,
		LineInput{ProductID: productID, Quantity: 5},
	))
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	assert.Len(t, env.movements(t, document.ID), 1)
	record := env.record(t, productID, warehouseID)
	assert.Equal(t, 5, record.QuantityAvailable)
}

func TestConfirmOutgoingInsufficientStock(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	env.seedStock(t, productID, warehouseID, 3)

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeOutgoing, warehouseID,
		LineInput{ProductID: productID, Quantity: 5},
	))
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())

	// the failed confirm must leave no trace
	reloaded, err := env.svc.Get(ctx, document.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DocumentStatusDraft, reloaded.Status)
	assert.Empty(t, env.movements(t, document.ID))
	record := env.record(t, productID, warehouseID)
	assert.Equal(t, 3, record.QuantityAvailable)
}

func TestConfirmCancelRestoresLedger(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	env.seedStock(t, productID, warehouseID, 10)

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeOutgoing, warehouseID,
		LineInput{ProductID: productID, Quantity: 6},
	))
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 4, env.record(t, productID, warehouseID).QuantityAvailable)

	cancelled, err := env.svc.Cancel(ctx, document.ID, "ordered by mistake", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.DocumentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	record := env.record(t, productID, warehouseID)
	assert.Equal(t, 10, record.QuantityAvailable)

	movements := env.movements(t, document.ID)
	require.Len(t, movements, 1)
	assert.True(t, movements[0].Reversed)
	require.NotNil(t, movements[0].ReversalReason)
	assert.Equal(t, "ordered by mistake", *movements[0].ReversalReason)

	assert.Equal(t, 1, env.publisher.countByType(enums.EventDocumentCancelled))
	assert.Equal(t, 1, env.publisher.countByType(enums.EventStockMovementReversed))
}

func TestCancelRequiresReason(t *testing.T) {
	env := newDocsTestEnv(t)

	_, err := env.svc.Cancel(context.Background(), uuid.New(), "", uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCancelDraftAndCancelledFail(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeIncoming, warehouseID,
		LineInput{ProductID: productID, Quantity: 2},
	))
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, document.ID, "too soon", uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)
	_, err = env.svc.Cancel(ctx, document.ID, "first", uuid.New())
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, document.ID, "second", uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Equal(t, 1, env.publisher.countByType(enums.EventStockMovementReversed))
}

func TestCancelAfterDeliveryFails(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	env.seedStock(t, productID, warehouseID, 10)

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeOutgoing, warehouseID,
		LineInput{ProductID: productID, Quantity: 4},
	))
	require.NoError(t, err)

	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)
	_, err = env.svc.Deliver(ctx, document.ID, uuid.New())
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, document.ID, "changed mind", uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestInternalTransferConservation(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	fromID := uuid.New()
	toID := uuid.New()
	ctx := context.Background()

	env.seedStock(t, productID, fromID, 8)

	input := draftInput(enums.DocumentTypeInternal, fromID,
		LineInput{ProductID: productID, Quantity: 3})
	input.ToWarehouseID = &toID

	document, err := env.svc.CreateDraft(ctx, input)
	require.NoError(t, err)
	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)

	from := env.record(t, productID, fromID)
	to := env.record(t, productID, toID)
	assert.Equal(t, 5, from.QuantityAvailable)
	assert.Equal(t, 3, to.QuantityAvailable)
	assert.Equal(t, 8, from.QuantityAvailable+to.QuantityAvailable)

	movements := env.movements(t, document.ID)
	require.Len(t, movements, 2)
	for _, movement := range movements {
		assert.Equal(t, enums.MovementTypeTransfer, movement.MovementType)
	}
}

func TestLedgerMovementConsistency(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	env.seedStock(t, productID, warehouseID, 20)
	before := env.record(t, productID, warehouseID).QuantityAvailable

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeOutgoing, warehouseID,
		LineInput{ProductID: productID, Quantity: 4},
		LineInput{ProductID: productID, Quantity: 3},
	))
	require.NoError(t, err)
	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)

	signed := 0
	for _, movement := range env.movements(t, document.ID) {
		deltas, err := movementEffect(movement, enums.DocumentTypeOutgoing)
		require.NoError(t, err)
		for _, delta := range deltas {
			signed += delta.Amount
		}
	}

	after := env.record(t, productID, warehouseID).QuantityAvailable
	assert.Equal(t, signed, after-before)
}

func TestLowStockAlertLifecycle(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 5)
	warehouseID := uuid.New()
	ctx := context.Background()

	env.seedStock(t, productID, warehouseID, 10)
	require.NoError(t, env.db.Exec(
		`UPDATE inventory_records SET low_stock_threshold = 5 WHERE product_id = ?`, productID).Error)

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeOutgoing, warehouseID,
		LineInput{ProductID: productID, Quantity: 6},
	))
	require.NoError(t, err)
	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)

	record := env.record(t, productID, warehouseID)
	assert.Equal(t, 4, record.QuantityAvailable)
	assert.True(t, record.IsLowStock())
	assert.Equal(t, 1, env.publisher.countByType(enums.EventInventoryLowStock))

	_, err = env.svc.Cancel(ctx, document.ID, "restock", uuid.New())
	require.NoError(t, err)

	record = env.record(t, productID, warehouseID)
	assert.Equal(t, 10, record.QuantityAvailable)
	assert.False(t, record.IsLowStock())
	assert.Equal(t, 1, env.publisher.countByType(enums.EventInventoryRecovered))
}

func TestMarkInTransitThenDeliver(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	env.seedStock(t, productID, warehouseID, 10)

	document, err := env.svc.CreateDraft(ctx, draftInput(
		enums.DocumentTypeOutgoing, warehouseID,
		LineInput{ProductID: productID, Quantity: 2},
	))
	require.NoError(t, err)

	_, err = env.svc.MarkInTransit(ctx, document.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)

	inTransit, err := env.svc.MarkInTransit(ctx, document.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.DocumentStatusInTransit, inTransit.Status)

	delivered, err := env.svc.Deliver(ctx, document.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, enums.DocumentStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	assert.Equal(t, 1, env.publisher.countByType(enums.EventDocumentDelivered))
}

func TestDeliveryProjectionAccumulates(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	siteID := uuid.New()
	ctx := context.Background()

	env.seedStock(t, productID, warehouseID, 20)

	shipToSite := func(qty int) {
		input := draftInput(enums.DocumentTypeOutgoing, warehouseID,
			LineInput{ProductID: productID, Quantity: qty})
		input.SiteID = &siteID

		document, err := env.svc.CreateDraft(ctx, input)
		require.NoError(t, err)
		_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
		require.NoError(t, err)
		_, err = env.svc.Deliver(ctx, document.ID, uuid.New())
		require.NoError(t, err)
	}

	shipToSite(4)
	shipToSite(3)

	records, err := env.projector.ListBySite(ctx, siteID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 7, records[0].DeliveredQty)
	assert.Equal(t, 2, env.publisher.countByType(enums.EventSiteMaterialUpdated))
}

func TestDeliverIncomingSkipsProjection(t *testing.T) {
	env := newDocsTestEnv(t)
	productID := env.seedProduct(t, 0)
	warehouseID := uuid.New()
	siteID := uuid.New()
	ctx := context.Background()

	input := draftInput(enums.DocumentTypeIncoming, warehouseID,
		LineInput{ProductID: productID, Quantity: 4})
	input.SiteID = &siteID

	document, err := env.svc.CreateDraft(ctx, input)
	require.NoError(t, err)
	_, err = env.svc.Confirm(ctx, document.ID, uuid.New())
	require.NoError(t, err)
	_, err = env.svc.Deliver(ctx, document.ID, uuid.New())
	require.NoError(t, err)

	records, err := env.projector.ListBySite(ctx, siteID, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
