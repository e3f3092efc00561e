package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/pkg/enums"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
	"github.com/edilsuite/gestionale-backend/pkg/pagination"
)

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

func (c *capturingOutbox) eventTypes() []enums.OutboxEventType {
	types := make([]enums.OutboxEventType, 0, len(c.events))
	for _, event := range c.events {
		types = append(types, event.EventType)
	}
	return types
}

type capturingSiteProjector struct {
	siteID    uuid.UUID
	productID uuid.UUID
	delivered int
	returned  int
	calls     int
}

func (c *capturingSiteProjector) ApplyManualMovement(ctx context.Context, tx *gorm.DB, siteID, productID uuid.UUID, deliveredDelta, returnedDelta int) error {
	c.siteID = siteID
	c.productID = productID
	c.delivered += deliveredDelta
	c.returned += returnedDelta
	c.calls++
	return nil
}

func newTestService(t *testing.T, db *gorm.DB) (Service, *capturingOutbox, *capturingSiteProjector) {
	t.Helper()

	publisher := &capturingOutbox{}
	sites := &capturingSiteProjector{}
	ledger := NewLedger()
	svc, err := NewService(
		NewRepository(db),
		ledger,
		NewMonitor(ledger, publisher),
		&gormTxRunner{db: db},
		publisher,
		sites,
	)
	require.NoError(t, err)
	return svc, publisher, sites
}

func TestRecordManualMovementAdjustment(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, publisher, _ := newTestService(t, db)
	productID := seedProduct(t, db, 0)
	warehouseID := uuid.New()
	actorID := uuid.New()

	movement, err := svc.RecordManualMovement(context.Background(), ManualMovementInput{
		MovementType: enums.MovementTypeAdjustment,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     12,
		ActorID:      actorID,
	})
	require.NoError(t, err)
	require.NotNil(t, movement)
	assert.Equal(t, enums.MovementTypeAdjustment, movement.MovementType)
	assert.Equal(t, 12, movement.Quantity)
	require.NotNil(t, movement.PerformedBy)
	assert.Equal(t, actorID, *movement.PerformedBy)
	assert.Contains(t, movement.Code, "MOV-")

	record, err := svc.GetRecord(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 12, record.QuantityAvailable)

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventStockMovementCreated,
		enums.EventInventoryAdjusted,
	}, publisher.eventTypes())
}

func TestRecordManualMovementNegativeAdjustmentCanUndershoot(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, _, _ := newTestService(t, db)
	productID := seedProduct(t, db, 0)
	warehouseID := uuid.New()

	_, err := svc.RecordManualMovement(context.Background(), ManualMovementInput{
		MovementType: enums.MovementTypeAdjustment,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     -4,
	})
	require.NoError(t, err)

	record, err := svc.GetRecord(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, -4, record.QuantityAvailable)
}

func TestRecordManualMovementAdjustmentTargetsQuarantine(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, _, _ := newTestService(t, db)
	productID := seedProduct(t, db, 0)
	warehouseID := uuid.New()

	_, err := svc.RecordManualMovement(context.Background(), ManualMovementInput{
		MovementType: enums.MovementTypeAdjustment,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     5,
		Bucket:       enums.BucketQuarantine,
	})
	require.NoError(t, err)

	record, err := svc.GetRecord(context.Background(), productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 0, record.QuantityAvailable)
	assert.Equal(t, 5, record.QuantityQuarantine)
}

func TestRecordManualMovementWasteDecrements(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, _, _ := newTestService(t, db)
	productID := seedProduct(t, db, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	_, err := svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeAdjustment,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     10,
	})
	require.NoError(t, err)

	movement, err := svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeWaste,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     3,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, movement.Quantity)

	record, err := svc.GetRecord(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 7, record.QuantityAvailable)
}

func TestRecordManualMovementSiteAllocationUpdatesProjector(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, _, sites := newTestService(t, db)
	productID := seedProduct(t, db, 0)
	warehouseID := uuid.New()
	siteID := uuid.New()
	ctx := context.Background()

	_, err := svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeAdjustment,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     20,
	})
	require.NoError(t, err)

	_, err = svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeSiteAllocation,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		SiteID:       &siteID,
		Quantity:     8,
	})
	require.NoError(t, err)

	_, err = svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeSiteReturn,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		SiteID:       &siteID,
		Quantity:     2,
	})
	require.NoError(t, err)

	record, err := svc.GetRecord(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 14, record.QuantityAvailable)

	assert.Equal(t, 2, sites.calls)
	assert.Equal(t, siteID, sites.siteID)
	assert.Equal(t, productID, sites.productID)
	assert.Equal(t, 8, sites.delivered)
	assert.Equal(t, 2, sites.returned)
}

func TestRecordManualMovementValidation(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, _, _ := newTestService(t, db)
	productID := seedProduct(t, db, 0)
	warehouseID := uuid.New()

	cases := []struct {
		name  string
		input ManualMovementInput
	}{
		{
			name: "missing product",
			input: ManualMovementInput{
				MovementType: enums.MovementTypeAdjustment,
				WarehouseID:  warehouseID,
				Quantity:     1,
			},
		},
		{
			name: "zero adjustment",
			input: ManualMovementInput{
				MovementType: enums.MovementTypeAdjustment,
				ProductID:    productID,
				WarehouseID:  warehouseID,
				Quantity:     0,
			},
		},
		{
			name: "negative waste",
			input: ManualMovementInput{
				MovementType: enums.MovementTypeWaste,
				ProductID:    productID,
				WarehouseID:  warehouseID,
				Quantity:     -2,
			},
		},
		{
			name: "site allocation without site",
			input: ManualMovementInput{
				MovementType: enums.MovementTypeSiteAllocation,
				ProductID:    productID,
				WarehouseID:  warehouseID,
				Quantity:     2,
			},
		},
		{
			name: "document movement type",
			input: ManualMovementInput{
				MovementType: enums.MovementTypeIntake,
				ProductID:    productID,
				WarehouseID:  warehouseID,
				Quantity:     2,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordManualMovement(context.Background(), tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestRecordManualMovementEmitsLowStockAlert(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, publisher, _ := newTestService(t, db)
	productID := seedProduct(t, db, 5)
	warehouseID := uuid.New()
	ctx := context.Background()

	_, err := svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeAdjustment,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     10,
	})
	require.NoError(t, err)
	assert.NotContains(t, publisher.eventTypes(), enums.EventInventoryLowStock)

	_, err = svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeWaste,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     6,
	})
	require.NoError(t, err)
	assert.Contains(t, publisher.eventTypes(), enums.EventInventoryLowStock)

	publisher.events = nil
	_, err = svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeAdjustment,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     10,
	})
	require.NoError(t, err)
	assert.Contains(t, publisher.eventTypes(), enums.EventInventoryRecovered)
}

func TestServiceReserveAndRelease(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, _, _ := newTestService(t, db)
	productID := seedProduct(t, db, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	_, err := svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeAdjustment,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		Quantity:     10,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reserve(ctx, ReservationInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    6,
	}))

	err = svc.Reserve(ctx, ReservationInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    5,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())

	require.NoError(t, svc.Release(ctx, ReservationInput{
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    6,
	}))

	record, err := svc.GetRecord(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 10, record.QuantityAvailable)
	assert.Equal(t, 0, record.QuantityReserved)
}

func TestServiceSetThresholdCreatesRecord(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, _, _ := newTestService(t, db)
	productID := seedProduct(t, db, 0)
	warehouseID := uuid.New()
	ctx := context.Background()

	require.NoError(t, svc.SetThreshold(ctx, productID, warehouseID, 15))

	record, err := svc.GetRecord(ctx, productID, warehouseID)
	require.NoError(t, err)
	assert.Equal(t, 15, record.LowStockThreshold)

	err = svc.SetThreshold(ctx, productID, warehouseID, -1)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceListLowStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, _, _ := newTestService(t, db)
	warehouseID := uuid.New()
	ctx := context.Background()

	lowProduct := seedProduct(t, db, 10)
	okProduct := seedProduct(t, db, 10)

	_, err := svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeAdjustment,
		ProductID:    lowProduct,
		WarehouseID:  warehouseID,
		Quantity:     4,
	})
	require.NoError(t, err)

	_, err = svc.RecordManualMovement(ctx, ManualMovementInput{
		MovementType: enums.MovementTypeAdjustment,
		ProductID:    okProduct,
		WarehouseID:  warehouseID,
		Quantity:     40,
	})
	require.NoError(t, err)

	records, err := svc.ListLowStock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, lowProduct, records[0].ProductID)
}

func TestServiceListMovementsFilters(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc, _, _ := newTestService(t, db)
	warehouseID := uuid.New()
	otherWarehouseID := uuid.New()
	productID := seedProduct(t, db, 0)
	ctx := context.Background()

	for _, wh := range []uuid.UUID{warehouseID, warehouseID, otherWarehouseID} {
		_, err := svc.RecordManualMovement(ctx, ManualMovementInput{
			MovementType: enums.MovementTypeAdjustment,
			ProductID:    productID,
			WarehouseID:  wh,
			Quantity:     1,
		})
		require.NoError(t, err)
	}

	movements, err := svc.ListMovements(ctx, MovementFilters{WarehouseID: &warehouseID}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, movements, 2)

	movements, err = svc.ListMovements(ctx, MovementFilters{}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, movements, 3)
}
