package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/edilsuite/gestionale-backend/api/middleware"
	"github.com/edilsuite/gestionale-backend/api/responses"
	"github.com/edilsuite/gestionale-backend/api/validators"
	"github.com/edilsuite/gestionale-backend/internal/inventory"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
	"github.com/edilsuite/gestionale-backend/pkg/logger"
)

type manualMovementPayload struct {
	MovementType string  `json:"movement_type" validate:"required"`
	ProductID    string  `json:"product_id" validate:"required"`
	WarehouseID  string  `json:"warehouse_id" validate:"required"`
	SiteID       *string `json:"site_id,omitempty"`
	Quantity     int     `json:"quantity" validate:"required"`
	Bucket       *string `json:"bucket,omitempty"`
	UnitCost     *string `json:"unit_cost,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type reservationPayload struct {
	ProductID   string `json:"product_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

type thresholdPayload struct {
	Threshold int `json:"threshold"`
}

// InventoryRecordGet returns the ledger record for one product at one warehouse.
func InventoryRecordGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		warehouseID, err := uuidURLParam(r, "warehouseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuidURLParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record, err := svc.GetRecord(ctx, productID, warehouseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// InventoryByWarehouse lists ledger records for a warehouse.
func InventoryByWarehouse(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		warehouseID, err := uuidURLParam(r, "warehouseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := limitQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		records, err := svc.ListByWarehouse(ctx, warehouseID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// InventoryLowStock lists records at or below their alert threshold.
func InventoryLowStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		limit, err := limitQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		records, err := svc.ListLowStock(ctx, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// InventoryAdjust records a manual stock movement with no owning document.
func InventoryAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload manualMovementPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := toManualMovementInput(payload, middleware.ActorIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		movement, err := svc.RecordManualMovement(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

// InventoryReserve moves free stock into the reserved bucket.
func InventoryReserve(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return reservationHandler(svc, logg, true)
}

// InventoryRelease gives reserved stock back to the free pool.
func InventoryRelease(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return reservationHandler(svc, logg, false)
}

func reservationHandler(svc inventory.Service, logg *logger.Logger, reserve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload reservationPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		productID, err := parseRequiredUUID(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		warehouseID, err := parseRequiredUUID(payload.WarehouseID, "warehouse_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := inventory.ReservationInput{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Quantity:    payload.Quantity,
			ActorID:     middleware.ActorIDFromContext(ctx),
		}
		if reserve {
			err = svc.Reserve(ctx, input)
		} else {
			err = svc.Release(ctx, input)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"applied": true})
	}
}

// InventoryThresholdSet updates the low stock alert threshold for a record.
func InventoryThresholdSet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		warehouseID, err := uuidURLParam(r, "warehouseId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuidURLParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload thresholdPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.SetThreshold(ctx, productID, warehouseID, payload.Threshold); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}

func toManualMovementInput(payload manualMovementPayload, actorID uuid.UUID) (inventory.ManualMovementInput, error) {
	movementType, err := enums.ParseMovementType(payload.MovementType)
	if err != nil {
		return inventory.ManualMovementInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement_type")
	}

	productID, err := parseRequiredUUID(payload.ProductID, "product_id")
	if err != nil {
		return inventory.ManualMovementInput{}, err
	}
	warehouseID, err := parseRequiredUUID(payload.WarehouseID, "warehouse_id")
	if err != nil {
		return inventory.ManualMovementInput{}, err
	}
	siteID, err := parseOptionalUUID(payload.SiteID, "site_id")
	if err != nil {
		return inventory.ManualMovementInput{}, err
	}
	unitCost, err := parseOptionalDecimal(payload.UnitCost, "unit_cost")
	if err != nil {
		return inventory.ManualMovementInput{}, err
	}

	var bucket enums.Bucket
	if payload.Bucket != nil && strings.TrimSpace(*payload.Bucket) != "" {
		bucket, err = enums.ParseBucket(*payload.Bucket)
		if err != nil {
			return inventory.ManualMovementInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bucket")
		}
	}

	return inventory.ManualMovementInput{
		MovementType: movementType,
		ProductID:    productID,
		WarehouseID:  warehouseID,
		SiteID:       siteID,
		Quantity:     payload.Quantity,
		Bucket:       bucket,
		UnitCost:     unitCost,
		Notes:        payload.Notes,
		ActorID:      actorID,
	}, nil
}
