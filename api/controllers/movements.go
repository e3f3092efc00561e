package controllers

import (
	"net/http"
	"strings"

	"github.com/edilsuite/gestionale-backend/api/responses"
	"github.com/edilsuite/gestionale-backend/internal/inventory"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
	"github.com/edilsuite/gestionale-backend/pkg/logger"
	"github.com/edilsuite/gestionale-backend/pkg/pagination"
)

// MovementGet returns one stock movement.
func MovementGet(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		id, err := uuidURLParam(r, "movementId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		movement, err := svc.GetMovement(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, movement)
	}
}

// MovementList returns a filtered, cursor paginated movement page.
func MovementList(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		filters, err := movementFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := limitQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListMovements(ctx, filters, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func movementFiltersFromQuery(r *http.Request) (inventory.MovementFilters, error) {
	var filters inventory.MovementFilters

	productID, err := optionalUUIDQuery(r, "product_id")
	if err != nil {
		return filters, err
	}
	filters.ProductID = productID

	warehouseID, err := optionalUUIDQuery(r, "warehouse_id")
	if err != nil {
		return filters, err
	}
	filters.WarehouseID = warehouseID

	siteID, err := optionalUUIDQuery(r, "site_id")
	if err != nil {
		return filters, err
	}
	filters.SiteID = siteID

	documentID, err := optionalUUIDQuery(r, "document_id")
	if err != nil {
		return filters, err
	}
	filters.DocumentID = documentID

	return filters, nil
}
