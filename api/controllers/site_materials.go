package controllers

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/api/responses"
	"github.com/edilsuite/gestionale-backend/api/validators"
	"github.com/edilsuite/gestionale-backend/internal/sites"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
	"github.com/edilsuite/gestionale-backend/pkg/logger"
)

// txRunner lets the planned quantity write share the transactional helper the
// services use.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type plannedQtyPayload struct {
	PlannedQty int `json:"planned_qty"`
}

// SiteMaterialsList returns the material read model rows for one site.
func SiteMaterialsList(projector *sites.Projector, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if projector == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "site materials unavailable"))
			return
		}

		siteID, err := uuidURLParam(r, "siteId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		limit, err := limitQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		records, err := projector.ListBySite(ctx, siteID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// SiteMaterialPlanSet stores the planned quantity for a product on a site.
func SiteMaterialPlanSet(projector *sites.Projector, tx txRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if projector == nil || tx == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "site materials unavailable"))
			return
		}

		siteID, err := uuidURLParam(r, "siteId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuidURLParam(r, "productId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload plannedQtyPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		err = tx.WithTx(ctx, func(txn *gorm.DB) error {
			return projector.SetPlannedQty(ctx, txn, siteID, productID, payload.PlannedQty)
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"updated": true})
	}
}
