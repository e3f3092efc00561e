package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edilsuite/gestionale-backend/api/middleware"
	"github.com/edilsuite/gestionale-backend/api/responses"
	"github.com/edilsuite/gestionale-backend/api/validators"
	"github.com/edilsuite/gestionale-backend/internal/documents"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
	"github.com/edilsuite/gestionale-backend/pkg/logger"
	"github.com/edilsuite/gestionale-backend/pkg/pagination"
)

type documentLinePayload struct {
	ProductID string  `json:"product_id" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required"`
	UnitCost  *string `json:"unit_cost,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type documentPayload struct {
	DocumentType  string                `json:"document_type" validate:"required"`
	WarehouseID   string                `json:"warehouse_id" validate:"required"`
	ToWarehouseID *string               `json:"to_warehouse_id,omitempty"`
	SiteID        *string               `json:"site_id,omitempty"`
	SupplierID    *string               `json:"supplier_id,omitempty"`
	Counterparty  *string               `json:"counterparty,omitempty"`
	ReturnReason  *string               `json:"return_reason,omitempty"`
	Carrier       *string               `json:"carrier,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	IssueDate     string                `json:"issue_date" validate:"required"`
	Lines         []documentLinePayload `json:"lines" validate:"dive"`
}

type cancelDocumentPayload struct {
	Reason string `json:"reason" validate:"required"`
}

// DocumentCreate registers a new draft transport document.
func DocumentCreate(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		var payload documentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := toDocumentInput(payload, middleware.ActorIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		document, err := svc.CreateDraft(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, document)
	}
}

// DocumentUpdate rewrites a draft's header and lines.
func DocumentUpdate(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		id, err := uuidURLParam(r, "documentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload documentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input, err := toDocumentInput(payload, middleware.ActorIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		document, err := svc.UpdateDraft(ctx, id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, document)
	}
}

// DocumentGet returns one document with its lines.
func DocumentGet(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		id, err := uuidURLParam(r, "documentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		document, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, document)
	}
}

// DocumentList returns a filtered, cursor paginated document page.
func DocumentList(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		filters, err := documentFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		limit, err := limitQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.List(ctx, filters, pagination.Params{
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

// DocumentConfirm issues a draft and applies its stock movements.
func DocumentConfirm(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return documentTransition(svc, logg, svcConfirm)
}

// DocumentMarkInTransit moves an issued document to in transit.
func DocumentMarkInTransit(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return documentTransition(svc, logg, svcMarkInTransit)
}

// DocumentDeliver marks an issued or in transit document as delivered.
func DocumentDeliver(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return documentTransition(svc, logg, svcDeliver)
}

// DocumentCancel cancels a confirmed document and reverses its movements.
func DocumentCancel(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		id, err := uuidURLParam(r, "documentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cancelDocumentPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		document, err := svc.Cancel(ctx, id, payload.Reason, middleware.ActorIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, document)
	}
}

type transitionKind int

const (
	svcConfirm transitionKind = iota
	svcMarkInTransit
	svcDeliver
)

func documentTransition(svc documents.Service, logg *logger.Logger, kind transitionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}

		id, err := uuidURLParam(r, "documentId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		actorID := middleware.ActorIDFromContext(ctx)
		var document any
		switch kind {
		case svcConfirm:
			document, err = svc.Confirm(ctx, id, actorID)
		case svcMarkInTransit:
			document, err = svc.MarkInTransit(ctx, id, actorID)
		case svcDeliver:
			document, err = svc.Deliver(ctx, id, actorID)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, document)
	}
}

func toDocumentInput(payload documentPayload, actorID uuid.UUID) (documents.DocumentInput, error) {
	docType, err := enums.ParseDocumentType(payload.DocumentType)
	if err != nil {
		return documents.DocumentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document_type")
	}

	warehouseID, err := parseRequiredUUID(payload.WarehouseID, "warehouse_id")
	if err != nil {
		return documents.DocumentInput{}, err
	}
	toWarehouseID, err := parseOptionalUUID(payload.ToWarehouseID, "to_warehouse_id")
	if err != nil {
		return documents.DocumentInput{}, err
	}
	siteID, err := parseOptionalUUID(payload.SiteID, "site_id")
	if err != nil {
		return documents.DocumentInput{}, err
	}
	supplierID, err := parseOptionalUUID(payload.SupplierID, "supplier_id")
	if err != nil {
		return documents.DocumentInput{}, err
	}

	issueDate, err := parseIssueDate(payload.IssueDate)
	if err != nil {
		return documents.DocumentInput{}, err
	}

	var returnReason *enums.ReturnReason
	if payload.ReturnReason != nil && strings.TrimSpace(*payload.ReturnReason) != "" {
		reason, err := enums.ParseReturnReason(*payload.ReturnReason)
		if err != nil {
			return documents.DocumentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return_reason")
		}
		returnReason = &reason
	}

	lines := make([]documents.LineInput, 0, len(payload.Lines))
	for _, line := range payload.Lines {
		productID, err := parseRequiredUUID(line.ProductID, "product_id")
		if err != nil {
			return documents.DocumentInput{}, err
		}
		unitCost, err := parseOptionalDecimal(line.UnitCost, "unit_cost")
		if err != nil {
			return documents.DocumentInput{}, err
		}
		lines = append(lines, documents.LineInput{
			ProductID: productID,
			Quantity:  line.Quantity,
			UnitCost:  unitCost,
			Notes:     line.Notes,
		})
	}

	return documents.DocumentInput{
		DocumentType:  docType,
		WarehouseID:   warehouseID,
		ToWarehouseID: toWarehouseID,
		SiteID:        siteID,
		SupplierID:    supplierID,
		Counterparty:  payload.Counterparty,
		ReturnReason:  returnReason,
		Carrier:       payload.Carrier,
		Notes:         payload.Notes,
		IssueDate:     issueDate,
		ActorID:       actorID,
		Lines:         lines,
	}, nil
}

func parseIssueDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if value, err := time.Parse("2006-01-02", trimmed); err == nil {
		return value, nil
	}
	value, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid issue_date")
	}
	return value, nil
}

func documentFiltersFromQuery(r *http.Request) (documents.Filters, error) {
	var filters documents.Filters

	if raw := strings.TrimSpace(r.URL.Query().Get("document_type")); raw != "" {
		docType, err := enums.ParseDocumentType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document_type")
		}
		filters.DocumentType = &docType
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseDocumentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &status
	}

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

	return filters, nil
}
