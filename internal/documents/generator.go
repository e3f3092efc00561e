package documents

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
)

// bucketDelta is one signed change to one bucket of one (product, warehouse)
// pair. Movement generation and reversal both speak in these.
type bucketDelta struct {
	WarehouseID uuid.UUID
	Bucket      enums.Bucket
	Amount      int
}

// plannedMovement pairs a ledger entry with the bucket effect it causes.
// The movement has no code yet; the service assigns one at insert time.
type plannedMovement struct {
	Movement models.StockMovement
	Deltas   []bucketDelta
}

// planLineMovements dispatches on the document type and returns the ledger
// entries one line produces. The switch is closed: an unknown type is an
// error, never a silent fallthrough.
func planLineMovements(document *models.Document, line models.DocumentLine) ([]plannedMovement, error) {
	switch document.DocumentType {
	case enums.DocumentTypeIncoming:
		return singleMovement(document, line, enums.MovementTypeIntake, document.WarehouseID)
	case enums.DocumentTypeOutgoing:
		return singleMovement(document, line, enums.MovementTypeOutput, document.WarehouseID)
	case enums.DocumentTypeInternal:
		if document.ToWarehouseID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "internal document requires a destination warehouse")
		}
		out := newDocumentMovement(document, line, enums.MovementTypeTransfer, document.WarehouseID)
		in := newDocumentMovement(document, line, enums.MovementTypeTransfer, *document.ToWarehouseID)
		planned := make([]plannedMovement, 0, 2)
		for _, movement := range []models.StockMovement{out, in} {
			deltas, err := movementEffect(movement, document.DocumentType)
			if err != nil {
				return nil, err
			}
			planned = append(planned, plannedMovement{Movement: movement, Deltas: deltas})
		}
		return planned, nil
	case enums.DocumentTypeRentalOut:
		return singleMovement(document, line, enums.MovementTypeRentalOut, document.WarehouseID)
	case enums.DocumentTypeRentalReturn:
		return singleMovement(document, line, enums.MovementTypeRentalReturn, document.WarehouseID)
	case enums.DocumentTypeReturnFromCustomer, enums.DocumentTypeReturnToSupplier:
		return singleMovement(document, line, enums.MovementTypeReturn, document.WarehouseID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("no movement plan for document type %q", document.DocumentType))
	}
}

func singleMovement(document *models.Document, line models.DocumentLine, movementType enums.MovementType, warehouseID uuid.UUID) ([]plannedMovement, error) {
	movement := newDocumentMovement(document, line, movementType, warehouseID)
	deltas, err := movementEffect(movement, document.DocumentType)
	if err != nil {
		return nil, err
	}
	return []plannedMovement{{Movement: movement, Deltas: deltas}}, nil
}

func newDocumentMovement(document *models.Document, line models.DocumentLine, movementType enums.MovementType, warehouseID uuid.UUID) models.StockMovement {
	documentID := document.ID
	movement := models.StockMovement{
		ID:           uuid.New(),
		MovementType: movementType,
		ProductID:    line.ProductID,
		WarehouseID:  warehouseID,
		SiteID:       document.SiteID,
		SupplierID:   document.SupplierID,
		DocumentID:   &documentID,
		Quantity:     line.Quantity,
		UnitCost:     line.UnitCost,
		MovementDate: time.Now().UTC(),
		ReferenceDoc: document.Code,
		Notes:        line.Notes,
	}
	if movementType == enums.MovementTypeTransfer {
		fromID := document.WarehouseID
		movement.FromWarehouseID = &fromID
		movement.ToWarehouseID = document.ToWarehouseID
	}
	if document.ReturnReason != nil && movementType == enums.MovementTypeReturn {
		reason := string(*document.ReturnReason)
		movement.Notes = mergeNotes(line.Notes, "return reason: "+reason)
	}
	return movement
}

// movementEffect computes the signed available-bucket change a document
// generated movement causes. Reversal negates the same deltas, so the two
// paths cannot drift apart. The document type disambiguates return movements
// and nothing else.
func movementEffect(movement models.StockMovement, documentType enums.DocumentType) ([]bucketDelta, error) {
	if movement.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document movement quantity must be positive")
	}

	var amount int
	switch movement.MovementType {
	case enums.MovementTypeIntake, enums.MovementTypeRentalReturn:
		amount = movement.Quantity
	case enums.MovementTypeOutput, enums.MovementTypeRentalOut:
		amount = -movement.Quantity
	case enums.MovementTypeTransfer:
		if movement.FromWarehouseID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer movement missing source warehouse")
		}
		if movement.WarehouseID == *movement.FromWarehouseID {
			amount = -movement.Quantity
		} else {
			amount = movement.Quantity
		}
	case enums.MovementTypeReturn:
		switch documentType {
		case enums.DocumentTypeReturnFromCustomer:
			amount = movement.Quantity
		case enums.DocumentTypeReturnToSupplier:
			amount = -movement.Quantity
		default:
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("return movement on non-return document type %q", documentType))
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("movement type %q is not document generated", movement.MovementType))
	}

	return []bucketDelta{{
		WarehouseID: movement.WarehouseID,
		Bucket:      enums.BucketAvailable,
		Amount:      amount,
	}}, nil
}

func mergeNotes(existing *string, extra string) *string {
	if existing == nil || *existing == "" {
		return &extra
	}
	merged := *existing + "; " + extra
	return &merged
}
