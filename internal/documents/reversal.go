package documents

import (
	"context"

	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	pkgerrors "github.com/edilsuite/gestionale-backend/pkg/errors"
	"github.com/edilsuite/gestionale-backend/pkg/outbox"
)

// reverseMovements applies the exact inverse of every not-yet-reversed
// movement the document owns. Original rows are never deleted or rewritten
// beyond the reversal annotation; the guarded marker update makes a second
// pass over the same movement a no-op, so reversal is idempotent even when
// two cancels race past the status check.
func (s *service) reverseMovements(ctx context.Context, tx *gorm.DB, document *models.Document, reason string, actor *outbox.ActorRef) (int, error) {
	inv := s.inventory.WithTx(tx)

	movements, err := inv.FindMovementsByDocument(ctx, document.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document movements")
	}

	reversedCount := 0
	for _, movement := range movements {
		if movement.Reversed {
			continue
		}

		marked, err := inv.MarkMovementReversed(ctx, movement.ID, reason)
		if err != nil {
			return reversedCount, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark movement reversed")
		}
		if !marked {
			continue
		}

		deltas, err := movementEffect(movement, document.DocumentType)
		if err != nil {
			return reversedCount, err
		}
		for _, delta := range deltas {
			inverse := -delta.Amount
			if err := s.ledger.ApplyDelta(ctx, tx, movement.ProductID, delta.WarehouseID, delta.Bucket, inverse); err != nil {
				return reversedCount, err
			}
			if delta.Bucket == enums.BucketAvailable {
				if err := s.monitor.OnMovementApplied(ctx, tx, movement, delta.WarehouseID, inverse); err != nil {
					return reversedCount, err
				}
			}
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockMovementReversed,
			AggregateType: enums.AggregateStockMovement,
			AggregateID:   movement.ID,
			Version:       1,
			Actor:         actor,
			Data: map[string]any{
				"movement_id": movement.ID.String(),
				"code":        movement.Code,
				"document_id": document.ID.String(),
				"reason":      reason,
			},
		}); err != nil {
			return reversedCount, err
		}
		reversedCount++
	}

	return reversedCount, nil
}
