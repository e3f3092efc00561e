package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/edilsuite/gestionale-backend/internal/repo"
	"github.com/edilsuite/gestionale-backend/pkg/db/models"
	"github.com/edilsuite/gestionale-backend/pkg/enums"
	"github.com/edilsuite/gestionale-backend/pkg/pagination"
)

type repository struct {
	repo.Base
}

// NewRepository builds a documents repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) Insert(ctx context.Context, document *models.Document) (*models.Document, error) {
	lines := document.Lines
	document.Lines = nil
	if err := r.DB(ctx).Create(document).Error; err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].DocumentID = document.ID
	}
	if len(lines) > 0 {
		if err := r.DB(ctx).Create(&lines).Error; err != nil {
			return nil, err
		}
	}
	document.Lines = lines
	return document, nil
}

func (r *repository) UpdateDraft(ctx context.Context, document *models.Document) error {
	return r.DB(ctx).
		Model(&models.Document{}).
		Where("id = ? AND status = ?", document.ID, enums.DocumentStatusDraft).
		Updates(map[string]any{
			"document_type":   document.DocumentType,
			"warehouse_id":    document.WarehouseID,
			"to_warehouse_id": document.ToWarehouseID,
			"site_id":         document.SiteID,
			"supplier_id":     document.SupplierID,
			"counterparty":    document.Counterparty,
			"return_reason":   document.ReturnReason,
			"carrier":         document.Carrier,
			"notes":           document.Notes,
			"issue_date":      document.IssueDate,
		}).Error
}

func (r *repository) ReplaceLines(ctx context.Context, documentID uuid.UUID, lines []models.DocumentLine) error {
	if err := r.DB(ctx).
		Where("document_id = ?", documentID).
		Delete(&models.DocumentLine{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].DocumentID = documentID
	}
	return r.DB(ctx).Create(&lines).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var document models.Document
	err := r.DB(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&document).Error
	if err != nil {
		return nil, err
	}
	return &document, nil
}

func (r *repository) List(ctx context.Context, filters Filters, params pagination.Params) ([]models.Document, error) {
	query := r.DB(ctx).Model(&models.Document{})
	if filters.DocumentType != nil {
		query = query.Where("document_type = ?", *filters.DocumentType)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filters.WarehouseID)
	}
	if filters.SiteID != nil {
		query = query.Where("site_id = ?", *filters.SiteID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var docs []models.Document
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.NormalizeLimit(params.Limit)).
		Find(&docs).Error
	return docs, err
}

// TransitionStatus flips the status only when the row still holds the
// expected source status. A zero row count means another writer won the
// race and the caller must treat the transition as lost.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.DocumentStatus, stamps StatusStamps) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if stamps.ConfirmedAt != nil {
		updates["confirmed_at"] = *stamps.ConfirmedAt
	}
	if stamps.DeliveredAt != nil {
		updates["delivered_at"] = *stamps.DeliveredAt
	}
	if stamps.CancelledAt != nil {
		updates["cancelled_at"] = *stamps.CancelledAt
	}

	res := r.DB(ctx).
		Model(&models.Document{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// NextDocumentCode issues the next DDT-<year>-<seq> code. Runs inside the
// caller's transaction; the unique index on code backstops races.
func (r *repository) NextDocumentCode(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("DDT-%d-", time.Now().UTC().Year())
	var count int64
	err := r.DB(ctx).
		Model(&models.Document{}).
		Where("code LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}
