package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog entry movements and document lines point at.
type Product struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string    `gorm:"column:code;not null;uniqueIndex"`
	Name              string    `gorm:"column:name;not null"`
	Unit              string    `gorm:"column:unit;not null;default:'pcs'"`
	LowStockThreshold int       `gorm:"column:low_stock_threshold;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
