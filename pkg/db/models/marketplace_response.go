package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MarketplaceResponse records one outbound ping attempt enriched with the
// generated marketplace observation. Rows are written once by the ping
// pipeline and never updated or deleted.
type MarketplaceResponse struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	URL             string         `gorm:"type:text;not null"`
	Method          string         `gorm:"type:text;not null"`
	MarketplaceData datatypes.JSON `gorm:"type:jsonb;not null"`
	StatusCode      int            `gorm:"not null"`
	ResponseData    datatypes.JSON `gorm:"type:jsonb"`
	ResponseTime    int64          `gorm:"not null"`
	Timestamp       time.Time      `gorm:"type:timestamptz;not null;index:idx_marketplace_responses_timestamp,sort:desc"`
	Error           *string        `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"type:timestamptz;default:now()"`
}
