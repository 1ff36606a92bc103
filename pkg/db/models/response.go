package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Response is the legacy generic outcome record kept for older dashboards
// that predate the marketplace-enriched shape. RequestPayload carries the raw
// request body where MarketplaceResponse embeds the typed observation instead.
type Response struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	URL            string         `gorm:"type:text;not null"`
	Method         string         `gorm:"type:text;not null"`
	RequestPayload datatypes.JSON `gorm:"type:jsonb"`
	StatusCode     int            `gorm:"not null"`
	ResponseData   datatypes.JSON `gorm:"type:jsonb"`
	ResponseTime   int64          `gorm:"not null"`
	Timestamp      time.Time      `gorm:"type:timestamptz;not null;index:idx_responses_timestamp,sort:desc"`
	Error          *string        `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"type:timestamptz;default:now()"`
}
