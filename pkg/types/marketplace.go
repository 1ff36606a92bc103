package types

import "github.com/dmarcana/marketplace-analytics-backend/pkg/enums"

// MarketplaceData is one synthetic marketplace observation. It is both the
// body of the outbound ping and the payload persisted with each record, so the
// JSON field names are part of the wire contract.
type MarketplaceData struct {
	Timestamp           int64          `json:"timestamp"`
	ActiveDeals         int            `json:"activeDeals"`
	NewDeals            int            `json:"newDeals"`
	AverageDealValueUSD int            `json:"averageDealValueUSD"`
	OffersSubmitted     int            `json:"offersSubmitted"`
	UserViews           int            `json:"userViews"`
	Category            enums.Category `json:"category"`
}

// ResponseStats summarizes the accumulated record population. It is derived on
// demand and never stored.
type ResponseStats struct {
	Total               int64   `json:"total"`
	Successful          int64   `json:"successful"`
	Failed              int64   `json:"failed"`
	SuccessRate         float64 `json:"successRate"`
	AverageResponseTime float64 `json:"averageResponseTime"`
}
