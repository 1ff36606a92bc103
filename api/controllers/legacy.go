package controllers

import (
	"net/http"
	"time"

	"github.com/dmarcana/marketplace-analytics-backend/api/responses"
	"github.com/dmarcana/marketplace-analytics-backend/internal/records"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/db/models"
	pkgerrors "github.com/dmarcana/marketplace-analytics-backend/pkg/errors"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/pagination"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/types"
	"gorm.io/datatypes"
)

// The legacy endpoints serve full outcome records, not just the observation,
// matching what the pre-marketplace dashboard consumed.

type legacyResponse struct {
	ID             string         `json:"id"`
	URL            string         `json:"url"`
	Method         string         `json:"method"`
	RequestPayload datatypes.JSON `json:"requestPayload,omitempty"`
	StatusCode     int            `json:"statusCode"`
	ResponseData   datatypes.JSON `json:"responseData,omitempty"`
	ResponseTime   int64          `json:"responseTime"`
	Timestamp      time.Time      `json:"timestamp"`
	Error          *string        `json:"error,omitempty"`
}

func toLegacyResponse(record models.Response) legacyResponse {
	return legacyResponse{
		ID:             record.ID.String(),
		URL:            record.URL,
		Method:         record.Method,
		RequestPayload: record.RequestPayload,
		StatusCode:     record.StatusCode,
		ResponseData:   record.ResponseData,
		ResponseTime:   record.ResponseTime,
		Timestamp:      record.Timestamp,
		Error:          record.Error,
	}
}

func ListLegacyResponses(repo records.GenericRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit := pagination.ParseLimit(r.URL.Query().Get("limit"))
		offset := pagination.ParseOffset(r.URL.Query().Get("offset"))

		page, err := repo.FindAll(ctx, limit, offset)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list legacy responses"))
			return
		}

		data := make([]legacyResponse, 0, len(page))
		for _, record := range page {
			data = append(data, toLegacyResponse(record))
		}

		responses.WriteSuccessPage(w, data, types.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(page),
		})
	}
}

func GetLegacyLatestResponse(repo records.GenericRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		latest, err := repo.FindLatest(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest legacy response"))
			return
		}
		if latest == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, toLegacyResponse(*latest))
	}
}

func GetLegacyResponseStats(repo records.GenericRepository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats, err := repo.GetStats(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute legacy stats"))
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
