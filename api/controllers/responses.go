// Package controllers holds the HTTP handlers for the query API.
package controllers

import (
	"net/http"

	"github.com/dmarcana/marketplace-analytics-backend/api/responses"
	"github.com/dmarcana/marketplace-analytics-backend/internal/records"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/db/models"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/enums"
	pkgerrors "github.com/dmarcana/marketplace-analytics-backend/pkg/errors"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/pagination"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ListResponses returns the marketplace observation history, newest first.
// Malformed limit/offset values silently fall back to the defaults. An
// optional category query param narrows the list to one marketplace segment;
// unlike pagination, an unknown category is rejected.
func ListResponses(repo records.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		limit := pagination.ParseLimit(r.URL.Query().Get("limit"))
		offset := pagination.ParseOffset(r.URL.Query().Get("offset"))

		var page []models.MarketplaceResponse
		var err error
		if raw := r.URL.Query().Get("category"); raw != "" {
			category, parseErr := enums.ParseCategory(raw)
			if parseErr != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, parseErr.Error()))
				return
			}
			page, err = repo.FindAllByCategory(ctx, category, limit, offset)
		} else {
			page, err = repo.FindAll(ctx, limit, offset)
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list responses"))
			return
		}

		data := make([]datatypes.JSON, 0, len(page))
		for _, record := range page {
			data = append(data, record.MarketplaceData)
		}

		responses.WriteSuccessPage(w, data, types.Pagination{
			Limit:  limit,
			Offset: offset,
			Count:  len(page),
		})
	}
}

// GetResponseStats returns the aggregate outcome statistics.
func GetResponseStats(repo records.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		stats, err := repo.GetStats(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "compute stats"))
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// GetLatestResponse returns the most recent observation, or null before the
// first ping lands.
func GetLatestResponse(repo records.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		latest, err := repo.FindLatest(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest response"))
			return
		}
		if latest == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, latest.MarketplaceData)
	}
}

// GetResponseByID returns one observation by record ID, or null when absent.
func GetResponseByID(repo records.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "responseId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "response id must be a valid UUID"))
			return
		}

		record, err := repo.FindByID(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load response"))
			return
		}
		if record == nil {
			responses.WriteSuccess(w, nil)
			return
		}
		responses.WriteSuccess(w, record.MarketplaceData)
	}
}
