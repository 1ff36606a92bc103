package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmarcana/marketplace-analytics-backend/pkg/db/models"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/enums"
	pkgerrors "github.com/dmarcana/marketplace-analytics-backend/pkg/errors"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeRepo struct {
	all          []models.MarketplaceResponse
	allErr       error
	lastLimit    int
	lastOffset   int
	lastCategory enums.Category

	byID    *models.MarketplaceResponse
	byIDErr error
	lastID  uuid.UUID

	latest    *models.MarketplaceResponse
	latestErr error

	stats    types.ResponseStats
	statsErr error
}

func (f *fakeRepo) Create(context.Context, *models.MarketplaceResponse) error { return nil }

func (f *fakeRepo) FindAll(_ context.Context, limit, offset int) ([]models.MarketplaceResponse, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	return f.all, f.allErr
}

func (f *fakeRepo) FindAllByCategory(_ context.Context, category enums.Category, limit, offset int) ([]models.MarketplaceResponse, error) {
	f.lastCategory = category
	f.lastLimit = limit
	f.lastOffset = offset
	return f.all, f.allErr
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*models.MarketplaceResponse, error) {
	f.lastID = id
	return f.byID, f.byIDErr
}

func (f *fakeRepo) FindLatest(context.Context) (*models.MarketplaceResponse, error) {
	return f.latest, f.latestErr
}

func (f *fakeRepo) GetStats(context.Context) (types.ResponseStats, error) {
	return f.stats, f.statsErr
}

func controllerTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestListResponsesReturnsObservationsWithPagination(t *testing.T) {
	repo := &fakeRepo{all: []models.MarketplaceResponse{
		{MarketplaceData: datatypes.JSON(`{"userViews":2}`)},
		{MarketplaceData: datatypes.JSON(`{"userViews":1}`)},
	}}

	req := httptest.NewRequest(http.MethodGet, "/responses?limit=2&offset=1", nil)
	w := httptest.NewRecorder()
	ListResponses(repo, controllerTestLogger())(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, repo.lastLimit)
	assert.Equal(t, 1, repo.lastOffset)
	assert.JSONEq(t,
		`{"success":true,"data":[{"userViews":2},{"userViews":1}],"pagination":{"limit":2,"offset":1,"count":2}}`,
		w.Body.String())
}

func TestListResponsesCoercesMalformedPagination(t *testing.T) {
	repo := &fakeRepo{}

	req := httptest.NewRequest(http.MethodGet, "/responses?limit=abc&offset=xyz", nil)
	w := httptest.NewRecorder()
	ListResponses(repo, controllerTestLogger())(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 100, envelope.Pagination.Limit)
	assert.Equal(t, 0, envelope.Pagination.Offset)
}

func TestListResponsesFiltersByCategory(t *testing.T) {
	repo := &fakeRepo{all: []models.MarketplaceResponse{
		{MarketplaceData: datatypes.JSON(`{"category":"Agriculture"}`)},
	}}

	req := httptest.NewRequest(http.MethodGet, "/responses?category=Agriculture", nil)
	w := httptest.NewRecorder()
	ListResponses(repo, controllerTestLogger())(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, enums.CategoryAgriculture, repo.lastCategory)
	assert.JSONEq(t,
		`{"success":true,"data":[{"category":"Agriculture"}],"pagination":{"limit":100,"offset":0,"count":1}}`,
		w.Body.String())
}

func TestListResponsesRejectsUnknownCategory(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/responses?category=Cryptozoology", nil)
	w := httptest.NewRecorder()
	ListResponses(&fakeRepo{}, controllerTestLogger())(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
}

func TestListResponsesStoreFailure(t *testing.T) {
	repo := &fakeRepo{allErr: context.DeadlineExceeded}

	req := httptest.NewRequest(http.MethodGet, "/responses", nil)
	w := httptest.NewRecorder()
	ListResponses(repo, controllerTestLogger())(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, string(pkgerrors.CodeDependency), envelope.Error.Code)
}

func TestGetResponseStats(t *testing.T) {
	repo := &fakeRepo{stats: types.ResponseStats{Total: 4, Successful: 3, Failed: 1, SuccessRate: 75, AverageResponseTime: 120}}

	req := httptest.NewRequest(http.MethodGet, "/responses/stats", nil)
	w := httptest.NewRecorder()
	GetResponseStats(repo, controllerTestLogger())(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"success":true,"data":{"total":4,"successful":3,"failed":1,"successRate":75,"averageResponseTime":120}}`,
		w.Body.String())
}

func TestGetLatestResponseEmptyStoreReturnsNull(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/responses/latest", nil)
	w := httptest.NewRecorder()
	GetLatestResponse(&fakeRepo{}, controllerTestLogger())(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":null}`, w.Body.String())
}

func TestGetLatestResponseReturnsObservation(t *testing.T) {
	repo := &fakeRepo{latest: &models.MarketplaceResponse{MarketplaceData: datatypes.JSON(`{"newDeals":3}`)}}

	req := httptest.NewRequest(http.MethodGet, "/responses/latest", nil)
	w := httptest.NewRecorder()
	GetLatestResponse(repo, controllerTestLogger())(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"newDeals":3}}`, w.Body.String())
}

func requestWithID(method, target, responseID string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("responseId", responseID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestGetResponseByIDInvalidUUID(t *testing.T) {
	w := httptest.NewRecorder()
	GetResponseByID(&fakeRepo{}, controllerTestLogger())(w, requestWithID(http.MethodGet, "/responses/not-a-uuid", "not-a-uuid"))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeValidation), envelope.Error.Code)
}

func TestGetResponseByIDMissingReturnsNull(t *testing.T) {
	id := uuid.NewString()
	repo := &fakeRepo{}

	w := httptest.NewRecorder()
	GetResponseByID(repo, controllerTestLogger())(w, requestWithID(http.MethodGet, "/responses/"+id, id))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":null}`, w.Body.String())
	assert.Equal(t, id, repo.lastID.String())
}

func TestGetResponseByIDFound(t *testing.T) {
	id := uuid.NewString()
	repo := &fakeRepo{byID: &models.MarketplaceResponse{MarketplaceData: datatypes.JSON(`{"activeDeals":77}`)}}

	w := httptest.NewRecorder()
	GetResponseByID(repo, controllerTestLogger())(w, requestWithID(http.MethodGet, "/responses/"+id, id))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"activeDeals":77}}`, w.Body.String())
}
