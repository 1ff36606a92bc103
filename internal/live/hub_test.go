package live

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmarcana/marketplace-analytics-backend/pkg/db/models"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/enums"
	pkgerrors "github.com/dmarcana/marketplace-analytics-backend/pkg/errors"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeStore struct {
	latest    *models.MarketplaceResponse
	latestErr error
	stats     types.ResponseStats
	statsErr  error
}

func (f *fakeStore) Create(context.Context, *models.MarketplaceResponse) error { return nil }

func (f *fakeStore) FindAll(context.Context, int, int) ([]models.MarketplaceResponse, error) {
	return nil, nil
}

func (f *fakeStore) FindAllByCategory(context.Context, enums.Category, int, int) ([]models.MarketplaceResponse, error) {
	return nil, nil
}

func (f *fakeStore) FindByID(context.Context, uuid.UUID) (*models.MarketplaceResponse, error) {
	return nil, nil
}

func (f *fakeStore) FindLatest(context.Context) (*models.MarketplaceResponse, error) {
	return f.latest, f.latestErr
}

func (f *fakeStore) GetStats(context.Context) (types.ResponseStats, error) {
	return f.stats, f.statsErr
}

type sentEvent struct {
	name    string
	payload any
}

type fakeSubscriber struct {
	id      string
	sendErr error
	events  []sentEvent
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(event string, payload any) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.events = append(f.events, sentEvent{name: event, payload: payload})
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "live-test", Level: zerolog.Disabled, Output: io.Discard})
}

func payloadJSON(t *testing.T, event sentEvent) string {
	t.Helper()
	raw, err := json.Marshal(event.payload)
	require.NoError(t, err)
	return string(raw)
}

func TestSubscribeWithEmptyStoreSendsNothing(t *testing.T) {
	hub := NewHub(&fakeStore{}, testLogger())
	sub := &fakeSubscriber{id: "sub-1"}

	hub.Subscribe(context.Background(), sub)

	assert.Equal(t, 1, hub.SubscriberCount())
	assert.Empty(t, sub.events)
}

func TestSubscribePushesLatestObservation(t *testing.T) {
	store := &fakeStore{latest: &models.MarketplaceResponse{
		MarketplaceData: datatypes.JSON(`{"userViews":123}`),
	}}
	hub := NewHub(store, testLogger())
	sub := &fakeSubscriber{id: "sub-1"}

	hub.Subscribe(context.Background(), sub)

	require.Len(t, sub.events, 1)
	assert.Equal(t, EventLatestResponse, sub.events[0].name)
	assert.JSONEq(t, `{"success":true,"data":{"userViews":123}}`, payloadJSON(t, sub.events[0]))
}

func TestUnsubscribeRemovesSubscriber(t *testing.T) {
	hub := NewHub(&fakeStore{}, testLogger())
	sub := &fakeSubscriber{id: "sub-1"}
	hub.Subscribe(context.Background(), sub)

	hub.Unsubscribe(context.Background(), "sub-1")

	assert.Zero(t, hub.SubscriberCount())
}

func TestBroadcastNewResponseReachesAllSubscribers(t *testing.T) {
	hub := NewHub(&fakeStore{}, testLogger())
	first := &fakeSubscriber{id: "sub-1"}
	second := &fakeSubscriber{id: "sub-2"}
	hub.Subscribe(context.Background(), first)
	hub.Subscribe(context.Background(), second)

	hub.BroadcastNewResponse(context.Background(), &models.MarketplaceResponse{
		MarketplaceData: datatypes.JSON(`{"userViews":123}`),
	})

	for _, sub := range []*fakeSubscriber{first, second} {
		require.Len(t, sub.events, 1)
		assert.Equal(t, EventNewResponse, sub.events[0].name)

		var envelope struct {
			Success   bool            `json:"success"`
			Data      json.RawMessage `json:"data"`
			Timestamp string          `json:"timestamp"`
		}
		require.NoError(t, json.Unmarshal([]byte(payloadJSON(t, sub.events[0])), &envelope))
		assert.True(t, envelope.Success)
		assert.JSONEq(t, `{"userViews":123}`, string(envelope.Data))
		_, err := time.Parse(time.RFC3339, envelope.Timestamp)
		assert.NoError(t, err)
	}
}

func TestBroadcastSurvivesFailingSubscriber(t *testing.T) {
	hub := NewHub(&fakeStore{}, testLogger())
	broken := &fakeSubscriber{id: "sub-1", sendErr: errors.New("gone")}
	healthy := &fakeSubscriber{id: "sub-2"}
	hub.Subscribe(context.Background(), broken)
	hub.Subscribe(context.Background(), healthy)

	hub.BroadcastNewResponse(context.Background(), &models.MarketplaceResponse{
		MarketplaceData: datatypes.JSON(`{}`),
	})

	require.Len(t, healthy.events, 1)
	assert.Equal(t, EventNewResponse, healthy.events[0].name)
}

func TestBroadcastUpdatedStats(t *testing.T) {
	store := &fakeStore{stats: types.ResponseStats{Total: 4, Successful: 3, Failed: 1, SuccessRate: 75}}
	hub := NewHub(store, testLogger())
	sub := &fakeSubscriber{id: "sub-1"}
	hub.Subscribe(context.Background(), sub)

	hub.BroadcastUpdatedStats(context.Background())

	require.Len(t, sub.events, 1)
	assert.Equal(t, EventUpdatedStats, sub.events[0].name)
	assert.Contains(t, payloadJSON(t, sub.events[0]), `"successRate":75`)
}

func TestBroadcastUpdatedStatsFailureEmitsNothing(t *testing.T) {
	store := &fakeStore{statsErr: errors.New("store unreachable")}
	hub := NewHub(store, testLogger())
	sub := &fakeSubscriber{id: "sub-1"}
	hub.Subscribe(context.Background(), sub)

	hub.BroadcastUpdatedStats(context.Background())

	assert.Empty(t, sub.events)
}

type fakePublisher struct {
	events []string
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event string, _ any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func TestBroadcastsRepublishThroughPublisher(t *testing.T) {
	store := &fakeStore{stats: types.ResponseStats{Total: 1}}
	hub := NewHub(store, testLogger())
	publisher := &fakePublisher{}
	hub.SetPublisher(publisher)

	hub.BroadcastNewResponse(context.Background(), &models.MarketplaceResponse{
		MarketplaceData: datatypes.JSON(`{}`),
	})
	hub.BroadcastUpdatedStats(context.Background())

	assert.Equal(t, []string{EventNewResponse, EventUpdatedStats}, publisher.events)
}

func TestPublisherFailureDoesNotBlockLocalDelivery(t *testing.T) {
	hub := NewHub(&fakeStore{}, testLogger())
	hub.SetPublisher(&fakePublisher{err: errors.New("redis down")})
	sub := &fakeSubscriber{id: "sub-1"}
	hub.Subscribe(context.Background(), sub)

	hub.BroadcastNewResponse(context.Background(), &models.MarketplaceResponse{
		MarketplaceData: datatypes.JSON(`{}`),
	})

	require.Len(t, sub.events, 1)
}

func TestHandleRequestGetLatestData(t *testing.T) {
	store := &fakeStore{latest: &models.MarketplaceResponse{
		MarketplaceData: datatypes.JSON(`{"newDeals":4}`),
	}}
	hub := NewHub(store, testLogger())
	sub := &fakeSubscriber{id: "sub-1"}
	hub.Subscribe(context.Background(), sub)
	sub.events = nil

	require.NoError(t, hub.HandleRequest(context.Background(), "sub-1", RequestGetLatestData))

	require.Len(t, sub.events, 1)
	assert.Equal(t, EventLatestResponse, sub.events[0].name)
	assert.JSONEq(t, `{"success":true,"data":{"newDeals":4}}`, payloadJSON(t, sub.events[0]))
}

func TestHandleRequestGetStats(t *testing.T) {
	store := &fakeStore{stats: types.ResponseStats{Total: 2, Successful: 2, SuccessRate: 100, AverageResponseTime: 80}}
	hub := NewHub(store, testLogger())
	sub := &fakeSubscriber{id: "sub-1"}
	hub.Subscribe(context.Background(), sub)

	require.NoError(t, hub.HandleRequest(context.Background(), "sub-1", RequestGetStats))

	require.Len(t, sub.events, 1)
	assert.Equal(t, EventStatsResponse, sub.events[0].name)
	assert.JSONEq(t,
		`{"success":true,"data":{"total":2,"successful":2,"failed":0,"successRate":100,"averageResponseTime":80}}`,
		payloadJSON(t, sub.events[0]))
}

func TestHandleRequestGetStatsFailureShape(t *testing.T) {
	store := &fakeStore{statsErr: errors.New("store unreachable")}
	hub := NewHub(store, testLogger())
	sub := &fakeSubscriber{id: "sub-1"}
	hub.Subscribe(context.Background(), sub)

	require.NoError(t, hub.HandleRequest(context.Background(), "sub-1", RequestGetStats))

	require.Len(t, sub.events, 1)
	assert.Equal(t, EventStatsResponse, sub.events[0].name)
	assert.JSONEq(t, `{"success":false,"error":"Failed to fetch statistics"}`, payloadJSON(t, sub.events[0]))
}

func TestHandleRequestUnknownSubscriber(t *testing.T) {
	hub := NewHub(&fakeStore{}, testLogger())

	err := hub.HandleRequest(context.Background(), "ghost", RequestGetStats)

	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestHandleRequestUnknownRequest(t *testing.T) {
	hub := NewHub(&fakeStore{}, testLogger())
	sub := &fakeSubscriber{id: "sub-1"}
	hub.Subscribe(context.Background(), sub)

	err := hub.HandleRequest(context.Background(), "sub-1", "selfDestruct")

	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
