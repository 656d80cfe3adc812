package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/falconleb/shopify-tracker/internal/domain"
	"github.com/falconleb/shopify-tracker/internal/dto"
	"github.com/falconleb/shopify-tracker/internal/interest"
	"github.com/falconleb/shopify-tracker/internal/repository"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) InTx(ctx context.Context, fn func(repository.Tx) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

func (m *MockStore) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockStore) Overview(ctx context.Context) (*repository.OverviewResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.OverviewResult), args.Error(1)
}

func (m *MockStore) DeviceBreakdown(ctx context.Context) (*repository.DeviceBreakdownResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.DeviceBreakdownResult), args.Error(1)
}

func (m *MockStore) Realtime(ctx context.Context, since int64) (*repository.RealtimeResult, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.RealtimeResult), args.Error(1)
}

func (m *MockStore) FunnelEvents(ctx context.Context, stages []string) ([]repository.FunnelEvent, error) {
	args := m.Called(ctx, stages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.FunnelEvent), args.Error(1)
}

func (m *MockStore) SessionEvents(ctx context.Context, sessionID string) ([]domain.Event, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Event), args.Error(1)
}

func (m *MockStore) Timeseries(ctx context.Context, query repository.TimeseriesQuery) ([]repository.TimeseriesBucket, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.TimeseriesBucket), args.Error(1)
}

func newTestAnalytics(store repository.Store) *AnalyticsService {
	return NewAnalyticsService(store, interest.NewScorer(interest.DefaultKeywords()), zap.NewNop())
}

func stageCount(counts []dto.FunnelStageCount, stage string) uint64 {
	for _, c := range counts {
		if c.Stage == stage {
			return c.Sessions
		}
	}
	return 0
}

func TestAnalyticsService_Overview(t *testing.T) {
	store := new(MockStore)
	store.On("Overview", mock.Anything).Return(&repository.OverviewResult{
		TotalEvents:   120,
		TotalSessions: 40,
		TotalDevices:  35,
		BySource: []repository.SourceCount{
			{TrafficSource: "google", Count: 80},
			{TrafficSource: "whatsapp", Count: 40},
		},
	}, nil)

	response, err := newTestAnalytics(store).Overview(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, uint64(120), response.TotalEvents)
	assert.Equal(t, uint64(40), response.TotalSessions)
	assert.Len(t, response.BySource, 2)
	assert.Equal(t, "google", response.BySource[0].TrafficSource)
}

func TestAnalyticsService_Overview_StoreError(t *testing.T) {
	store := new(MockStore)
	store.On("Overview", mock.Anything).Return(nil, errors.New("connection lost"))

	response, err := newTestAnalytics(store).Overview(context.Background())

	assert.Error(t, err)
	assert.Nil(t, response)
}

func TestAnalyticsService_Realtime_WindowCutoff(t *testing.T) {
	store := new(MockStore)
	store.On("Realtime", mock.Anything, int64(1700000000-300)).Return(&repository.RealtimeResult{
		ActiveSessions: 3,
		ActiveDevices:  2,
		Events:         10,
	}, nil)

	svc := newTestAnalytics(store)
	svc.now = func() int64 { return 1700000000 }

	response, err := svc.Realtime(context.Background(), 5)

	assert.NoError(t, err)
	assert.Equal(t, 5, response.WindowMinutes)
	assert.Equal(t, uint64(3), response.ActiveSessions)
	store.AssertExpectations(t)
}

func TestAnalyticsService_Realtime_InvalidWindow(t *testing.T) {
	svc := newTestAnalytics(new(MockStore))

	_, err := svc.Realtime(context.Background(), 0)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestAnalyticsService_Funnel_DistinctSessionsPerStage(t *testing.T) {
	store := new(MockStore)
	store.On("FunnelEvents", mock.Anything, FunnelStages).Return([]repository.FunnelEvent{
		{EventName: "product_view", SessionID: "sess-1", TrafficSource: "google"},
		{EventName: "product_view", SessionID: "sess-1", TrafficSource: "google"},
		{EventName: "product_view", SessionID: "sess-2"},
		{EventName: "purchase", SessionID: "sess-1", TrafficSource: "google"},
		{EventName: "purchase", SessionID: "sess-1", TrafficSource: "google"},
		{EventName: "purchase", SessionID: "sess-1", TrafficSource: "google"},
	}, nil)

	response, err := newTestAnalytics(store).Funnel(context.Background())

	assert.NoError(t, err)
	assert.Len(t, response.Overall, 5)
	assert.Equal(t, uint64(2), stageCount(response.Overall, "product_view"))
	assert.Equal(t, uint64(1), stageCount(response.Overall, "purchase"))
	assert.Equal(t, uint64(0), stageCount(response.Overall, "add_to_cart"))
}

func TestAnalyticsService_Funnel_SourceBuckets(t *testing.T) {
	store := new(MockStore)
	store.On("FunnelEvents", mock.Anything, FunnelStages).Return([]repository.FunnelEvent{
		{EventName: "product_view", SessionID: "sess-1", TrafficSource: "instagram"},
		{EventName: "product_view", SessionID: "sess-2"},
		{EventName: "add_to_cart", SessionID: "sess-2"},
	}, nil)

	response, err := newTestAnalytics(store).Funnel(context.Background())

	assert.NoError(t, err)
	assert.Len(t, response.BySource, 2)
	// sorted: instagram before unknown
	assert.Equal(t, "instagram", response.BySource[0].TrafficSource)
	assert.Equal(t, "unknown", response.BySource[1].TrafficSource)
	assert.Equal(t, uint64(1), stageCount(response.BySource[1].Stages, "add_to_cart"))
}

func TestAnalyticsService_Funnel_ProductBucketsFromMetadata(t *testing.T) {
	store := new(MockStore)
	store.On("FunnelEvents", mock.Anything, FunnelStages).Return([]repository.FunnelEvent{
		{EventName: "product_view", SessionID: "sess-1", Metadata: `{"product_id":"p1","product_title":"Dog Leash"}`},
		{EventName: "add_to_cart", SessionID: "sess-1", Metadata: `{"product_id":"p1","product_title":"Dog Leash"}`},
		{EventName: "product_view", SessionID: "sess-2", Metadata: `{"product_id":1002,"product_title":"Cat Tree"}`},
		{EventName: "begin_checkout", SessionID: "sess-1", Metadata: `{}`},
	}, nil)

	response, err := newTestAnalytics(store).Funnel(context.Background())

	assert.NoError(t, err)
	assert.Len(t, response.ByProduct, 2)
	// sorted by product id; numeric ids are normalized to strings
	assert.Equal(t, "1002", response.ByProduct[0].ProductID)
	assert.Equal(t, "Cat Tree", response.ByProduct[0].ProductTitle)
	assert.Equal(t, "p1", response.ByProduct[1].ProductID)
	assert.Equal(t, uint64(1), stageCount(response.ByProduct[1].Stages, "add_to_cart"))
	// the productless begin_checkout contributes to overall only
	assert.Equal(t, uint64(1), stageCount(response.Overall, "begin_checkout"))
	assert.Equal(t, uint64(0), stageCount(response.ByProduct[1].Stages, "begin_checkout"))
}

func TestAnalyticsService_SessionDetails(t *testing.T) {
	store := new(MockStore)
	store.On("SessionEvents", mock.Anything, "sess-1").Return([]domain.Event{
		{
			EventID:       "evt-1",
			EventName:     "product_view",
			SessionID:     "sess-1",
			URL:           "https://shop.example.com/products/dog-leash",
			TrafficSource: "google",
			GeoCountry:    "JO",
			GeoCity:       "Amman",
			Metadata:      `{"product_id":"p1","product_title":"Dog Leash"}`,
			CreatedAt:     1700000000,
		},
		{
			EventID:   "evt-2",
			EventName: "page_view",
			SessionID: "sess-1",
			URL:       "https://shop.example.com/",
			Metadata:  "not-json",
			CreatedAt: 1700000060,
		},
	}, nil)

	response, err := newTestAnalytics(store).SessionDetails(context.Background(), "sess-1")

	assert.NoError(t, err)
	assert.Equal(t, "sess-1", response.SessionID)
	assert.Len(t, response.Events, 2)
	assert.Equal(t, "p1", response.Events[0].ProductID)
	assert.Equal(t, "Amman", response.Events[0].City)
	assert.Equal(t, int64(1700000000), response.Events[0].Timestamp)
	// malformed metadata still yields the event without product fields
	assert.Empty(t, response.Events[1].ProductID)
}

func TestAnalyticsService_SessionDetails_EmptyID(t *testing.T) {
	_, err := newTestAnalytics(new(MockStore)).SessionDetails(context.Background(), "")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestAnalyticsService_SessionInterest(t *testing.T) {
	store := new(MockStore)
	store.On("SessionEvents", mock.Anything, "sess-1").Return([]domain.Event{
		{EventName: "product_view", URL: "https://shop.example.com/products/dog-leash", Metadata: `{"product_title":"Dog Leash"}`},
		{EventName: "add_to_cart", URL: "https://shop.example.com/products/dog-leash", Metadata: `{"product_title":"Dog Leash"}`},
		{EventName: "product_view", Metadata: `{"product_title":"Cat Tree"}`},
		{EventName: "purchase", Metadata: `{"product_title":"Dog Bowl"}`},
	}, nil)

	response, err := newTestAnalytics(store).SessionInterest(context.Background(), "sess-1")

	assert.NoError(t, err)
	// purchase does not qualify, so 2 dog events and 1 cat event score
	assert.Equal(t, 2.0, response.DogScore)
	assert.Equal(t, 1.0, response.CatScore)
	assert.Equal(t, 0.67, response.DogRatio)
	assert.Equal(t, 0.33, response.CatRatio)
	assert.Equal(t, "dogs", response.Interest)
}

func TestAnalyticsService_SessionInterest_NoQualifyingEvents(t *testing.T) {
	store := new(MockStore)
	store.On("SessionEvents", mock.Anything, "sess-1").Return([]domain.Event{
		{EventName: "page_view", URL: "https://shop.example.com/"},
	}, nil)

	response, err := newTestAnalytics(store).SessionInterest(context.Background(), "sess-1")

	assert.NoError(t, err)
	assert.Equal(t, "unknown", response.Interest)
	assert.Equal(t, 0.0, response.DogScore)
}

func TestAnalyticsService_Timeseries_Defaults(t *testing.T) {
	store := new(MockStore)
	store.On("Timeseries", mock.Anything, repository.TimeseriesQuery{
		EventName: "purchase",
		From:      1700000000,
		To:        1700086400,
		Bucket:    "day",
	}).Return([]repository.TimeseriesBucket{
		{Bucket: "2023-11-14", Count: 7},
		{Bucket: "2023-11-15", Count: 3},
	}, nil)

	response, err := newTestAnalytics(store).Timeseries(context.Background(), &dto.TimeseriesRequest{
		EventName: "purchase",
		From:      1700000000,
		To:        1700086400,
	})

	assert.NoError(t, err)
	assert.Equal(t, "day", response.Bucket)
	assert.Len(t, response.Points, 2)
	assert.Equal(t, uint64(7), response.Points[0].Count)
	store.AssertExpectations(t)
}

func TestAnalyticsService_Timeseries_Validation(t *testing.T) {
	svc := newTestAnalytics(new(MockStore))

	_, err := svc.Timeseries(context.Background(), &dto.TimeseriesRequest{
		EventName: "purchase", From: 200, To: 100,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Timeseries(context.Background(), &dto.TimeseriesRequest{
		EventName: "purchase", From: 100, To: 200, Bucket: "week",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Timeseries(context.Background(), &dto.TimeseriesRequest{
		EventName: "purchase", From: 0, To: 100 * 24 * 3600, Bucket: "hour",
	})
	assert.ErrorIs(t, err, ErrValidation)
}
