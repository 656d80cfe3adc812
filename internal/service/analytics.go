package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/falconleb/shopify-tracker/internal/dto"
	"github.com/falconleb/shopify-tracker/internal/interest"
	"github.com/falconleb/shopify-tracker/internal/repository"
)

// FunnelStages is the fixed conversion sequence, in funnel order. Stages
// are counted independently: a session counts toward a stage whenever it
// produced at least one event of that stage, regardless of earlier stages.
var FunnelStages = []string{
	"product_view",
	"add_to_cart",
	"cart_view",
	"begin_checkout",
	"purchase",
}

// interestEventNames are the event kinds that contribute to interest
// scoring.
var interestEventNames = map[string]bool{
	"product_view": true,
	"add_to_cart":  true,
}

// AnalyticsService serves the read-side queries. It never mutates state and
// tolerates point-in-time inconsistency with concurrent ingestion.
type AnalyticsService struct {
	store  repository.Store
	scorer *interest.Scorer
	log    *zap.Logger
	now    func() int64
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(store repository.Store, scorer *interest.Scorer, log *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:  store,
		scorer: scorer,
		log:    log,
		now:    func() int64 { return time.Now().Unix() },
	}
}

// Overview returns store-wide totals and per-source event counts.
func (s *AnalyticsService) Overview(ctx context.Context) (*dto.OverviewResponse, error) {
	result, err := s.store.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get overview: %w", err)
	}

	response := &dto.OverviewResponse{
		TotalEvents:   result.TotalEvents,
		TotalSessions: result.TotalSessions,
		TotalDevices:  result.TotalDevices,
		BySource:      make([]dto.SourceCountData, 0, len(result.BySource)),
	}
	for _, sc := range result.BySource {
		response.BySource = append(response.BySource, dto.SourceCountData{
			TrafficSource: sc.TrafficSource,
			Count:         sc.Count,
		})
	}

	return response, nil
}

// Devices returns distinct-device counts grouped by classifier attribute.
func (s *AnalyticsService) Devices(ctx context.Context) (*dto.DeviceBreakdownResponse, error) {
	result, err := s.store.DeviceBreakdown(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device breakdown: %w", err)
	}

	return &dto.DeviceBreakdownResponse{
		ByType:    toBreakdownData(result.ByType),
		ByBrand:   toBreakdownData(result.ByBrand),
		ByOS:      toBreakdownData(result.ByOS),
		ByBrowser: toBreakdownData(result.ByBrowser),
	}, nil
}

// Realtime counts sessions, devices and events active inside the window.
func (s *AnalyticsService) Realtime(ctx context.Context, windowMinutes int) (*dto.RealtimeResponse, error) {
	if windowMinutes < 1 {
		return nil, fmt.Errorf("%w: window_minutes must be at least 1", ErrValidation)
	}

	since := s.now() - int64(windowMinutes)*60

	result, err := s.store.Realtime(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get realtime counts: %w", err)
	}

	return &dto.RealtimeResponse{
		WindowMinutes:  windowMinutes,
		ActiveSessions: result.ActiveSessions,
		ActiveDevices:  result.ActiveDevices,
		Events:         result.Events,
	}, nil
}

type stageSets map[string]map[string]bool

func newStageSets() stageSets {
	sets := make(stageSets, len(FunnelStages))
	for _, stage := range FunnelStages {
		sets[stage] = make(map[string]bool)
	}
	return sets
}

func (s stageSets) counts() []dto.FunnelStageCount {
	counts := make([]dto.FunnelStageCount, 0, len(FunnelStages))
	for _, stage := range FunnelStages {
		counts = append(counts, dto.FunnelStageCount{
			Stage:    stage,
			Sessions: uint64(len(s[stage])),
		})
	}
	return counts
}

type productKey struct {
	id    string
	title string
}

// Funnel computes the overall, by-source and by-product reports from a
// single event scan, counting distinct sessions per stage.
func (s *AnalyticsService) Funnel(ctx context.Context) (*dto.FunnelResponse, error) {
	rows, err := s.store.FunnelEvents(ctx, FunnelStages)
	if err != nil {
		return nil, fmt.Errorf("failed to scan funnel events: %w", err)
	}

	overall := newStageSets()
	bySource := make(map[string]stageSets)
	byProduct := make(map[productKey]stageSets)

	for _, row := range rows {
		if row.SessionID == "" {
			continue
		}

		overall[row.EventName][row.SessionID] = true

		source := row.TrafficSource
		if source == "" {
			source = "unknown"
		}
		if bySource[source] == nil {
			bySource[source] = newStageSets()
		}
		bySource[source][row.EventName][row.SessionID] = true

		meta := decodeMetadata(row.Metadata)
		if id := metadataString(meta, "product_id"); id != "" {
			key := productKey{id: id, title: metadataString(meta, "product_title")}
			if byProduct[key] == nil {
				byProduct[key] = newStageSets()
			}
			byProduct[key][row.EventName][row.SessionID] = true
		}
	}

	s.log.Debug("Funnel scan complete",
		zap.Int("events", len(rows)),
		zap.Int("sources", len(bySource)),
		zap.Int("products", len(byProduct)))

	response := &dto.FunnelResponse{
		Overall:   overall.counts(),
		BySource:  make([]dto.FunnelSourceReport, 0, len(bySource)),
		ByProduct: make([]dto.FunnelProductReport, 0, len(byProduct)),
	}

	sources := make([]string, 0, len(bySource))
	for source := range bySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	for _, source := range sources {
		response.BySource = append(response.BySource, dto.FunnelSourceReport{
			TrafficSource: source,
			Stages:        bySource[source].counts(),
		})
	}

	products := make([]productKey, 0, len(byProduct))
	for key := range byProduct {
		products = append(products, key)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].id != products[j].id {
			return products[i].id < products[j].id
		}
		return products[i].title < products[j].title
	})
	for _, key := range products {
		response.ByProduct = append(response.ByProduct, dto.FunnelProductReport{
			ProductID:    key.id,
			ProductTitle: key.title,
			Stages:       byProduct[key].counts(),
		})
	}

	return response, nil
}

// SessionDetails lists one session's events in chronological order. An
// unknown session yields an empty list.
func (s *AnalyticsService) SessionDetails(ctx context.Context, sessionID string) (*dto.SessionDetailsResponse, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrValidation)
	}

	events, err := s.store.SessionEvents(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session events: %w", err)
	}

	response := &dto.SessionDetailsResponse{
		SessionID: sessionID,
		Events:    make([]dto.SessionEventData, 0, len(events)),
	}
	for _, ev := range events {
		meta := decodeMetadata(ev.Metadata)
		response.Events = append(response.Events, dto.SessionEventData{
			Event:        ev.EventName,
			URL:          ev.URL,
			ProductID:    metadataString(meta, "product_id"),
			ProductTitle: metadataString(meta, "product_title"),
			Country:      ev.GeoCountry,
			City:         ev.GeoCity,
			Source:       ev.TrafficSource,
			Timestamp:    ev.CreatedAt,
		})
	}

	return response, nil
}

// SessionInterest scores the session's product-category affinity from its
// product_view and add_to_cart events.
func (s *AnalyticsService) SessionInterest(ctx context.Context, sessionID string) (*dto.SessionInterestResponse, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrValidation)
	}

	events, err := s.store.SessionEvents(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session events: %w", err)
	}

	var qualifying []interest.ProductEvent
	for _, ev := range events {
		if !interestEventNames[ev.EventName] {
			continue
		}
		meta := decodeMetadata(ev.Metadata)
		qualifying = append(qualifying, interest.ProductEvent{
			Title: metadataString(meta, "product_title"),
			URL:   ev.URL,
		})
	}

	profile := s.scorer.Score(qualifying)

	return &dto.SessionInterestResponse{
		SessionID:  sessionID,
		DogScore:   profile.DogScore,
		CatScore:   profile.CatScore,
		OtherScore: profile.OtherScore,
		DogRatio:   profile.DogRatio,
		CatRatio:   profile.CatRatio,
		OtherRatio: profile.OtherRatio,
		Interest:   profile.Dominant,
	}, nil
}

// Timeseries counts events per hour or day bucket over a validated range.
func (s *AnalyticsService) Timeseries(ctx context.Context, req *dto.TimeseriesRequest) (*dto.TimeseriesResponse, error) {
	if req.From > req.To {
		return nil, fmt.Errorf("%w: from must be less than or equal to to", ErrValidation)
	}

	bucket := req.Bucket
	if bucket == "" {
		bucket = "day"
	}
	if bucket != "hour" && bucket != "day" {
		return nil, fmt.Errorf("%w: invalid bucket value: %s (supported: hour, day)", ErrValidation, bucket)
	}

	rangeSeconds := req.To - req.From
	if bucket == "hour" && rangeSeconds > 90*24*3600 {
		return nil, fmt.Errorf("%w: time range too large for hourly buckets (max 90 days, got %d days)",
			ErrValidation, rangeSeconds/(24*3600))
	}

	buckets, err := s.store.Timeseries(ctx, repository.TimeseriesQuery{
		EventName: req.EventName,
		From:      req.From,
		To:        req.To,
		Bucket:    bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get timeseries: %w", err)
	}

	response := &dto.TimeseriesResponse{
		EventName: req.EventName,
		From:      req.From,
		To:        req.To,
		Bucket:    bucket,
		Points:    make([]dto.TimeseriesPointData, 0, len(buckets)),
	}
	for _, b := range buckets {
		response.Points = append(response.Points, dto.TimeseriesPointData{
			Bucket: b.Bucket,
			Count:  b.Count,
		})
	}

	return response, nil
}

func toBreakdownData(counts []repository.BreakdownCount) []dto.BreakdownData {
	data := make([]dto.BreakdownData, 0, len(counts))
	for _, c := range counts {
		data = append(data, dto.BreakdownData{Value: c.Value, Count: c.Count})
	}
	return data
}
