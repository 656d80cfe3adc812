package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/falconleb/shopify-tracker/internal/domain"
	"github.com/falconleb/shopify-tracker/internal/dto"
	"github.com/falconleb/shopify-tracker/internal/queue"
	"github.com/falconleb/shopify-tracker/internal/repository"
	"github.com/falconleb/shopify-tracker/internal/useragent"
)

// ErrValidation marks requests rejected before any state mutation. Callers
// map it to a client error and must not retry.
var ErrValidation = errors.New("validation failed")

const whatsappSource = "whatsapp"

// TrackerService resolves device and session identity for each inbound
// event and records the event, all inside one storage transaction.
type TrackerService struct {
	store     repository.Store
	publisher queue.Publisher
	log       *zap.Logger
	now       func() int64
}

// NewTrackerService creates a new tracker service.
func NewTrackerService(store repository.Store, publisher queue.Publisher, log *zap.Logger) *TrackerService {
	return &TrackerService{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       func() int64 { return time.Now().Unix() },
	}
}

// computeEventID generates a deterministic event ID for the queue path so
// an SQS redelivery carries the same id and cannot double-append.
// Uses SHA-256 hash of: event|session_id|device_id|url|timestamp.
func computeEventID(event *dto.TrackEventRequest) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d",
		event.Event,
		event.SessionID,
		event.DeviceID,
		event.URL,
		event.Timestamp,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// Ingest applies one event atomically. An empty device or session id skips
// that upsert; the event is still recorded.
func (s *TrackerService) Ingest(ctx context.Context, req *dto.TrackEventRequest, eventID string) (string, error) {
	if req.Event == "" {
		return "", fmt.Errorf("%w: event name is required", ErrValidation)
	}

	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata, err := encodeMetadata(req)
	if err != nil {
		return "", err
	}

	now := s.now()

	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		if req.DeviceID != "" {
			if err := s.resolveDevice(ctx, tx, req, now); err != nil {
				return err
			}
		}
		if req.SessionID != "" {
			if err := s.resolveSession(ctx, tx, req, now); err != nil {
				return err
			}
		}

		return tx.AppendEvent(ctx, &domain.Event{
			EventID:       eventID,
			EventName:     req.Event,
			SessionID:     req.SessionID,
			DeviceID:      req.DeviceID,
			URL:           req.URL,
			Referrer:      req.Referrer,
			UserAgent:     req.UserAgent,
			TrafficSource: req.TrafficSource,
			UTMSource:     req.UTMSource,
			UTMMedium:     req.UTMMedium,
			UTMCampaign:   req.UTMCampaign,
			UTMContent:    req.UTMContent,
			GeoCountry:    req.GeoCountry,
			GeoCity:       req.GeoCity,
			Metadata:      metadata,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to ingest event: %w", err)
	}

	s.log.Debug("Event ingested",
		zap.String("event_id", eventID),
		zap.String("event_name", req.Event),
		zap.String("session_id", req.SessionID))

	return eventID, nil
}

// resolveDevice creates or updates the device row. IsWhatsappOrigin is
// sticky: once true it never reverts. Classification fields follow the most
// recent event that carried a user-agent.
func (s *TrackerService) resolveDevice(ctx context.Context, tx repository.Tx, req *dto.TrackEventRequest, now int64) error {
	device, err := tx.GetDevice(ctx, req.DeviceID)
	if err != nil {
		return err
	}

	if device == nil {
		device = &domain.Device{
			DeviceID:         req.DeviceID,
			FirstSeen:        now,
			IsWhatsappOrigin: req.TrafficSource == whatsappSource,
		}
		applyAttributes(device, useragent.Classify(req.UserAgent))
	} else {
		if req.TrafficSource == whatsappSource {
			device.IsWhatsappOrigin = true
		}
		if req.UserAgent != "" {
			applyAttributes(device, useragent.Classify(req.UserAgent))
		}
	}

	device.LastSeen = now

	return tx.UpsertDevice(ctx, device)
}

// resolveSession creates or updates the session row. Attribution is
// first-wins: only last_seen advances on later events, except a
// traffic_source backfill while the session's source is still empty.
func (s *TrackerService) resolveSession(ctx context.Context, tx repository.Tx, req *dto.TrackEventRequest, now int64) error {
	session, err := tx.GetSession(ctx, req.SessionID)
	if err != nil {
		return err
	}

	if session == nil {
		session = &domain.Session{
			SessionID:     req.SessionID,
			DeviceID:      req.DeviceID,
			FirstSeen:     now,
			TrafficSource: req.TrafficSource,
			UTMSource:     req.UTMSource,
			UTMMedium:     req.UTMMedium,
			UTMCampaign:   req.UTMCampaign,
			UTMContent:    req.UTMContent,
			Referrer:      req.Referrer,
			UserAgent:     req.UserAgent,
		}
	} else if session.TrafficSource == "" && req.TrafficSource != "" {
		session.TrafficSource = req.TrafficSource
	}

	session.LastSeen = now

	return tx.UpsertSession(ctx, session)
}

// EnqueueBulk validates and publishes multiple events to the queue.
func (s *TrackerService) EnqueueBulk(ctx context.Context, events []dto.TrackEventRequest) ([]string, []string, error) {
	var eventIDs []string
	var errs []string

	for i := range events {
		event := &events[i]
		if event.Event == "" {
			errs = append(errs, fmt.Sprintf("event %d: event name is required", i))
			continue
		}

		eventID := computeEventID(event)

		if err := s.publisher.PublishEvent(ctx, event, eventID); err != nil {
			errs = append(errs, err.Error())
			s.log.Warn("Failed to enqueue event",
				zap.Int("index", i),
				zap.Error(err),
				zap.String("event_name", event.Event))
			continue
		}
		eventIDs = append(eventIDs, eventID)
	}

	return eventIDs, errs, nil
}

func applyAttributes(device *domain.Device, attrs useragent.Attributes) {
	device.DeviceType = attrs.DeviceType
	device.DeviceBrand = attrs.DeviceBrand
	device.DeviceModel = attrs.DeviceModel
	device.OSName = attrs.OSName
	device.OSVersion = attrs.OSVersion
	device.BrowserName = attrs.BrowserName
	device.BrowserVersion = attrs.BrowserVersion
}
