package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/falconleb/shopify-tracker/internal/dto"
	"github.com/falconleb/shopify-tracker/internal/service"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	tracker   service.Tracker
	analytics service.Analytics
	pinger    Pinger
	router    *gin.Engine
	log       *zap.Logger
}

func NewHandler(tracker service.Tracker, analytics service.Analytics, pinger Pinger, log *zap.Logger) *Handler {
	h := &Handler{
		tracker:   tracker,
		analytics: analytics,
		pinger:    pinger,
		router:    gin.Default(),
		log:       log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/track", h.track)
	h.router.POST("/track/bulk", h.trackBulk)

	analytics := h.router.Group("/analytics")
	analytics.GET("/overview", h.overview)
	analytics.GET("/devices", h.devices)
	analytics.GET("/realtime", h.realtime)
	analytics.GET("/funnel", h.funnel)
	analytics.GET("/timeseries", h.timeseries)
	analytics.GET("/sessions/:session_id", h.sessionDetails)
	analytics.GET("/sessions/:session_id/interest", h.sessionInterest)
}

// respondError maps core errors onto HTTP statuses: validation failures are
// the caller's fault, everything else is internal.
func (h *Handler) respondError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrValidation) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}

// healthCheck handles GET /health
func (h *Handler) healthCheck(c *gin.Context) {
	if err := h.pinger.Ping(c.Request.Context()); err != nil {
		h.log.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// track handles POST /track
func (h *Handler) track(c *gin.Context) {
	var req dto.TrackEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid track request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	eventID, err := h.tracker.Ingest(c.Request.Context(), &req, "")
	if err != nil {
		h.log.Error("Failed to ingest event",
			zap.Error(err),
			zap.String("event_name", req.Event),
			zap.String("session_id", req.SessionID))
		h.respondError(c, err)
		return
	}

	h.log.Info("Event recorded",
		zap.String("event_id", eventID),
		zap.String("event_name", req.Event))

	c.JSON(http.StatusAccepted, dto.TrackEventResponse{
		EventID: eventID,
		Status:  "recorded",
	})
}

// trackBulk handles POST /track/bulk
func (h *Handler) trackBulk(c *gin.Context) {
	var bulkRequest dto.TrackEventsBulkRequest

	if err := c.ShouldBindJSON(&bulkRequest); err != nil {
		h.log.Warn("Invalid bulk track request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	eventIDs, errs, err := h.tracker.EnqueueBulk(c.Request.Context(), bulkRequest.Events)
	if err != nil {
		h.log.Error("Failed to enqueue bulk events",
			zap.Error(err),
			zap.Int("event_count", len(bulkRequest.Events)))
		h.respondError(c, err)
		return
	}

	accepted := len(eventIDs)
	rejected := len(errs)

	h.log.Info("Bulk events enqueued",
		zap.Int("accepted", accepted),
		zap.Int("rejected", rejected),
		zap.Int("total", len(bulkRequest.Events)))

	c.JSON(http.StatusAccepted, dto.TrackBulkResponse{
		Accepted: accepted,
		Rejected: rejected,
		EventIDs: eventIDs,
		Errors:   errs,
	})
}

// overview handles GET /analytics/overview
func (h *Handler) overview(c *gin.Context) {
	response, err := h.analytics.Overview(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to get overview", zap.Error(err))
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// devices handles GET /analytics/devices
func (h *Handler) devices(c *gin.Context) {
	response, err := h.analytics.Devices(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to get device breakdown", zap.Error(err))
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// realtime handles GET /analytics/realtime
func (h *Handler) realtime(c *gin.Context) {
	var req dto.RealtimeRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid realtime request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	response, err := h.analytics.Realtime(c.Request.Context(), req.WindowMinutes)
	if err != nil {
		h.log.Error("Failed to get realtime counts",
			zap.Error(err),
			zap.Int("window_minutes", req.WindowMinutes))
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// funnel handles GET /analytics/funnel
func (h *Handler) funnel(c *gin.Context) {
	response, err := h.analytics.Funnel(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to compute funnel", zap.Error(err))
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// timeseries handles GET /analytics/timeseries
func (h *Handler) timeseries(c *gin.Context) {
	var req dto.TimeseriesRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid timeseries request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	response, err := h.analytics.Timeseries(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to get timeseries",
			zap.Error(err),
			zap.String("event_name", req.EventName))
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// sessionDetails handles GET /analytics/sessions/:session_id
func (h *Handler) sessionDetails(c *gin.Context) {
	sessionID := c.Param("session_id")

	response, err := h.analytics.SessionDetails(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error("Failed to get session details",
			zap.Error(err),
			zap.String("session_id", sessionID))
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// sessionInterest handles GET /analytics/sessions/:session_id/interest
func (h *Handler) sessionInterest(c *gin.Context) {
	sessionID := c.Param("session_id")

	response, err := h.analytics.SessionInterest(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error("Failed to score session interest",
			zap.Error(err),
			zap.String("session_id", sessionID))
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
