package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"

	"comment-insights-service/fetcher"
	"comment-insights-service/metrics"
	"comment-insights-service/model"
	"comment-insights-service/sampler"
	"comment-insights-service/service"
	"comment-insights-service/storage"
	"comment-insights-service/worker"
)

// Handler wires the HTTP surface to the pipeline, the report store and
// the async job queue. Store and nats connection may be nil when those
// collaborators are disabled.
type Handler struct {
	svc   *service.Service
	store *storage.ReportStore
	nc    *nats.Conn
}

// New builds a Handler.
func New(svc *service.Service, store *storage.ReportStore, nc *nats.Conn) *Handler {
	return &Handler{svc: svc, store: store, nc: nc}
}

// GetInsights runs the full pipeline synchronously for one video.
func (h *Handler) GetInsights(c *gin.Context) {
	videoRef := c.Query("videoId")
	sample := c.DefaultQuery("sample", "all")
	log.Printf("[INFO] GetInsights called with videoId=%s, sample=%s", videoRef, sample)

	if videoRef == "" {
		log.Printf("[WARN] Missing videoId parameter in GetInsights request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "videoId is required"})
		return
	}

	report, err := h.svc.Analyze(c.Request.Context(), videoRef, sample)
	if err != nil {
		if errors.Is(err, fetcher.ErrInvalidIdentifier) || errors.Is(err, sampler.ErrInvalidFraction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("[ERROR] Analyze failed for videoId=%s: %v", videoRef, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if h.store != nil {
		if err := h.store.Save(c.Request.Context(), report); err != nil {
			log.Printf("[ERROR] Failed to store report for videoId=%s: %v", report.VideoID, err)
		}
	}

	c.JSON(http.StatusOK, report)
}

// RequestInsights publishes an async analysis job and returns immediately.
func (h *Handler) RequestInsights(c *gin.Context) {
	if h.nc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "async processing is disabled"})
		return
	}

	var req model.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.VideoRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "videoRef is required"})
		return
	}
	if req.RequestID == "" {
		req.RequestID = time.Now().UTC().Format("20060102-150405.000000000")
	}

	data, _ := json.Marshal(req)
	if err := h.nc.Publish(worker.SubjectRequests, data); err != nil {
		log.Printf("[ERROR] Failed to publish analyze request: %v", err)
		metrics.NatsMessagesPublished.WithLabelValues(worker.SubjectRequests, "error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.NatsMessagesPublished.WithLabelValues(worker.SubjectRequests, "ok").Inc()

	log.Printf("[INFO] Queued analyze request %s for %s", req.RequestID, req.VideoRef)
	c.JSON(http.StatusAccepted, gin.H{"requestId": req.RequestID})
}

// GetReport returns the latest stored report for a video.
func (h *Handler) GetReport(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report storage is disabled"})
		return
	}

	videoRef := c.Query("videoId")
	if videoRef == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "videoId is required"})
		return
	}

	videoID, err := fetcher.ResolveVideoID(videoRef)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.store.Latest(c.Request.Context(), videoID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no report for videoId " + videoID})
			return
		}
		log.Printf("[ERROR] Failed to load report for videoId=%s: %v", videoID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
