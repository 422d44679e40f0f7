package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/dispatcher"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/normalizer"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultListLimit = 50

// EventQueue accepts webhook events for background processing
type EventQueue interface {
	Submit(ev normalizer.Event) error
	QueueDepth() int
	Rejected() int64
}

// StatsSource reports dispatcher counters
type StatsSource interface {
	Stats() dispatcher.Stats
}

// Handler handles HTTP requests
type Handler struct {
	appName  string
	queue    EventQueue
	stats    StatsSource
	senders  repository.SenderRepository
	analyses repository.AnalysisRepository
	logger   *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	appName string,
	queue EventQueue,
	stats StatsSource,
	senders repository.SenderRepository,
	analyses repository.AnalysisRepository,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		appName:  appName,
		queue:    queue,
		stats:    stats,
		senders:  senders,
		analyses: analyses,
		logger:   logger,
	}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/webhook", h.Webhook)

	api := r.Group("/api/v1")
	{
		api.GET("/analyses", h.ListAnalyses)
		api.GET("/senders/:phone", h.GetSender)
		api.GET("/stats", h.GetStats)
	}

	// Health check
	r.GET("/", h.HealthCheck)
	r.GET("/health", h.HealthCheck)
}

// Webhook acknowledges an Evolution API event and queues new messages.
// Processing happens off the request path.
func (h *Handler) Webhook(c *gin.Context) {
	var env normalizer.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		h.logger.Warn("Invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	// data of other events may be an array or a string
	if !env.IsMessagesUpsert() {
		h.logger.Debug("Ignoring webhook event", zap.String("event", env.Event))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ev, err := env.Decode()
	if err != nil {
		h.logger.Warn("Invalid messages.upsert payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if !normalizer.IsNewMessage(ev) {
		h.logger.Debug("Ignoring webhook event",
			zap.String("event", ev.Event),
			zap.Bool("from_me", ev.Data.Key.FromMe))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if err := h.queue.Submit(ev); err != nil {
		if errors.Is(err, dispatcher.ErrQueueFull) || errors.Is(err, dispatcher.ErrPoolClosed) {
			h.logger.Warn("Webhook event rejected",
				zap.String("instance", ev.Instance),
				zap.Error(err))
			c.Header("Retry-After", "5")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to queue webhook event", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListAnalyses returns the most recent analyses
func (h *Handler) ListAnalyses(c *gin.Context) {
	limit, ok := h.parseLimit(c)
	if !ok {
		return
	}

	records, err := h.analyses.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list analyses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list analyses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses": records,
		"total":    len(records),
	})
}

// GetSender returns a sender and its recent analyses
func (h *Handler) GetSender(c *gin.Context) {
	limit, ok := h.parseLimit(c)
	if !ok {
		return
	}

	sender, err := h.senders.GetSenderByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		h.logger.Error("Failed to get sender", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get sender"})
		return
	}
	if sender == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sender not found"})
		return
	}

	records, err := h.analyses.ListBySender(c.Request.Context(), sender.ID, limit)
	if err != nil {
		h.logger.Error("Failed to list sender analyses", zap.Int64("sender_id", sender.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list analyses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sender":   sender,
		"analyses": records,
	})
}

// GetStats returns dispatcher counters and queue state
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"dispatcher":  h.stats.Stats(),
		"queue_depth": h.queue.QueueDepth(),
		"rejected":    h.queue.Rejected(),
	})
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "running",
		"app":    h.appName,
	})
}

func (h *Handler) parseLimit(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("limit", strconv.Itoa(defaultListLimit))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	return limit, true
}
