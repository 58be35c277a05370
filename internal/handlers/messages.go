package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"board-service/internal/clientip"
	"board-service/internal/device"
	"board-service/internal/geoip"
	"board-service/internal/location"
	"board-service/internal/models"
	"board-service/internal/observability"
	"board-service/internal/repositories"
	"board-service/internal/telemetry"
)

const maxMessageLength = 1000

// recentMessagesLimit caps the debug listing.
const recentMessagesLimit = 50

// Responses returned verbatim to the form page.
const (
	errInvalidPayload = "Invalid request payload"
	errEmptyMessage   = "Message cannot be empty"
	errMessageTooLong = "Message too long (max 1000 characters)"
	errSubmitFailed   = "Failed to submit message"
	msgSubmitted      = "Message submitted successfully"
)

// MessageHandler manages the submission endpoints.
type MessageHandler struct {
	messageRepo repositories.MessageRepository
	geoClient   geoip.Client
	emitter     *telemetry.EventEmitter
	logger      *zap.Logger
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messageRepo repositories.MessageRepository, geoClient geoip.Client, emitter *telemetry.EventEmitter, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{
		messageRepo: messageRepo,
		geoClient:   geoClient,
		emitter:     emitter,
		logger:      logger,
	}
}

// SubmitMessage validates a submission, enriches it with location and device
// metadata and stores it. Enrichment is best-effort: a failed lookup never
// rejects the message.
func (h *MessageHandler) SubmitMessage(c *gin.Context) {
	var req models.SubmitMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		observability.IncSubmissionRejected("invalid_payload")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errInvalidPayload})
		return
	}

	trimmed := strings.TrimSpace(req.Message)
	if trimmed == "" {
		observability.IncSubmissionRejected("empty")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errEmptyMessage})
		return
	}
	// The length limit applies to the message as received, before trimming.
	if utf8.RuneCountInString(req.Message) > maxMessageLength {
		observability.IncSubmissionRejected("too_long")
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": errMessageTooLong})
		return
	}

	ctx := c.Request.Context()

	ipAddress := clientip.FromRequest(c.Request)
	ipLoc := h.geoClient.Lookup(ctx, ipAddress)
	reconciled := location.Reconcile(ipLoc, req.GPSLatitude, req.GPSLongitude, req.BrowserTimezone)

	userAgent := c.Request.UserAgent()
	if userAgent == "" && req.Device != nil {
		userAgent = req.Device.UserAgent
	}
	deviceInfo := device.Classify(userAgent, req.Device)

	msg := models.Message{
		Content:   trimmed,
		IPAddress: ipAddress,
		Location: &models.LocationInfo{
			Country:         ipLoc.Country,
			City:            ipLoc.City,
			Region:          ipLoc.Region,
			Timezone:        ipLoc.Timezone,
			GPSLatitude:     req.GPSLatitude,
			GPSLongitude:    req.GPSLongitude,
			GPSAccuracy:     req.GPSAccuracy,
			BrowserTimezone: req.BrowserTimezone,
			BrowserLanguage: req.BrowserLanguage,
			FinalCountry:    reconciled.Country,
			FinalCity:       reconciled.City,
			Source:          reconciled.Source,
		},
		DeviceInfo: &deviceInfo,
	}

	created, err := h.messageRepo.CreateMessage(ctx, msg)
	if err != nil {
		h.logger.Error("failed to store message",
			zap.String("request_id", requestIDFromContext(c)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": errSubmitFailed})
		return
	}

	observability.IncMessageCreated()
	h.emitter.EmitMessageCreated(ctx, requestIDFromContext(c), telemetry.MessageCreatedPayload{
		MessageID:       created.ID,
		IPAddress:       created.IPAddress,
		Country:         reconciled.Country,
		City:            reconciled.City,
		LocationSource:  reconciled.Source,
		DeviceType:      deviceInfo.DeviceType,
		OperatingSystem: deviceInfo.OperatingSystem,
		Browser:         deviceInfo.Browser,
		ContentLength:   utf8.RuneCountInString(created.Content),
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msgSubmitted,
		"location": gin.H{
			"city":    reconciled.City,
			"country": reconciled.Country,
			"source":  reconciled.Source,
		},
		"device": gin.H{
			"type":    deviceInfo.DeviceType,
			"brand":   deviceInfo.DeviceBrand,
			"model":   deviceInfo.DeviceModel,
			"os":      deviceInfo.OperatingSystem,
			"browser": deviceInfo.Browser,
		},
	})
}

// Stats returns the total number of stored messages.
func (h *MessageHandler) Stats(c *gin.Context) {
	count, err := h.messageRepo.CountMessages(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to count messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"totalMessages": count})
}

// ListMessages returns the newest stored messages as-is, enrichment
// included. Exposed only through the debug routes.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	msgs, err := h.messageRepo.ListRecent(c.Request.Context(), recentMessagesLimit)
	if err != nil {
		h.logger.Error("failed to load messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, msgs)
}
