package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/printrelay/printrelay/internal/ingress"
	"github.com/printrelay/printrelay/internal/message"
)

// SubmitRequest mirrors the wire payload the submission page posts. Image
// bytes arrive base64-encoded and decode straight into []byte.
type SubmitRequest struct {
	Title string `json:"title"`
	Image []byte `json:"img"`
	Body  string `json:"msg"`
}

type SubmitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

// Publisher hands an accepted message to the relay channel.
type Publisher interface {
	Publish(ctx context.Context, m *message.Message) error
}

// Counter answers the best-effort status count; may be nil when the store is
// not reachable from this process.
type Counter interface {
	Count() int64
}

type Handler struct {
	publisher Publisher
	counter   Counter
	log       zerolog.Logger
}

func NewHandler(publisher Publisher, counter Counter, logger zerolog.Logger) *Handler {
	return &Handler{
		publisher: publisher,
		counter:   counter,
		log:       logger,
	}
}

// SubmitMessage validates a submission and publishes it. The submitter only
// ever observes validation failures synchronously; everything past acceptance
// is asynchronous and best-effort.
func (h *Handler) SubmitMessage(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := ingress.Validate(ingress.Submission{
		Title:      req.Title,
		Image:      req.Image,
		Body:       req.Body,
		RemoteAddr: c.ClientIP(),
	})
	if err != nil {
		var verr *ingress.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"kind":  string(verr.Kind),
				"error": verr.Detail,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}

	if err := h.publisher.Publish(c.Request.Context(), m); err != nil {
		h.log.Error().Err(err).Str("id", m.ID).Msg("failed to publish message")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "relay unavailable"})
		return
	}

	h.log.Info().Str("id", m.ID).Str("title", m.Title).Str("source", m.SourceAddr).
		Msg("message accepted")

	c.JSON(http.StatusAccepted, SubmitResponse{ID: m.ID, Status: "accepted"})
}

// GetCount always succeeds; a missing or failing store reads as zero.
func (h *Handler) GetCount(c *gin.Context) {
	var count int64
	if h.counter != nil {
		count = h.counter.Count()
	}
	c.JSON(http.StatusOK, CountResponse{Count: count})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
