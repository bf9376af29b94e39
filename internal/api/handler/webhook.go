package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v66/github"
)

const (
	eventHeader     = "X-GitHub-Event"
	signatureHeader = "X-Hub-Signature"

	// maxPayloadBytes bounds webhook bodies; GitHub caps deliveries at 25 MB.
	maxPayloadBytes = 25 << 20
)

// handledEvents are the webhook event kinds the bot acts on. Everything else
// is acknowledged and dropped, which keeps the endpoint forward-compatible
// with new event kinds.
var handledEvents = map[string]bool{
	"issues":        true,
	"issue_comment": true,
	"pull_request":  true,
}

// HandlePayload handles GET/POST /payload.
//
// Deliveries are authenticated with an HMAC over the raw request body before
// anything else is looked at: 400 for missing headers or unparseable JSON,
// 401 when the signature does not verify, 200 for everything recognized or
// deliberately ignored.
func (h *WebhookHandler) HandlePayload(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		c.String(http.StatusBadRequest, "unreadable body")
		return
	}

	sig := c.GetHeader(signatureHeader)
	if sig == "" {
		h.logger.Warn("Webhook delivery without signature header")
		c.String(http.StatusBadRequest, "missing "+signatureHeader+" header")
		return
	}

	// constant-time comparison inside
	if err := github.ValidateSignature(sig, body, h.secret); err != nil {
		h.logger.Warn("Webhook signature verification failed",
			slog.Any("error", err),
		)
		c.String(http.StatusUnauthorized, "signature mismatch")
		return
	}

	if c.Request.Method != http.MethodPost {
		c.String(http.StatusOK, "OK")
		return
	}

	eventType := c.GetHeader(eventHeader)
	if eventType == "" {
		h.logger.Warn("Webhook delivery without event header")
		c.String(http.StatusBadRequest, "missing "+eventHeader+" header")
		return
	}

	if !handledEvents[eventType] {
		h.logger.Debug("Ignoring webhook event",
			slog.String("event", eventType),
		)
		c.String(http.StatusOK, "OK")
		return
	}

	event, err := github.ParseWebHook(eventType, body)
	if err != nil {
		h.logger.Warn("Failed to parse webhook payload",
			slog.String("event", eventType),
			slog.Any("error", err),
		)
		c.String(http.StatusBadRequest, "bad payload")
		return
	}

	h.logger.Info("Handling webhook delivery",
		slog.String("event", eventType),
	)

	// Handler failures are logged, not propagated: the delivery itself was
	// valid, and GitHub should not redeliver it.
	if err := h.events.HandleEvent(c.Request.Context(), event); err != nil {
		h.logger.Error("Event handler failed",
			slog.String("event", eventType),
			slog.Any("error", err),
		)
	}

	c.String(http.StatusOK, "OK")
}
