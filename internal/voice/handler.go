package voice

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"cxtrack-voice/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookHandler converts the provider webhook to internal types, delegates
// to the ingestion service, and writes the acknowledgement JSON.
//
// No business logic here.
//
// Trust boundary: the endpoint performs no signature verification of the
// provider. Trust is implicit in network configuration; this is a known
// hardening gap and must not be silently changed without coordinating the
// provider-side secret.
type WebhookHandler struct {
	Ingestor *Service
}

func (h WebhookHandler) HandleCallEvent(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Ingestor == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ingestor not configured"})
		return
	}
	if c.Request.Method != http.MethodPost {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		log.Warn("webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	res, err := h.Ingestor.Ingest(c.Request.Context(), ev)
	switch {
	case errors.Is(err, ErrAgentNotLinked):
		// Cause is logged for operators, not echoed to the provider.
		log.Warn("agent resolution failed", "event", ev.Event, "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Agent not linked to any user"})
	case err != nil:
		log.Error("call record insert failed", "event", ev.Event, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Insert failed"})
	case res.Skipped:
		// Intentionally a 200: intermediate events are not actionable and
		// must not look like failures to the provider's delivery loop.
		c.JSON(http.StatusOK, gin.H{"error": "Invalid event or missing call data. Event type: " + ev.Event})
	case res.Duplicate:
		log.Info("duplicate delivery acked", "provider_call_id", ev.Call.CallID)
		c.JSON(http.StatusOK, gin.H{"success": true})
	default:
		log.Info("call record ingested",
			"call_record_id", res.Record.ID,
			"user_id", res.Record.UserID,
			"provider_call_id", res.Record.ProviderCallID,
		)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// MethodNotAllowed is registered as the router NoMethod handler so that
// non-POST hits on the webhook path get the same body the handler produces.
func MethodNotAllowed(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}
