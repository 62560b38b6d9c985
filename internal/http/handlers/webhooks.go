package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SHIS22proxy/paygate/internal/metrics"
	"github.com/SHIS22proxy/paygate/internal/modules/gateways"
	"github.com/SHIS22proxy/paygate/internal/modules/orders"
	"github.com/SHIS22proxy/paygate/internal/modules/webhooks"
)

// MaxWebhookBody caps inbound webhook payloads. Gateways send small JSON
// documents; anything above this is noise or abuse.
const MaxWebhookBody = 1 << 20

type WebhookHandler struct {
	Logger   *slog.Logger
	Registry *gateways.Registry
	Engine   *webhooks.Service
}

func NewWebhookHandler(logger *slog.Logger, reg *gateways.Registry, engine *webhooks.Service) *WebhookHandler {
	return &WebhookHandler{Logger: logger, Registry: reg, Engine: engine}
}

// Handle is POST /webhooks/:gateway. Signature verification runs over the raw
// body bytes, so nothing may consume or re-encode the request body before it.
func (h *WebhookHandler) Handle(c *gin.Context) {
	gw, ok := h.Registry.Lookup(c.Param("gateway"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "unknown gateway"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxWebhookBody)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	ev, err := gw.VerifyAndParse(c.Request.Header, body)
	if err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues(gw.Name(), "invalid_signature").Inc()
		h.Logger.WarnContext(c.Request.Context(), "webhook verification failed",
			"gateway", gw.Name(),
			"err", err,
		)
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid signature or payload"})
		return
	}

	res, err := h.Engine.Handle(c.Request.Context(), gw.Name(), ev, body)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			// The gateway knows an order we do not. Retrying cannot fix
			// that, so answer 4xx to stop the redelivery loop.
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown order"})
			return
		}
		// Transient store failure. 5xx makes the gateway redeliver.
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		return
	}

	if res.Outcome == webhooks.OutcomeRejected {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "outcome": res.Outcome, "reason": res.Reason})
		return
	}
	out := gin.H{"ok": true, "outcome": res.Outcome}
	if res.Duplicate {
		out["duplicate"] = true
	}
	c.JSON(http.StatusOK, out)
}
