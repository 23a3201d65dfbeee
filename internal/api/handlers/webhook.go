package handlers

import (
	"errors"
	"net/http"

	connector "granito/internal/connectors/shopify"
	"granito/internal/logger"
	"granito/internal/services/shopify"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	connector *connector.ShopifyConnector
	logger    *logger.Logger
}

func NewWebhookHandler(c *connector.ShopifyConnector, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		connector: c,
		logger:    logger,
	}
}

// Shopify handles Shopify webhooks
func (h *WebhookHandler) Shopify(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		writeError(c, BadRequest("no se pudo leer el cuerpo"))
		return
	}

	status, err := h.connector.HandleWebhook(c.Request.Context(), connector.Webhook{
		ID:         c.GetHeader(shopify.HeaderWebhookID),
		Topic:      c.GetHeader(shopify.HeaderTopic),
		ShopDomain: c.GetHeader(shopify.HeaderShopDomain),
		Signature:  c.GetHeader(shopify.HeaderHmac),
		Payload:    payload,
	})
	switch {
	case errors.Is(err, connector.ErrMissingHeaders):
		writeError(c, BadRequest(err.Error()))
		return
	case errors.Is(err, connector.ErrInvalidSignature):
		h.logger.Warn("Rejected webhook %s with an invalid signature", c.GetHeader(shopify.HeaderTopic))
		writeError(c, NewHTTPError(http.StatusUnauthorized, "Firma de webhook inválida", ""))
		return
	case err != nil:
		h.logger.Error("Failed to process webhook: %v", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}
