package shopify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"granito/internal/config"
	"granito/internal/events"
	"granito/internal/logger"
	shopifyapi "granito/internal/services/shopify"
	"granito/internal/worker/processors"
	"granito/internal/worker/processors/validation"

	"github.com/google/uuid"
)

var (
	ErrMissingHeaders   = errors.New("missing required webhook headers")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Delivery statuses reported back to the HTTP handler.
const (
	DeliveryQueued    = "queued"
	DeliveryProcessed = "processed"
	DeliveryIgnored   = "ignored"
)

// Webhook is one incoming Shopify webhook request.
type Webhook struct {
	ID         string
	Topic      string
	ShopDomain string
	Signature  string
	Payload    []byte
}

// ShopifyConnector verifies webhooks and hands them to Kafka, or reconciles
// them inline when no broker is configured.
type ShopifyConnector struct {
	config    *config.Config
	logger    *logger.Logger
	publisher events.Publisher
	processor *processors.EventProcessor
}

// New builds the connector. publisher may be nil, in which case processor
// must not be.
func New(cfg *config.Config, logger *logger.Logger, publisher events.Publisher, processor *processors.EventProcessor) *ShopifyConnector {
	return &ShopifyConnector{
		config:    cfg,
		logger:    logger,
		publisher: publisher,
		processor: processor,
	}
}

func (sc *ShopifyConnector) HandleWebhook(ctx context.Context, hook Webhook) (string, error) {
	if hook.Topic == "" || hook.ShopDomain == "" {
		return "", ErrMissingHeaders
	}

	// Signatures are only optional in development without a configured secret.
	if sc.config.ShopifyWebhookSecret != "" || sc.config.Env == "production" {
		if !shopifyapi.ValidateWebhook(hook.Payload, hook.Signature, sc.config.ShopifyWebhookSecret) {
			return "", ErrInvalidSignature
		}
	}

	if _, _, err := events.ParseTopic(hook.Topic); err != nil {
		sc.logger.Debug("Unhandled webhook topic: %s", hook.Topic)
		return DeliveryIgnored, nil
	}

	id := hook.ID
	if id == "" {
		id = uuid.New().String()
	}
	event := events.Event{
		ID:         id,
		Topic:      hook.Topic,
		ShopDomain: hook.ShopDomain,
		Payload:    hook.Payload,
		ReceivedAt: time.Now().UTC(),
	}

	if sc.publisher != nil {
		if err := sc.publisher.Publish(ctx, event); err != nil {
			return "", err
		}
		sc.logger.Debug("Queued Shopify webhook %s (%s)", event.ID, event.Topic)
		return DeliveryQueued, nil
	}

	if err := sc.processor.Process(ctx, event); err != nil {
		// Shopify retries every non-2xx answer; a payload that cannot be
		// processed never will be, so it is acknowledged and dropped.
		if errors.Is(err, validation.ErrInvalidEvent) {
			sc.logger.Warn("Dropping webhook %s (%s): %v", event.ID, event.Topic, err)
			return DeliveryIgnored, nil
		}
		return "", fmt.Errorf("failed to process webhook %s: %w", event.Topic, err)
	}
	return DeliveryProcessed, nil
}
