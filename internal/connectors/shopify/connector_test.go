package shopify

import (
	"context"
	"testing"

	"granito/internal/config"
	"granito/internal/database/dbtest"
	"granito/internal/events"
	"granito/internal/logger"
	"granito/internal/models"
	"granito/internal/repositories"
	shopifyapi "granito/internal/services/shopify"
	"granito/internal/services/syncer"
	"granito/internal/worker/processors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func inlineConnector(t *testing.T, cfg *config.Config) (*ShopifyConnector, repositories.EntityRepository) {
	t.Helper()
	db := dbtest.New(t)
	store := repositories.NewEntityRepository(db.DB)
	audit := syncer.NewAuditLogger(repositories.NewAuditRepository(db.DB), logger.Discard())
	processor := processors.NewEventProcessor(syncer.NewService(nil, store, audit, logger.Discard()), logger.Discard())
	return New(cfg, logger.Discard(), nil, processor), store
}

func TestHandleWebhookInline(t *testing.T) {
	cfg := &config.Config{ShopifyWebhookSecret: "secret"}
	connector, store := inlineConnector(t, cfg)
	payload := []byte(`{"id": 632910392, "title": "Deck A"}`)

	status, err := connector.HandleWebhook(context.Background(), Webhook{
		Topic:      "products/create",
		ShopDomain: "granito.myshopify.com",
		Signature:  shopifyapi.SignWebhook(payload, "secret"),
		Payload:    payload,
	})
	require.NoError(t, err)
	assert.Equal(t, DeliveryProcessed, status)

	_, err = store.FindByRemoteID(context.Background(), models.KindProduct, "632910392")
	require.NoError(t, err)
}

func TestHandleWebhookIgnoresUnprocessablePayload(t *testing.T) {
	connector, store := inlineConnector(t, &config.Config{ShopifyWebhookSecret: "secret"})

	for _, payload := range [][]byte{
		[]byte(`{"title": "No id"}`),
		[]byte(`{"id": 1, "total_price": "n/a"}`),
	} {
		status, err := connector.HandleWebhook(context.Background(), Webhook{
			Topic:      "orders/create",
			ShopDomain: "granito.myshopify.com",
			Signature:  shopifyapi.SignWebhook(payload, "secret"),
			Payload:    payload,
		})
		require.NoError(t, err, string(payload))
		assert.Equal(t, DeliveryIgnored, status, string(payload))
	}

	count, err := store.Count(context.Background(), models.KindOrder)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	connector, _ := inlineConnector(t, &config.Config{ShopifyWebhookSecret: "secret"})

	_, err := connector.HandleWebhook(context.Background(), Webhook{
		Topic:      "products/create",
		ShopDomain: "granito.myshopify.com",
		Signature:  shopifyapi.SignWebhook([]byte(`{}`), "other"),
		Payload:    []byte(`{"id": 1}`),
	})
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = connector.HandleWebhook(context.Background(), Webhook{Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrMissingHeaders)
}

func TestHandleWebhookPublishes(t *testing.T) {
	publisher := &recordingPublisher{}
	connector := New(&config.Config{Env: "development"}, logger.Discard(), publisher, nil)

	status, err := connector.HandleWebhook(context.Background(), Webhook{
		ID:         "b54557e4",
		Topic:      "orders/updated",
		ShopDomain: "granito.myshopify.com",
		Payload:    []byte(`{"id": 450789469}`),
	})
	require.NoError(t, err)
	assert.Equal(t, DeliveryQueued, status)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "b54557e4", publisher.events[0].ID)

	status, err = connector.HandleWebhook(context.Background(), Webhook{
		Topic:      "customers/create",
		ShopDomain: "granito.myshopify.com",
		Payload:    []byte(`{"id": 1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, DeliveryIgnored, status)
	assert.Len(t, publisher.events, 1)
}
