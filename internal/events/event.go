package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"granito/internal/models"
)

// Event is one Shopify webhook delivery as it travels through Kafka.
type Event struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	ShopDomain string          `json:"shop_domain"`
	Payload    json.RawMessage `json:"payload"`
	ReceivedAt time.Time       `json:"received_at"`
}

type Operation string

const (
	OperationUpsert Operation = "upsert"
	OperationDelete Operation = "delete"
)

var topicKinds = map[string]models.EntityKind{
	"products":    models.KindProduct,
	"orders":      models.KindOrder,
	"collections": models.KindCollection,
}

// ParseTopic maps a webhook topic such as "products/update" onto the mirrored
// kind and the operation it implies.
func ParseTopic(topic string) (models.EntityKind, Operation, error) {
	resource, action, ok := strings.Cut(strings.ToLower(strings.TrimSpace(topic)), "/")
	if !ok {
		return "", "", fmt.Errorf("malformed webhook topic %q", topic)
	}
	kind, ok := topicKinds[resource]
	if !ok {
		return "", "", fmt.Errorf("unsupported webhook topic %q", topic)
	}
	switch action {
	case "create", "update", "updated", "paid", "fulfilled", "cancelled":
		return kind, OperationUpsert, nil
	case "delete":
		return kind, OperationDelete, nil
	}
	return "", "", fmt.Errorf("unsupported webhook topic %q", topic)
}

// Decode parses the payload keeping numbers exact so large Shopify ids survive.
func (e Event) Decode() (map[string]interface{}, error) {
	var payload map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(e.Payload))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse %s payload: %w", e.Topic, err)
	}
	return payload, nil
}
