package events

import (
	"encoding/json"
	"testing"

	"granito/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTopic(t *testing.T) {
	tests := []struct {
		topic string
		kind  models.EntityKind
		op    Operation
	}{
		{"products/create", models.KindProduct, OperationUpsert},
		{"products/update", models.KindProduct, OperationUpsert},
		{"orders/updated", models.KindOrder, OperationUpsert},
		{"orders/paid", models.KindOrder, OperationUpsert},
		{"collections/delete", models.KindCollection, OperationDelete},
		{" Products/Delete ", models.KindProduct, OperationDelete},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			kind, op, err := ParseTopic(tt.topic)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.op, op)
		})
	}

	for _, topic := range []string{"", "products", "customers/create", "products/archive"} {
		_, _, err := ParseTopic(topic)
		assert.Error(t, err, topic)
	}
}

func TestEventDecodeKeepsLargeIDs(t *testing.T) {
	event := Event{Topic: "orders/create", Payload: json.RawMessage(`{"id": 9007199254740993}`)}

	payload, err := event.Decode()
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), payload["id"])

	_, err = Event{Topic: "orders/create", Payload: json.RawMessage(`not json`)}.Decode()
	assert.Error(t, err)
}
