package validation

import (
	"errors"
	"fmt"

	"granito/internal/events"
	"granito/internal/logger"
	"granito/internal/models"
)

var ErrInvalidEvent = errors.New("invalid webhook event")

// Validator rejects webhook events the processor cannot act on before they
// reach the store.
type Validator struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Validator {
	return &Validator{
		logger: logger,
	}
}

// ValidateEvent checks the topic and that the payload is an object carrying
// an id. It returns the decoded payload together with the resolved kind and
// operation.
func (v *Validator) ValidateEvent(event events.Event) (models.EntityKind, events.Operation, map[string]interface{}, error) {
	kind, op, err := events.ParseTopic(event.Topic)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if len(event.Payload) == 0 {
		return "", "", nil, fmt.Errorf("%w: %s has an empty payload", ErrInvalidEvent, event.Topic)
	}

	payload, err := event.Decode()
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if payload["id"] == nil && payload["admin_graphql_api_id"] == nil {
		return "", "", nil, fmt.Errorf("%w: %s payload has no id", ErrInvalidEvent, event.Topic)
	}

	v.logger.Debug("Validated %s event %s", event.Topic, event.ID)
	return kind, op, payload, nil
}
