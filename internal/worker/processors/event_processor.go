package processors

import (
	"context"
	"fmt"

	"granito/internal/events"
	"granito/internal/logger"
	"granito/internal/models"
	"granito/internal/services/shopify"
	"granito/internal/services/syncer"
	"granito/internal/worker/processors/validation"
)

// Syncer is the part of the sync orchestrator webhook events drive.
type Syncer interface {
	SyncBatch(ctx context.Context, kind models.EntityKind, entities []interface{}) (*syncer.BatchResult, error)
	Remove(ctx context.Context, kind models.EntityKind, id string) (bool, error)
}

type EventProcessor struct {
	syncer    Syncer
	logger    *logger.Logger
	validator *validation.Validator
}

func NewEventProcessor(s Syncer, logger *logger.Logger) *EventProcessor {
	return &EventProcessor{
		syncer:    s,
		logger:    logger,
		validator: validation.New(logger),
	}
}

// Process reconciles one webhook event: create/update topics run a batch of
// one, delete topics remove the mirrored row.
func (ep *EventProcessor) Process(ctx context.Context, event events.Event) error {
	kind, op, payload, err := ep.validator.ValidateEvent(event)
	if err != nil {
		return err
	}
	log := ep.logger.With(map[string]interface{}{"event_id": event.ID, "topic": event.Topic})

	if op == events.OperationDelete {
		raw := payload["id"]
		if raw == nil {
			raw = payload["admin_graphql_api_id"]
		}
		id, err := shopify.ExtractRemoteID(raw)
		if err != nil {
			return fmt.Errorf("%w: failed to read id of %s: %v", validation.ErrInvalidEvent, event.Topic, err)
		}
		deleted, err := ep.syncer.Remove(ctx, kind, id)
		if err != nil {
			return err
		}
		log.Info("Processed %s for %s (deleted=%t)", event.Topic, id, deleted)
		return nil
	}

	result, err := ep.syncer.SyncBatch(ctx, kind, []interface{}{payload})
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		outcome := result.Details[0]
		if outcome.Stage == syncer.StageMapping {
			return fmt.Errorf("%w: %s cannot be mapped: %s", validation.ErrInvalidEvent, event.Topic, outcome.Error)
		}
		return fmt.Errorf("failed to sync %s: %s", event.Topic, outcome.Error)
	}
	log.Info("Processed %s (batch %s)", event.Topic, result.BatchID)
	return nil
}
