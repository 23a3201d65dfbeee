package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"granito/internal/logger"
	"granito/internal/models"
	"granito/internal/repositories"
	"granito/internal/services/shopify"

	"github.com/google/uuid"
)

// RemoteSource is the part of the Shopify client the orchestrator needs.
type RemoteSource interface {
	List(ctx context.Context, kind models.EntityKind, limit int) ([]shopify.RemoteEntity, error)
	Get(ctx context.Context, kind models.EntityKind, id string) (shopify.RemoteEntity, error)
}

const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionError  = "error"

	StageMapping = "mapping"
	StageStore   = "store"
)

const (
	BatchCompleted = "completed"
	BatchError     = "error"
)

// Single-entity sync statuses.
const (
	StatusSaved          = "saved"
	StatusPartialSuccess = "partialSuccess"
	StatusMappingError   = "mappingError"
)

// BatchResult summarises one orchestrator run. Created + Updated + Failed
// always equals Total.
type BatchResult struct {
	BatchID string            `json:"lote"`
	Kind    models.EntityKind `json:"tipo"`
	Status  string            `json:"estado"`
	Created int               `json:"insertados"`
	Updated int               `json:"actualizados"`
	Failed  int               `json:"errores"`
	Total   int               `json:"total"`
	Stored  int64             `json:"registrados"`
	Details []EntityOutcome   `json:"detalles"`
}

type EntityOutcome struct {
	RemoteID string `json:"shopify_id"`
	Action   string `json:"accion"`
	Stage    string `json:"etapa,omitempty"`
	Error    string `json:"error,omitempty"`
	// Row is the mapped row, or the fallback row when mapping failed.
	Row models.Row `json:"fallback,omitempty"`
}

// EntityResult is the outcome of syncing one entity fetched by id.
type EntityResult struct {
	Status  string       `json:"status"`
	Data    interface{}  `json:"data"`
	DBError string       `json:"db_error,omitempty"`
	Error   string       `json:"error,omitempty"`
	Batch   *BatchResult `json:"resultado"`
}

type Service struct {
	remote RemoteSource
	store  repositories.EntityRepository
	audit  *AuditLogger
	mapper *shopify.Transformer
	logger *logger.Logger
	now    func() time.Time
}

// NewService wires the orchestrator. remote may be nil when Shopify is not
// configured; only batch sync of pushed payloads is available then.
func NewService(remote RemoteSource, store repositories.EntityRepository, audit *AuditLogger, logger *logger.Logger) *Service {
	return &Service{
		remote: remote,
		store:  store,
		audit:  audit,
		mapper: shopify.NewTransformer(),
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source used for updated_at and derived fields.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	s.mapper = shopify.NewTransformerWithClock(now)
	return s
}

// SyncBatch reconciles entities into the mirror table of kind, one at a time
// in input order. A failing entity never aborts the batch.
func (s *Service) SyncBatch(ctx context.Context, kind models.EntityKind, entities []interface{}) (*BatchResult, error) {
	return s.syncBatch(ctx, uuid.New().String(), kind, entities)
}

func (s *Service) syncBatch(ctx context.Context, batchID string, kind models.EntityKind, entities []interface{}) (*BatchResult, error) {
	if kind.Table() == "" {
		return nil, fmt.Errorf("%w: %q", repositories.ErrUnknownKind, kind)
	}

	result := &BatchResult{
		BatchID: batchID,
		Kind:    kind,
		Status:  BatchCompleted,
		Total:   len(entities),
		Details: make([]EntityOutcome, 0, len(entities)),
	}
	log := s.logger.With(map[string]interface{}{"batch_id": result.BatchID, "kind": kind})
	log.Info("Syncing %d %s entities", len(entities), kind)

	for _, raw := range entities {
		outcome := s.syncEntity(ctx, kind, raw)
		switch outcome.Action {
		case ActionInsert:
			result.Created++
		case ActionUpdate:
			result.Updated++
		default:
			result.Failed++
			s.audit.EntityError(ctx, result.BatchID, kind, outcome.RemoteID, outcome.Error, map[string]interface{}{
				"stage": outcome.Stage,
				"row":   outcome.Row,
			})
			log.Warn("Entity %q failed at %s: %s", outcome.RemoteID, outcome.Stage, outcome.Error)
		}
		result.Details = append(result.Details, outcome)
	}

	if ctx.Err() != nil {
		result.Status = BatchError
	}

	stored, err := s.store.Count(context.WithoutCancel(ctx), kind)
	if err != nil {
		log.Warn("Failed to count stored %s rows: %v", kind, err)
	}
	result.Stored = stored

	outcome := models.AuditOutcomeCompleted
	if result.Status == BatchError {
		outcome = models.AuditOutcomeError
	}
	s.audit.Record(ctx, &models.SyncAuditRecord{
		BatchID:    result.BatchID,
		EntityKind: kind,
		Action:     models.AuditActionSync,
		Outcome:    outcome,
		Message: fmt.Sprintf("%d insertados, %d actualizados, %d errores de %d",
			result.Created, result.Updated, result.Failed, result.Total),
		Detail: toJSON(map[string]interface{}{
			"created": result.Created,
			"updated": result.Updated,
			"failed":  result.Failed,
			"total":   result.Total,
			"stored":  result.Stored,
		}),
	})

	log.Info("Sync finished: %d created, %d updated, %d failed of %d",
		result.Created, result.Updated, result.Failed, result.Total)
	return result, nil
}

func (s *Service) syncEntity(ctx context.Context, kind models.EntityKind, raw interface{}) EntityOutcome {
	row, err := s.mapper.Transform(kind, raw)
	outcome := EntityOutcome{RemoteID: row.RemoteID(), Row: row}

	if ctxErr := ctx.Err(); ctxErr != nil {
		outcome.Action = ActionError
		outcome.Stage = StageStore
		outcome.Error = ctxErr.Error()
		return outcome
	}
	if err != nil {
		outcome.Action = ActionError
		outcome.Stage = StageMapping
		outcome.Error = err.Error()
		return outcome
	}

	created, err := s.store.Upsert(ctx, kind, row, s.now())
	if err != nil {
		outcome.Action = ActionError
		outcome.Stage = StageStore
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Row = nil
	if created {
		outcome.Action = ActionInsert
	} else {
		outcome.Action = ActionUpdate
	}
	return outcome
}

// SyncRemote fetches up to limit entities of kind from Shopify and reconciles
// them. A fetch failure aborts before any write. The query records and the
// batch record share one batch id.
func (s *Service) SyncRemote(ctx context.Context, kind models.EntityKind, limit int) (*BatchResult, error) {
	if s.remote == nil {
		return nil, shopify.ErrNotConfigured
	}
	if kind.Table() == "" {
		return nil, fmt.Errorf("%w: %q", repositories.ErrUnknownKind, kind)
	}

	batchID := uuid.New().String()
	s.recordQueryStarted(ctx, batchID, kind, "", fmt.Sprintf("limit=%d", limit))
	entities, err := s.remote.List(ctx, kind, limit)
	if err != nil {
		s.recordFetchError(ctx, batchID, kind, "", err)
		return nil, fmt.Errorf("failed to fetch %s from shopify: %w", kind, err)
	}

	batch := make([]interface{}, 0, len(entities))
	for _, entity := range entities {
		batch = append(batch, entity)
	}
	return s.syncBatch(ctx, batchID, kind, batch)
}

// SyncRemoteOne fetches one entity and reconciles it as a batch of one.
func (s *Service) SyncRemoteOne(ctx context.Context, kind models.EntityKind, id string) (*EntityResult, error) {
	if s.remote == nil {
		return nil, shopify.ErrNotConfigured
	}
	if kind.Table() == "" {
		return nil, fmt.Errorf("%w: %q", repositories.ErrUnknownKind, kind)
	}

	batchID := uuid.New().String()
	s.recordQueryStarted(ctx, batchID, kind, id, "")
	entity, err := s.remote.Get(ctx, kind, id)
	if err != nil {
		s.recordFetchError(ctx, batchID, kind, id, err)
		return nil, fmt.Errorf("failed to fetch %s %s from shopify: %w", kind, id, err)
	}

	batch, err := s.syncBatch(ctx, batchID, kind, []interface{}{entity})
	if err != nil {
		return nil, err
	}
	outcome := batch.Details[0]

	switch {
	case outcome.Action != ActionError:
	case outcome.Stage == StageMapping:
		return &EntityResult{Status: StatusMappingError, Data: outcome.Row, Error: outcome.Error, Batch: batch}, nil
	default:
		return &EntityResult{Status: StatusPartialSuccess, Data: outcome.Row, DBError: outcome.Error, Batch: batch}, nil
	}

	s.audit.EntitySaved(ctx, batchID, kind, outcome.RemoteID, outcome.Action == ActionInsert)

	saved, err := s.store.FindByRemoteID(ctx, kind, outcome.RemoteID)
	if err != nil {
		s.logger.Warn("Failed to read back %s %s: %v", kind, outcome.RemoteID, err)
		return &EntityResult{Status: StatusSaved, Batch: batch}, nil
	}
	return &EntityResult{Status: StatusSaved, Data: saved, Batch: batch}, nil
}

// Remove deletes the mirrored row of a remote entity. It reports whether a
// row existed.
func (s *Service) Remove(ctx context.Context, kind models.EntityKind, id string) (bool, error) {
	remoteID, err := shopify.ExtractRemoteID(id)
	if err != nil {
		return false, err
	}

	deleted, err := s.store.DeleteByRemoteID(ctx, kind, remoteID)
	record := &models.SyncAuditRecord{
		BatchID:        uuid.New().String(),
		EntityKind:     kind,
		EntityRemoteID: &remoteID,
		Action:         models.AuditActionDelete,
		Outcome:        models.AuditOutcomeCompleted,
	}
	switch {
	case err != nil:
		record.Outcome = models.AuditOutcomeError
		record.Message = err.Error()
	case deleted:
		record.Message = fmt.Sprintf("%s %s eliminado", kind.Label(), remoteID)
	default:
		record.Message = fmt.Sprintf("%s %s no existía", kind.Label(), remoteID)
	}
	s.audit.Record(ctx, record)

	if err != nil {
		return false, fmt.Errorf("failed to delete %s %s: %w", kind, remoteID, err)
	}
	return deleted, nil
}

func (s *Service) recordQueryStarted(ctx context.Context, batchID string, kind models.EntityKind, id, message string) {
	var remoteID *string
	if id != "" {
		remoteID = &id
	}
	s.audit.Record(ctx, &models.SyncAuditRecord{
		BatchID:        batchID,
		EntityKind:     kind,
		EntityRemoteID: remoteID,
		Action:         models.AuditActionQuery,
		Outcome:        models.AuditOutcomeStarted,
		Message:        strings.TrimSpace(fmt.Sprintf("Shopify request for %s %s", kind, message)),
	})
}

func (s *Service) recordFetchError(ctx context.Context, batchID string, kind models.EntityKind, id string, err error) {
	var remoteID *string
	if id != "" {
		remoteID = &id
	}
	detail := map[string]interface{}{"error": err.Error()}
	var apiErr *shopify.APIError
	if errors.As(err, &apiErr) {
		detail["status_code"] = apiErr.StatusCode
	}
	s.audit.Record(ctx, &models.SyncAuditRecord{
		BatchID:        batchID,
		EntityKind:     kind,
		EntityRemoteID: remoteID,
		Action:         models.AuditActionQuery,
		Outcome:        models.AuditOutcomeError,
		Message:        fmt.Sprintf("Shopify request for %s failed", kind),
		Detail:         toJSON(detail),
	})
}
