package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"granito/internal/logger"
	"granito/internal/models"
	"granito/internal/repositories"

	"gorm.io/datatypes"
)

// AuditLogger appends sync audit records. Write failures are logged and
// never reach the caller.
type AuditLogger struct {
	repo   repositories.AuditRepository
	logger *logger.Logger
}

func NewAuditLogger(repo repositories.AuditRepository, logger *logger.Logger) *AuditLogger {
	return &AuditLogger{repo: repo, logger: logger}
}

// Record writes one record on a context detached from the caller's
// cancellation, so a timed-out request still leaves its trail.
func (a *AuditLogger) Record(ctx context.Context, record *models.SyncAuditRecord) {
	if err := a.repo.Append(context.WithoutCancel(ctx), record); err != nil {
		a.logger.With(map[string]interface{}{
			"batch_id": record.BatchID,
			"kind":     record.EntityKind,
			"action":   record.Action,
		}).Error("Failed to write sync audit record: %v", err)
	}
}

// EntityError records a failure for one entity of a batch.
func (a *AuditLogger) EntityError(ctx context.Context, batchID string, kind models.EntityKind, remoteID, message string, detail interface{}) {
	var id *string
	if remoteID != "" {
		id = &remoteID
	}
	a.Record(ctx, &models.SyncAuditRecord{
		BatchID:        batchID,
		EntityKind:     kind,
		EntityRemoteID: id,
		Action:         models.AuditActionError,
		Outcome:        models.AuditOutcomeError,
		Message:        message,
		Detail:         toJSON(detail),
	})
}

// EntitySaved records the write of one entity synced on its own.
func (a *AuditLogger) EntitySaved(ctx context.Context, batchID string, kind models.EntityKind, remoteID string, created bool) {
	action, verb := models.AuditActionUpdate, "actualizado"
	if created {
		action, verb = models.AuditActionInsert, "creado"
	}
	a.Record(ctx, &models.SyncAuditRecord{
		BatchID:        batchID,
		EntityKind:     kind,
		EntityRemoteID: &remoteID,
		Action:         action,
		Outcome:        models.AuditOutcomeCompleted,
		Message:        fmt.Sprintf("%s %s %s", kind.Label(), remoteID, verb),
	})
}

func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
