package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SyncAuditRecord is one append-only row of the synchronization audit trail.
// EntityRemoteID is nil for batch-level records.
type SyncAuditRecord struct {
	ID             string         `json:"id" gorm:"type:uuid;primaryKey"`
	BatchID        string         `json:"batch_id" gorm:"index"`
	EntityKind     EntityKind     `json:"entity_kind" gorm:"index;not null"`
	EntityRemoteID *string        `json:"entity_remote_id"`
	Action         AuditAction    `json:"action" gorm:"not null"`
	Outcome        AuditOutcome   `json:"outcome" gorm:"not null"`
	Message        string         `json:"message"`
	Detail         datatypes.JSON `json:"detail"`
	CreatedAt      time.Time      `json:"created_at" gorm:"index"`
}

type AuditAction string

const (
	AuditActionInsert AuditAction = "insert"
	AuditActionUpdate AuditAction = "update"
	AuditActionQuery  AuditAction = "query"
	AuditActionError  AuditAction = "error"
	AuditActionSync   AuditAction = "sync"
	AuditActionDelete AuditAction = "delete"
)

type AuditOutcome string

const (
	AuditOutcomeStarted   AuditOutcome = "started"
	AuditOutcomeCompleted AuditOutcome = "completed"
	AuditOutcomeError     AuditOutcome = "error"
)

// ErrAuditImmutable is returned by gorm hooks when something tries to change
// an existing audit record.
var ErrAuditImmutable = errors.New("sync audit records are append-only")

func (SyncAuditRecord) TableName() string {
	return "registro_sincronizacion"
}

func (r *SyncAuditRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (r *SyncAuditRecord) BeforeUpdate(tx *gorm.DB) error {
	return ErrAuditImmutable
}

func (r *SyncAuditRecord) BeforeDelete(tx *gorm.DB) error {
	return ErrAuditImmutable
}
