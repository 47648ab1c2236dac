// Package audit persists change records for tracked entities.
package audit

import (
	"context"
	"fmt"
	"reflect"

	"github.com/franchisehub/backoffice/internal/repo"
	"github.com/franchisehub/backoffice/pkg/db/models"
	"github.com/franchisehub/backoffice/pkg/enums"
	"github.com/franchisehub/backoffice/pkg/logger"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// Entry is one change to record.
type Entry struct {
	EntityType enums.AuditEntityType
	EntityID   uuid.UUID
	Action     enums.AuditAction
	OldData    map[string]any
	NewData    map[string]any
	ChangedBy  uuid.UUID
	Note       string
}

// Recorder is the surface services depend on.
type Recorder interface {
	Log(ctx context.Context, entry Entry)
}

// Logger writes entries to audit_logs.
type Logger struct {
	repo.Base
	logg *logger.Logger
}

// NewLogger constructs an audit logger over db.
func NewLogger(db *gorm.DB, logg *logger.Logger) *Logger {
	return &Logger{Base: repo.NewBase(db), logg: logg}
}

// Record persists the entry and returns any storage error.
func (l *Logger) Record(ctx context.Context, entry Entry) error {
	if !entry.EntityType.IsValid() {
		return fmt.Errorf("invalid audit entity type %q", entry.EntityType)
	}
	if !entry.Action.IsValid() {
		return fmt.Errorf("invalid audit action %q", entry.Action)
	}

	row := &models.AuditLog{
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		OldData:    entry.OldData,
		NewData:    entry.NewData,
		Note:       entry.Note,
	}
	if entry.ChangedBy != uuid.Nil {
		changedBy := entry.ChangedBy
		row.ChangedBy = &changedBy
	}
	return l.DB(ctx).Create(row).Error
}

// Log records the entry. A failed write is logged and never reaches the
// caller, so the business operation that produced it still succeeds.
func (l *Logger) Log(ctx context.Context, entry Entry) {
	if err := l.Record(ctx, entry); err != nil && l.logg != nil {
		ctx = l.logg.WithFields(ctx, map[string]any{
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID.String(),
			"action":      entry.Action,
		})
		l.logg.Error(ctx, "audit.write_failed", err)
	}
}

// Pick keeps the audited fields of a snapshot.
func Pick(data map[string]any, fields []string) map[string]any {
	return lo.PickByKeys(data, fields)
}

// Diff returns the audited fields whose values differ between the two
// snapshots. Both results are nil when nothing changed.
func Diff(oldData, newData map[string]any, fields []string) (map[string]any, map[string]any) {
	changed := lo.Filter(fields, func(f string, _ int) bool {
		return !reflect.DeepEqual(oldData[f], newData[f])
	})
	if len(changed) == 0 {
		return nil, nil
	}
	return lo.PickByKeys(oldData, changed), lo.PickByKeys(newData, changed)
}
