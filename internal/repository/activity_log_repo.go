package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"office-management-backend/internal/models"
)

// ActivityLogRepository appends audit entries. Writes are best-effort: the
// audit trail must never fail the business mutation it documents, so errors
// are reported to the operational log and swallowed.
type ActivityLogRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewActivityLogRepository(db *gorm.DB, log *logrus.Logger) *ActivityLogRepository {
	return &ActivityLogRepository{db: db, log: log}
}

// Record inserts one entry. When running inside a transaction the insert is
// wrapped in a savepoint so a failed write cannot poison the transaction;
// outside a transaction the savepoint calls are no-ops that error harmlessly.
func (r *ActivityLogRepository) Record(ctx context.Context, entry *models.ActivityLog) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	db := r.db.WithContext(ctx)
	_ = db.SavePoint("activity_log").Error
	if err := db.Create(entry).Error; err != nil {
		_ = db.RollbackTo("activity_log").Error
		r.log.WithFields(logrus.Fields{
			"office_id":   entry.OfficeID,
			"action":      entry.Action,
			"entity_name": entry.EntityName,
		}).Errorf("activity log write failed: %v", err)
	}
}
