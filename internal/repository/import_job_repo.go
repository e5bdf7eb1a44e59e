package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"office-management-backend/internal/models"
	"office-management-backend/internal/services/importer"
)

type ImportJobRepository struct {
	db *gorm.DB
}

func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

func (r *ImportJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID is office-scoped: a job belonging to another office resolves to
// nil exactly like an unknown id.
func (r *ImportJobRepository) GetByID(ctx context.Context, officeID, jobID uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	err := r.db.WithContext(ctx).
		Where("id = ? AND office_id = ?", jobID, officeID).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Complete marks the job completed and merges the outcome counts into its
// metadata. The count keys are overwritten, not incremented, so a repeated
// call with the same counts leaves the row unchanged.
func (r *ImportJobRepository) Complete(ctx context.Context, jobID uuid.UUID, processed int, counts importer.OutcomeCounts) error {
	var job models.ImportJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		return err
	}

	merged, err := mergeOutcomeCounts(job.Metadata, counts)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":         models.ImportJobStatusCompleted,
			"processed_rows": processed,
			"metadata":       datatypes.JSON(merged),
		}).Error
}

// mergeOutcomeCounts overwrites the outcome-count keys in the job metadata,
// leaving the staged keys (file reference, validation summary) intact.
func mergeOutcomeCounts(metadata []byte, counts importer.OutcomeCounts) ([]byte, error) {
	meta := map[string]interface{}{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &meta); err != nil {
			return nil, err
		}
	}
	meta["created_rows"] = counts.Created
	meta["updated_rows"] = counts.Updated
	meta["skipped_rows"] = counts.Skipped
	return json.Marshal(meta)
}

func (r *ImportJobRepository) MarkFailed(ctx context.Context, jobID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND status = ?", jobID, models.ImportJobStatusPending).
		Update("status", models.ImportJobStatusFailed).Error
}
