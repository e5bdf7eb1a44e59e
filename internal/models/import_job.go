package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ImportJobStatusPending   = "pending"
	ImportJobStatusCompleted = "completed"
	ImportJobStatusFailed    = "failed"

	JobTypeClientImport = "client_import"
)

type ImportJob struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	OfficeID      uuid.UUID `gorm:"type:uuid;index"`
	CreatedBy     uuid.UUID `gorm:"type:uuid"`
	JobType       string    `gorm:"index"`
	Status        string    `gorm:"index"`
	TotalRows     int
	ProcessedRows int
	Metadata      datatypes.JSON
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
