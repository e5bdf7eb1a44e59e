package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityLog rows are append-only; they are never updated or deleted.
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OfficeID   uuid.UUID  `gorm:"type:uuid;index"`
	UserID     uuid.UUID  `gorm:"type:uuid;index"`
	Action     string     `gorm:"index"`
	EntityName string     `gorm:"index"`
	EntityID   *uuid.UUID `gorm:"type:uuid"`
	OldData    datatypes.JSON
	NewData    datatypes.JSON
	CreatedAt  time.Time
}
