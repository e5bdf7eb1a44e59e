package models

import (
	"time"

	"github.com/google/uuid"
)

type Range struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OfficeID  uuid.UUID `gorm:"type:uuid;index"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time
}

type District struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OfficeID  uuid.UUID `gorm:"type:uuid;index"`
	RangeID   uuid.UUID `gorm:"type:uuid;index"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time
}
