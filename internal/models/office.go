package models

import (
	"time"

	"github.com/google/uuid"
)

type Office struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Address   string
	CreatedAt time.Time
}
