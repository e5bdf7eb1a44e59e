package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OfficeID     uuid.UUID `gorm:"type:uuid;index"`
	FullName     string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex"`
	PasswordHash string    `json:"-"`
	Role         string    `gorm:"index"` // CEO, AO or OA
	IsActive     bool      `gorm:"default:true"`
	CreatedAt    time.Time
}
