package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is keyed by (office, PAN); PAN is always stored upper-cased.
type Client struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OfficeID         uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_clients_office_pan;index"`
	PAN              string     `gorm:"column:pan;size:10;uniqueIndex:idx_clients_office_pan"`
	FullName         string     `gorm:"not null"`
	DistrictID       *uuid.UUID `gorm:"type:uuid;index"`
	RangeID          *uuid.UUID `gorm:"type:uuid;index"`
	AssignedTo       *uuid.UUID `gorm:"type:uuid;index"`
	AnnexureReceived bool       `gorm:"default:false"`
	ITRFiled         bool       `gorm:"column:itr_filed;default:false;index"`
	ITRFiledDate     *time.Time `gorm:"column:itr_filed_date"`
	EVerified        bool       `gorm:"column:everified;default:false"`
	EVerifiedDate    *time.Time `gorm:"column:everified_date"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
