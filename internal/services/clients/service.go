package clients

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"office-management-backend/internal/models"
	"office-management-backend/internal/repository"
)

var (
	ErrNotFound          = errors.New("client not found")
	ErrPANExists         = errors.New("client with this PAN already exists in this office")
	ErrNoUpdatableFields = errors.New("no valid fields provided for update")
	ErrAssigneeNotFound  = errors.New("assignee not found in this office")
)

// updatableColumns is the allow-list for single-record updates. Anything
// outside it is dropped before the store is touched.
var updatableColumns = map[string]bool{
	"pan":               true,
	"full_name":         true,
	"district_id":       true,
	"range_id":          true,
	"assigned_to":       true,
	"annexure_received": true,
	"itr_filed":         true,
	"itr_filed_date":    true,
	"everified":         true,
	"everified_date":    true,
}

// Actor mirrors the authenticated caller for audit attribution.
type Actor struct {
	UserID   uuid.UUID
	OfficeID uuid.UUID
}

type Service struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewService(db *gorm.DB, log *logrus.Logger) *Service {
	return &Service{db: db, log: log}
}

type CreateInput struct {
	PAN              string
	FullName         string
	DistrictID       *uuid.UUID
	RangeID          *uuid.UUID
	AssignedTo       *uuid.UUID
	AnnexureReceived bool
	ITRFiled         bool
	ITRFiledDate     *time.Time
	EVerified        bool
	EVerifiedDate    *time.Time
}

func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*models.Client, error) {
	client := &models.Client{
		ID:               uuid.New(),
		OfficeID:         actor.OfficeID,
		PAN:              strings.ToUpper(in.PAN),
		FullName:         in.FullName,
		DistrictID:       in.DistrictID,
		RangeID:          in.RangeID,
		AssignedTo:       in.AssignedTo,
		AnnexureReceived: in.AnnexureReceived,
		ITRFiled:         in.ITRFiled,
		ITRFiledDate:     in.ITRFiledDate,
		EVerified:        in.EVerified,
		EVerifiedDate:    in.EVerifiedDate,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(client).Error; err != nil {
			return err
		}
		s.record(ctx, tx, actor, "CREATE", &client.ID, nil, client)
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrPANExists
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, clientID uuid.UUID) (*models.Client, error) {
	client, err := repository.NewClientRepository(s.db).GetByID(ctx, actor.OfficeID, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrNotFound
	}
	return client, nil
}

func (s *Service) List(ctx context.Context, actor Actor, filters repository.ClientFilters) ([]models.Client, error) {
	return repository.NewClientRepository(s.db).List(ctx, actor.OfficeID, filters)
}

// Update applies the allow-listed subset of updates to one client, with
// old/new snapshots in the audit trail.
func (s *Service) Update(ctx context.Context, actor Actor, clientID uuid.UUID, updates map[string]interface{}) (*models.Client, error) {
	fields := make(map[string]interface{}, len(updates))
	for k, v := range updates {
		if !updatableColumns[k] {
			continue
		}
		if k == "pan" {
			if s, ok := v.(string); ok {
				v = strings.ToUpper(s)
			}
		}
		fields[k] = v
	}
	if len(fields) == 0 {
		return nil, ErrNoUpdatableFields
	}

	var updated models.Client
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.Client
		err := tx.Where("id = ? AND office_id = ?", clientID, actor.OfficeID).First(&old).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Client{}).
			Where("id = ? AND office_id = ?", clientID, actor.OfficeID).
			Updates(fields).Error; err != nil {
			return err
		}

		if err := tx.Where("id = ?", clientID).First(&updated).Error; err != nil {
			return err
		}
		s.record(ctx, tx, actor, "UPDATE", &clientID, &old, &updated)
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrPANExists
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, actor Actor, clientID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.Client
		err := tx.Where("id = ? AND office_id = ?", clientID, actor.OfficeID).First(&old).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Where("id = ? AND office_id = ?", clientID, actor.OfficeID).
			Delete(&models.Client{}).Error; err != nil {
			return err
		}
		s.record(ctx, tx, actor, "DELETE", &clientID, &old, nil)
		return nil
	})
}

// BulkAssign hands the listed clients to one active OA of the same office.
// Old assignments are not snapshotted on bulk operations.
func (s *Service) BulkAssign(ctx context.Context, actor Actor, clientIDs []uuid.UUID, assigneeID uuid.UUID) (int, string, error) {
	var count int
	var assigneeName string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignee models.User
		err := tx.Where("id = ? AND office_id = ? AND is_active = true", assigneeID, actor.OfficeID).
			First(&assignee).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		if err != nil {
			return err
		}
		assigneeName = assignee.FullName

		updated, err := repository.NewClientRepository(tx).
			BulkAssign(ctx, actor.OfficeID, clientIDs, assigneeID)
		if err != nil {
			return err
		}
		count = len(updated)

		audit := repository.NewActivityLogRepository(tx, s.log)
		for _, client := range updated {
			newData, _ := json.Marshal(map[string]string{
				"assigned_to": assigneeID.String(),
				"oa_name":     assigneeName,
			})
			id := client.ID
			audit.Record(ctx, &models.ActivityLog{
				OfficeID:   actor.OfficeID,
				UserID:     actor.UserID,
				Action:     "BULK_ASSIGN",
				EntityName: "clients",
				EntityID:   &id,
				NewData:    datatypes.JSON(newData),
			})
		}
		return nil
	})
	if err != nil {
		return 0, "", err
	}
	return count, assigneeName, nil
}

func (s *Service) record(ctx context.Context, tx *gorm.DB, actor Actor, action string, entityID *uuid.UUID, oldState, newState *models.Client) {
	entry := &models.ActivityLog{
		OfficeID:   actor.OfficeID,
		UserID:     actor.UserID,
		Action:     action,
		EntityName: "clients",
		EntityID:   entityID,
	}
	if oldState != nil {
		if b, err := json.Marshal(oldState); err == nil {
			entry.OldData = datatypes.JSON(b)
		}
	}
	if newState != nil {
		if b, err := json.Marshal(newState); err == nil {
			entry.NewData = datatypes.JSON(b)
		}
	}
	repository.NewActivityLogRepository(tx, s.log).Record(ctx, entry)
}
