package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"office-management-backend/internal/models"
	"office-management-backend/internal/services/importer"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// FindByPAN resolves a client by the (office, PAN) business key. Returns
// nil without error when no client matches.
func (r *ClientRepository) FindByPAN(ctx context.Context, officeID uuid.UUID, pan string) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).
		Where("office_id = ? AND pan = ?", officeID, strings.ToUpper(pan)).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	client.PAN = strings.ToUpper(client.PAN)
	err := r.db.WithContext(ctx).Create(client).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return importer.ErrDuplicateKey
	}
	return err
}

// UpdateFields applies a pre-validated field map to one client. Callers are
// responsible for restricting the map to allow-listed columns.
func (r *ClientRepository) UpdateFields(ctx context.Context, officeID, clientID uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id = ? AND office_id = ?", clientID, officeID).
		Updates(fields).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, officeID, clientID uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := r.db.WithContext(ctx).
		Where("id = ? AND office_id = ?", clientID, officeID).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// ClientFilters narrows List; zero values mean "no filter".
type ClientFilters struct {
	RangeID    *uuid.UUID
	DistrictID *uuid.UUID
	AssignedTo *uuid.UUID
	ITRFiled   *bool
}

func (r *ClientRepository) List(ctx context.Context, officeID uuid.UUID, filters ClientFilters) ([]models.Client, error) {
	var clients []models.Client

	query := r.db.WithContext(ctx).Where("office_id = ?", officeID)
	if filters.RangeID != nil {
		query = query.Where("range_id = ?", *filters.RangeID)
	}
	if filters.DistrictID != nil {
		query = query.Where("district_id = ?", *filters.DistrictID)
	}
	if filters.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filters.AssignedTo)
	}
	if filters.ITRFiled != nil {
		query = query.Where("itr_filed = ?", *filters.ITRFiled)
	}

	err := query.Order("full_name ASC").Find(&clients).Error
	return clients, err
}

func (r *ClientRepository) Delete(ctx context.Context, officeID, clientID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND office_id = ?", clientID, officeID).
		Delete(&models.Client{}).Error
}

// BulkAssign points the listed clients at one assignee and returns the rows
// actually updated. Restricted by office id.
func (r *ClientRepository) BulkAssign(ctx context.Context, officeID uuid.UUID, clientIDs []uuid.UUID, assigneeID uuid.UUID) ([]models.Client, error) {
	err := r.db.WithContext(ctx).
		Model(&models.Client{}).
		Where("id IN ? AND office_id = ?", clientIDs, officeID).
		Update("assigned_to", assigneeID).Error
	if err != nil {
		return nil, err
	}

	var updated []models.Client
	err = r.db.WithContext(ctx).
		Select("id", "full_name", "pan").
		Where("id IN ? AND office_id = ? AND assigned_to = ?", clientIDs, officeID, assigneeID).
		Find(&updated).Error
	return updated, err
}
