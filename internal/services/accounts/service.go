package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"office-management-backend/internal/auth"
	"office-management-backend/internal/models"
)

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type RegisterOfficeInput struct {
	OfficeName    string
	OfficeAddress string
	CEOName       string
	CEOEmail      string
	Password      string
}

// RegisterOffice creates the office and its CEO user in one transaction and
// returns the user plus a signed token.
func (s *Service) RegisterOffice(ctx context.Context, in RegisterOfficeInput) (*models.User, string, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		ID:           uuid.New(),
		FullName:     in.CEOName,
		Email:        in.CEOEmail,
		PasswordHash: string(hash),
		Role:         "CEO",
		IsActive:     true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		office := &models.Office{
			ID:      uuid.New(),
			Name:    in.OfficeName,
			Address: in.OfficeAddress,
		}
		if err := tx.Create(office).Error; err != nil {
			return err
		}
		user.OfficeID = office.ID
		return tx.Create(user).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, "", ErrEmailTaken
	}
	if err != nil {
		return nil, "", err
	}

	token, err := auth.GenerateToken(user.ID, user.OfficeID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = true", email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.OfficeID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}
