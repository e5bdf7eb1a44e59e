package repository

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"office-management-backend/internal/services/importer"
)

// UnitOfWork runs a function against transaction-bound repositories. It is
// the transaction boundary for one import job's effects: an error from fn
// rolls back every row mutation and the job-state change together.
type UnitOfWork struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewUnitOfWork(db *gorm.DB, log *logrus.Logger) *UnitOfWork {
	return &UnitOfWork{db: db, log: log}
}

func (u *UnitOfWork) InTransaction(ctx context.Context, fn func(importer.Stores) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(importer.Stores{
			Clients: NewClientRepository(tx),
			Jobs:    NewImportJobRepository(tx),
			Audit:   NewActivityLogRepository(tx, u.log),
		})
	})
}
