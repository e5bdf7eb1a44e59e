package importer

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"office-management-backend/internal/models"
)

var (
	// ErrJobNotFound is returned when a job id is unknown or belongs to a
	// different office than the caller's.
	ErrJobNotFound = errors.New("import job not found")
	// ErrJobNotPending is returned when confirming a job that has already
	// completed or failed. Completed jobs are immutable.
	ErrJobNotPending = errors.New("import job is not pending")
	// ErrDuplicateKey is returned by client stores when a create violates
	// the (office, PAN) uniqueness constraint.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ClientStore is the office-scoped view of the client table the
// reconciliation loop needs. Every call carries the office id explicitly.
type ClientStore interface {
	// FindByPAN returns the client matching (officeID, pan), or nil when absent.
	FindByPAN(ctx context.Context, officeID uuid.UUID, pan string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	// UpdateFields applies an allow-listed field map to one client row.
	UpdateFields(ctx context.Context, officeID, clientID uuid.UUID, fields map[string]interface{}) error
}

type JobStore interface {
	Create(ctx context.Context, job *models.ImportJob) error
	// GetByID returns the job scoped to officeID, or nil when absent.
	GetByID(ctx context.Context, officeID, jobID uuid.UUID) (*models.ImportJob, error)
	// Complete transitions the job to completed, overwriting the outcome
	// counts in metadata. Calling it twice with the same counts is a no-op.
	Complete(ctx context.Context, jobID uuid.UUID, processed int, counts OutcomeCounts) error
	MarkFailed(ctx context.Context, jobID uuid.UUID) error
}

// AuditLogger appends one immutable entry per mutation. Implementations are
// best-effort: a failed write is reported to operational logging only and
// never aborts the enclosing transaction.
type AuditLogger interface {
	Record(ctx context.Context, entry *models.ActivityLog)
}

// Stores bundles the per-transaction store handles handed to a unit of work.
type Stores struct {
	Clients ClientStore
	Jobs    JobStore
	Audit   AuditLogger
}

// TxRunner executes fn inside one database transaction. An error from fn
// rolls back everything applied within it.
type TxRunner interface {
	InTransaction(ctx context.Context, fn func(Stores) error) error
}
