package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"office-management-backend/internal/models"
	"office-management-backend/internal/storage"
)

// Mode governs how rows that already exist in the store are treated.
type Mode string

const (
	ModeCreateOnly Mode = "create-only"
	ModeOverwrite  Mode = "overwrite"
	ModeUpsert     Mode = "upsert"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCreateOnly, ModeOverwrite, ModeUpsert:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid import mode %q", s)
}

// Actor identifies the authenticated caller on whose behalf the pipeline runs.
type Actor struct {
	UserID   uuid.UUID
	OfficeID uuid.UUID
}

type OutcomeCounts struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// JobMetadata is the opaque metadata blob staged on an import job. The
// outcome count keys are filled in on completion.
type JobMetadata struct {
	FileName          string            `json:"file_name"`
	StoragePath       string            `json:"storage_path"`
	MimeType          string            `json:"mime_type"`
	ValidationSummary ValidationSummary `json:"validation_summary"`
	CreatedRows       *int              `json:"created_rows,omitempty"`
	UpdatedRows       *int              `json:"updated_rows,omitempty"`
	SkippedRows       *int              `json:"skipped_rows,omitempty"`
}

const (
	maxErrorPreview = 50
	maxValidPreview = 10
)

type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

type UploadPreview struct {
	Summary ValidationSummary `json:"summary"`
	Errors  []InvalidRow      `json:"errors"`
	Preview []Row             `json:"preview"`
}

type UploadResult struct {
	Job        *models.ImportJob `json:"job"`
	Validation UploadPreview     `json:"validation"`
}

type Service struct {
	tx    TxRunner
	jobs  JobStore
	files storage.FileStore
	log   *logrus.Logger
	// markFailedOnError moves a job to the failed status when a confirmation
	// aborts. When false (the default) the job stays pending and retryable.
	markFailedOnError bool
}

func NewService(tx TxRunner, jobs JobStore, files storage.FileStore, log *logrus.Logger, markFailedOnError bool) *Service {
	return &Service{
		tx:                tx,
		jobs:              jobs,
		files:             files,
		log:               log,
		markFailedOnError: markFailedOnError,
	}
}

// UploadAndPreview parses and validates the file, persists it to the blob
// store, and stages a pending import job. No client records are touched.
func (s *Service) UploadAndPreview(ctx context.Context, actor Actor, in UploadInput) (*UploadResult, error) {
	format, err := FormatFromFilename(in.FileName)
	if err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}

	rows, err := ParseFile(in.Data, format)
	if err != nil {
		return nil, err
	}
	validation := ValidateRows(rows)

	path := fmt.Sprintf("office_%s/%d-%s", actor.OfficeID, time.Now().UnixMilli(), filepath.Base(in.FileName))
	ref, err := s.files.Put(ctx, path, in.Data, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	meta, err := json.Marshal(JobMetadata{
		FileName:          in.FileName,
		StoragePath:       ref,
		MimeType:          in.ContentType,
		ValidationSummary: validation.Summary,
	})
	if err != nil {
		return nil, err
	}

	job := &models.ImportJob{
		ID:        uuid.New(),
		OfficeID:  actor.OfficeID,
		CreatedBy: actor.UserID,
		JobType:   models.JobTypeClientImport,
		Status:    models.ImportJobStatusPending,
		TotalRows: validation.Summary.Total,
		Metadata:  datatypes.JSON(meta),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("stage import job: %w", err)
	}

	errPreview := validation.InvalidRows
	if len(errPreview) > maxErrorPreview {
		errPreview = errPreview[:maxErrorPreview]
	}
	validPreview := validation.ValidRows
	if len(validPreview) > maxValidPreview {
		validPreview = validPreview[:maxValidPreview]
	}

	return &UploadResult{
		Job: job,
		Validation: UploadPreview{
			Summary: validation.Summary,
			Errors:  errPreview,
			Preview: validPreview,
		},
	}, nil
}

// GetJob returns the job scoped to the caller's office.
func (s *Service) GetJob(ctx context.Context, actor Actor, jobID uuid.UUID) (*models.ImportJob, error) {
	job, err := s.jobs.GetByID(ctx, actor.OfficeID, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Confirm re-fetches and re-validates the staged file, then applies every
// valid row under the chosen merge policy as a single transaction. The file
// is re-validated rather than trusting the upload preview because the store
// may have changed since the job was staged.
//
// Any store failure inside the loop rolls back the whole batch; the job then
// stays pending unless the service is configured to mark it failed.
func (s *Service) Confirm(ctx context.Context, actor Actor, jobID uuid.UUID, mode Mode) (OutcomeCounts, error) {
	var counts OutcomeCounts

	job, err := s.GetJob(ctx, actor, jobID)
	if err != nil {
		return counts, err
	}
	if job.Status != models.ImportJobStatusPending {
		return counts, ErrJobNotPending
	}

	var meta JobMetadata
	if err := json.Unmarshal(job.Metadata, &meta); err != nil {
		return counts, fmt.Errorf("decode job metadata: %w", err)
	}

	format, err := FormatFromFilename(meta.StoragePath)
	if err != nil {
		return counts, &ParseError{Reason: err.Error()}
	}
	data, err := s.files.Get(ctx, meta.StoragePath)
	if err != nil {
		return counts, fmt.Errorf("fetch staged file: %w", err)
	}
	rows, err := ParseFile(data, format)
	if err != nil {
		return counts, err
	}
	validation := ValidateRows(rows)

	err = s.tx.InTransaction(ctx, func(st Stores) error {
		for _, row := range validation.ValidRows {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, err := resolveRow(ctx, st.Clients, actor.OfficeID, mode, row)
			if err != nil {
				return err
			}
			if err := s.applyOutcome(ctx, st, actor, outcome, &counts); err != nil {
				return err
			}
		}
		return st.Jobs.Complete(ctx, job.ID, counts.Created+counts.Updated, counts)
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"job_id":    jobID,
			"office_id": actor.OfficeID,
			"mode":      mode,
		}).Errorf("import confirmation aborted: %v", err)
		if s.markFailedOnError {
			if ferr := s.jobs.MarkFailed(context.WithoutCancel(ctx), jobID); ferr != nil {
				s.log.WithField("job_id", jobID).Errorf("could not mark job failed: %v", ferr)
			}
		}
		return OutcomeCounts{}, err
	}

	return counts, nil
}

type rowAction string

const (
	actionCreate rowAction = "create"
	actionUpdate rowAction = "update"
	actionSkip   rowAction = "skip"
)

// RowOutcome is the resolved fate of one valid row against the live store.
type RowOutcome struct {
	Row      Row
	Action   rowAction
	Existing *models.Client
}

func resolveRow(ctx context.Context, clients ClientStore, officeID uuid.UUID, mode Mode, row Row) (RowOutcome, error) {
	existing, err := clients.FindByPAN(ctx, officeID, row["pan"])
	if err != nil {
		return RowOutcome{}, err
	}

	outcome := RowOutcome{Row: row, Existing: existing}
	switch mode {
	case ModeCreateOnly:
		if existing == nil {
			outcome.Action = actionCreate
		} else {
			outcome.Action = actionSkip
		}
	case ModeOverwrite:
		if existing != nil {
			outcome.Action = actionUpdate
		} else {
			outcome.Action = actionSkip
		}
	case ModeUpsert:
		if existing != nil {
			outcome.Action = actionUpdate
		} else {
			outcome.Action = actionCreate
		}
	default:
		return RowOutcome{}, fmt.Errorf("invalid import mode %q", mode)
	}
	return outcome, nil
}

func (s *Service) applyOutcome(ctx context.Context, st Stores, actor Actor, outcome RowOutcome, counts *OutcomeCounts) error {
	switch outcome.Action {
	case actionCreate:
		client := clientFromRow(actor.OfficeID, outcome.Row)
		if err := st.Clients.Create(ctx, client); err != nil {
			return err
		}
		counts.Created++
		st.Audit.Record(ctx, auditEntry(actor, "IMPORT_CREATE", &client.ID, outcome.Row))
	case actionUpdate:
		fields := updatableFields(outcome.Row)
		if err := st.Clients.UpdateFields(ctx, actor.OfficeID, outcome.Existing.ID, fields); err != nil {
			return err
		}
		counts.Updated++
		st.Audit.Record(ctx, auditEntry(actor, "IMPORT_UPDATE", &outcome.Existing.ID, outcome.Row))
	case actionSkip:
		counts.Skipped++
	}
	return nil
}

// importableColumns is the explicit allow-list of columns an import may
// write. The business key (pan) is deliberately absent: an update never
// alters it.
var importableColumns = []string{"full_name", "district_id", "range_id", "assigned_to"}

func updatableFields(row Row) map[string]interface{} {
	return map[string]interface{}{
		"full_name":   row["full_name"],
		"district_id": parseRef(row["district_id"]),
		"range_id":    parseRef(row["range_id"]),
		"assigned_to": parseRef(row["assigned_to"]),
	}
}

func clientFromRow(officeID uuid.UUID, row Row) *models.Client {
	return &models.Client{
		ID:         uuid.New(),
		OfficeID:   officeID,
		PAN:        row["pan"],
		FullName:   row["full_name"],
		DistrictID: parseRef(row["district_id"]),
		RangeID:    parseRef(row["range_id"]),
		AssignedTo: parseRef(row["assigned_to"]),
	}
}

// parseRef turns a reference cell into a uuid. Blank or unparsable cells
// resolve to nil rather than failing the row.
func parseRef(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// auditEntry snapshots the imported field set as new_data. The old snapshot
// is omitted on bulk imports as a performance trade-off.
func auditEntry(actor Actor, action string, entityID *uuid.UUID, row Row) *models.ActivityLog {
	snapshot := map[string]string{"pan": row["pan"]}
	for _, col := range importableColumns {
		snapshot[col] = row[col]
	}
	data, _ := json.Marshal(snapshot)

	return &models.ActivityLog{
		OfficeID:   actor.OfficeID,
		UserID:     actor.UserID,
		Action:     action,
		EntityName: "clients",
		EntityID:   entityID,
		NewData:    datatypes.JSON(data),
	}
}
