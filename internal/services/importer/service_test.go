package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"office-management-backend/internal/models"
)

type fakeClientStore struct {
	clients map[string]*models.Client // office_id|PAN -> client
	updated map[uuid.UUID]map[string]interface{}
	failPAN string // Create fails when this PAN is inserted
}

func newFakeClientStore() *fakeClientStore {
	return &fakeClientStore{
		clients: make(map[string]*models.Client),
		updated: make(map[uuid.UUID]map[string]interface{}),
	}
}

func clientKey(officeID uuid.UUID, pan string) string {
	return officeID.String() + "|" + strings.ToUpper(pan)
}

func (f *fakeClientStore) FindByPAN(_ context.Context, officeID uuid.UUID, pan string) (*models.Client, error) {
	if c, ok := f.clients[clientKey(officeID, pan)]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeClientStore) Create(_ context.Context, client *models.Client) error {
	if client.PAN == f.failPAN {
		return errors.New("store blew up")
	}
	key := clientKey(client.OfficeID, client.PAN)
	if _, exists := f.clients[key]; exists {
		return ErrDuplicateKey
	}
	copied := *client
	f.clients[key] = &copied
	return nil
}

func (f *fakeClientStore) UpdateFields(_ context.Context, officeID, clientID uuid.UUID, fields map[string]interface{}) error {
	for _, c := range f.clients {
		if c.ID == clientID && c.OfficeID == officeID {
			if name, ok := fields["full_name"].(string); ok {
				c.FullName = name
			}
			f.updated[clientID] = fields
			return nil
		}
	}
	return fmt.Errorf("client %s not found", clientID)
}

func (f *fakeClientStore) clone() map[string]*models.Client {
	snapshot := make(map[string]*models.Client, len(f.clients))
	for k, v := range f.clients {
		copied := *v
		snapshot[k] = &copied
	}
	return snapshot
}

type fakeJobStore struct {
	jobs map[uuid.UUID]*models.ImportJob
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: make(map[uuid.UUID]*models.ImportJob)}
}

func (f *fakeJobStore) Create(_ context.Context, job *models.ImportJob) error {
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobStore) GetByID(_ context.Context, officeID, jobID uuid.UUID) (*models.ImportJob, error) {
	job, ok := f.jobs[jobID]
	if !ok || job.OfficeID != officeID {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobStore) Complete(_ context.Context, jobID uuid.UUID, processed int, counts OutcomeCounts) error {
	job, ok := f.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}
	job.Status = models.ImportJobStatusCompleted
	job.ProcessedRows = processed
	return nil
}

func (f *fakeJobStore) MarkFailed(_ context.Context, jobID uuid.UUID) error {
	if job, ok := f.jobs[jobID]; ok && job.Status == models.ImportJobStatusPending {
		job.Status = models.ImportJobStatusFailed
	}
	return nil
}

type fakeAudit struct {
	entries []*models.ActivityLog
}

func (f *fakeAudit) Record(_ context.Context, entry *models.ActivityLog) {
	f.entries = append(f.entries, entry)
}

// fakeTx snapshots the stores before fn and restores them when fn errors,
// mimicking a rollback.
type fakeTx struct {
	clients *fakeClientStore
	jobs    *fakeJobStore
	audit   *fakeAudit
}

func (t *fakeTx) InTransaction(_ context.Context, fn func(Stores) error) error {
	clientSnapshot := t.clients.clone()
	jobSnapshot := make(map[uuid.UUID]models.ImportJob, len(t.jobs.jobs))
	for id, job := range t.jobs.jobs {
		jobSnapshot[id] = *job
	}
	auditLen := len(t.audit.entries)

	if err := fn(Stores{Clients: t.clients, Jobs: t.jobs, Audit: t.audit}); err != nil {
		t.clients.clients = clientSnapshot
		for id, job := range jobSnapshot {
			copied := job
			t.jobs.jobs[id] = &copied
		}
		t.audit.entries = t.audit.entries[:auditLen]
		return err
	}
	return nil
}

type fakeFileStore struct {
	blobs map[string][]byte
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{blobs: make(map[string][]byte)}
}

func (f *fakeFileStore) Put(_ context.Context, path string, data []byte, _ string) (string, error) {
	f.blobs[path] = data
	return path, nil
}

func (f *fakeFileStore) Get(_ context.Context, ref string) ([]byte, error) {
	data, ok := f.blobs[ref]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", ref)
	}
	return data, nil
}

type fixture struct {
	service *Service
	clients *fakeClientStore
	jobs    *fakeJobStore
	audit   *fakeAudit
	files   *fakeFileStore
	actor   Actor
}

func newFixture(t *testing.T, markFailedOnError bool) *fixture {
	t.Helper()
	clients := newFakeClientStore()
	jobs := newFakeJobStore()
	audit := &fakeAudit{}
	files := newFakeFileStore()
	tx := &fakeTx{clients: clients, jobs: jobs, audit: audit}

	log := logrus.New()
	log.SetOutput(io.Discard)

	return &fixture{
		service: NewService(tx, jobs, files, log, markFailedOnError),
		clients: clients,
		jobs:    jobs,
		audit:   audit,
		files:   files,
		actor:   Actor{UserID: uuid.New(), OfficeID: uuid.New()},
	}
}

func (fx *fixture) stage(t *testing.T, csvBody string) uuid.UUID {
	t.Helper()
	result, err := fx.service.UploadAndPreview(context.Background(), fx.actor, UploadInput{
		FileName:    "clients.csv",
		ContentType: "text/csv",
		Data:        []byte(csvBody),
	})
	if err != nil {
		t.Fatalf("UploadAndPreview error: %v", err)
	}
	return result.Job.ID
}

func (fx *fixture) seedClient(pan, name string) *models.Client {
	client := &models.Client{
		ID:       uuid.New(),
		OfficeID: fx.actor.OfficeID,
		PAN:      pan,
		FullName: name,
	}
	fx.clients.clients[clientKey(fx.actor.OfficeID, pan)] = client
	return client
}

func TestUploadStagesPendingJob(t *testing.T) {
	fx := newFixture(t, false)

	result, err := fx.service.UploadAndPreview(context.Background(), fx.actor, UploadInput{
		FileName:    "clients.csv",
		ContentType: "text/csv",
		Data:        []byte("pan,full_name\nABCDE1234F,Alice\nBAD,Broken\n"),
	})
	if err != nil {
		t.Fatalf("UploadAndPreview error: %v", err)
	}

	if result.Job.Status != models.ImportJobStatusPending {
		t.Errorf("expected pending job, got %s", result.Job.Status)
	}
	if result.Job.TotalRows != 2 {
		t.Errorf("expected 2 total rows, got %d", result.Job.TotalRows)
	}
	if result.Validation.Summary.Valid != 1 || result.Validation.Summary.Invalid != 1 {
		t.Errorf("unexpected summary: %+v", result.Validation.Summary)
	}
	if len(fx.clients.clients) != 0 {
		t.Error("upload must not touch client records")
	}
	if len(fx.files.blobs) != 1 {
		t.Errorf("expected file persisted to blob store, got %d blobs", len(fx.files.blobs))
	}
}

func TestUploadCapsPreviewSizes(t *testing.T) {
	fx := newFixture(t, false)

	var sb strings.Builder
	sb.WriteString("pan,full_name\n")
	// 60 invalid rows and 15 valid rows.
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&sb, "BAD%05d,Broken\n", i)
	}
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&sb, "AAAA%c1234Z,Valid\n", 'A'+rune(i))
	}

	result, err := fx.service.UploadAndPreview(context.Background(), fx.actor, UploadInput{
		FileName:    "clients.csv",
		ContentType: "text/csv",
		Data:        []byte(sb.String()),
	})
	if err != nil {
		t.Fatalf("UploadAndPreview error: %v", err)
	}

	if len(result.Validation.Errors) != maxErrorPreview {
		t.Errorf("expected %d error descriptors, got %d", maxErrorPreview, len(result.Validation.Errors))
	}
	if len(result.Validation.Preview) > maxValidPreview {
		t.Errorf("expected at most %d valid samples, got %d", maxValidPreview, len(result.Validation.Preview))
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	fx := newFixture(t, false)

	_, err := fx.service.UploadAndPreview(context.Background(), fx.actor, UploadInput{
		FileName: "clients.pdf",
		Data:     []byte("whatever"),
	})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestConfirmPolicyMatrix(t *testing.T) {
	// Store holds PAN X; file holds X plus new PAN Y.
	const (
		panX = "XXXXX1111X"
		panY = "YYYYY2222Y"
	)
	file := fmt.Sprintf("pan,full_name\n%s,Existing Update\n%s,Newcomer\n", panX, panY)

	cases := []struct {
		mode Mode
		want OutcomeCounts
	}{
		{ModeCreateOnly, OutcomeCounts{Created: 1, Updated: 0, Skipped: 1}},
		{ModeOverwrite, OutcomeCounts{Created: 0, Updated: 1, Skipped: 1}},
		{ModeUpsert, OutcomeCounts{Created: 1, Updated: 1, Skipped: 0}},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			fx := newFixture(t, false)
			fx.seedClient(panX, "Existing")
			jobID := fx.stage(t, file)

			counts, err := fx.service.Confirm(context.Background(), fx.actor, jobID, tc.mode)
			if err != nil {
				t.Fatalf("Confirm error: %v", err)
			}
			if counts != tc.want {
				t.Errorf("mode %s: got %+v, want %+v", tc.mode, counts, tc.want)
			}

			job := fx.jobs.jobs[jobID]
			if job.Status != models.ImportJobStatusCompleted {
				t.Errorf("job not completed: %s", job.Status)
			}
			if job.ProcessedRows != tc.want.Created+tc.want.Updated {
				t.Errorf("processed rows = %d, want %d", job.ProcessedRows, tc.want.Created+tc.want.Updated)
			}
		})
	}
}

func TestConfirmUpdateReplacesImportableFieldsOnly(t *testing.T) {
	fx := newFixture(t, false)
	existing := fx.seedClient("XXXXX1111X", "Old Name")
	jobID := fx.stage(t, "pan,full_name\nxxxxx1111x,New Name\n")

	if _, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeOverwrite); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	fields := fx.clients.updated[existing.ID]
	if fields == nil {
		t.Fatal("expected an update to be applied")
	}
	for col := range fields {
		switch col {
		case "full_name", "district_id", "range_id", "assigned_to":
		default:
			t.Errorf("column %q is outside the importable allow-list", col)
		}
	}
	if _, present := fields["pan"]; present {
		t.Error("update must never touch the business key")
	}
}

func TestConfirmNormalizesPANBeforeReconciling(t *testing.T) {
	fx := newFixture(t, false)
	jobID := fx.stage(t, "pan,full_name\nabcde1234f,Alice\n")

	if _, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeUpsert); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	stored, ok := fx.clients.clients[clientKey(fx.actor.OfficeID, "ABCDE1234F")]
	if !ok {
		t.Fatal("client not created under upper-cased PAN")
	}
	if stored.PAN != "ABCDE1234F" {
		t.Errorf("stored PAN not upper-cased: %q", stored.PAN)
	}
}

func TestConfirmAuditEntriesMatchMutationsInOrder(t *testing.T) {
	fx := newFixture(t, false)
	fx.seedClient("XXXXX1111X", "Existing")
	jobID := fx.stage(t, "pan,full_name\nYYYYY2222Y,New One\nXXXXX1111X,Updated One\n")

	if _, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeUpsert); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	if len(fx.audit.entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(fx.audit.entries))
	}
	if fx.audit.entries[0].Action != "IMPORT_CREATE" {
		t.Errorf("first entry action = %s, want IMPORT_CREATE", fx.audit.entries[0].Action)
	}
	if fx.audit.entries[1].Action != "IMPORT_UPDATE" {
		t.Errorf("second entry action = %s, want IMPORT_UPDATE", fx.audit.entries[1].Action)
	}
	for _, entry := range fx.audit.entries {
		if entry.EntityID == nil {
			t.Error("audit entry missing entity id")
		}
		if len(entry.NewData) == 0 {
			t.Error("audit entry missing new_data snapshot")
		}
		if len(entry.OldData) != 0 {
			t.Error("bulk import entries must omit the old snapshot")
		}
	}
}

func TestConfirmSkippedRowsProduceNoAudit(t *testing.T) {
	fx := newFixture(t, false)
	fx.seedClient("XXXXX1111X", "Existing")
	jobID := fx.stage(t, "pan,full_name\nXXXXX1111X,Whatever\n")

	counts, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeCreateOnly)
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if counts.Skipped != 1 {
		t.Fatalf("expected 1 skipped, got %+v", counts)
	}
	if len(fx.audit.entries) != 0 {
		t.Errorf("skips must not be audited, got %d entries", len(fx.audit.entries))
	}
}

func TestConfirmRollsBackOnMidBatchFailure(t *testing.T) {
	fx := newFixture(t, false)
	jobID := fx.stage(t, "pan,full_name\nAAAAA1111A,First\nBBBBB2222B,Second\nCCCCC3333C,Third\n")
	fx.clients.failPAN = "CCCCC3333C"

	_, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeCreateOnly)
	if err == nil {
		t.Fatal("expected Confirm to fail")
	}

	if len(fx.clients.clients) != 0 {
		t.Errorf("expected all creates rolled back, %d clients remain", len(fx.clients.clients))
	}
	if len(fx.audit.entries) != 0 {
		t.Errorf("expected audit entries rolled back, %d remain", len(fx.audit.entries))
	}
	if got := fx.jobs.jobs[jobID].Status; got != models.ImportJobStatusPending {
		t.Errorf("job must stay pending for retry, got %s", got)
	}
}

func TestConfirmMarksJobFailedWhenConfigured(t *testing.T) {
	fx := newFixture(t, true)
	jobID := fx.stage(t, "pan,full_name\nAAAAA1111A,First\n")
	fx.clients.failPAN = "AAAAA1111A"

	_, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeCreateOnly)
	if err == nil {
		t.Fatal("expected Confirm to fail")
	}
	if got := fx.jobs.jobs[jobID].Status; got != models.ImportJobStatusFailed {
		t.Errorf("expected job marked failed, got %s", got)
	}
}

func TestConfirmRetryAfterFailureSucceeds(t *testing.T) {
	fx := newFixture(t, false)
	jobID := fx.stage(t, "pan,full_name\nAAAAA1111A,First\nBBBBB2222B,Second\n")

	fx.clients.failPAN = "BBBBB2222B"
	if _, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeCreateOnly); err == nil {
		t.Fatal("expected first Confirm to fail")
	}

	fx.clients.failPAN = ""
	counts, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeCreateOnly)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if counts.Created != 2 {
		t.Errorf("expected 2 created on retry, got %+v", counts)
	}
}

func TestConfirmRejectsForeignOfficeJob(t *testing.T) {
	fx := newFixture(t, false)
	jobID := fx.stage(t, "pan,full_name\nAAAAA1111A,First\n")

	foreign := Actor{UserID: uuid.New(), OfficeID: uuid.New()}
	_, err := fx.service.Confirm(context.Background(), foreign, jobID, ModeUpsert)
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound for foreign office, got %v", err)
	}
}

func TestConfirmRejectsUnknownJob(t *testing.T) {
	fx := newFixture(t, false)

	_, err := fx.service.Confirm(context.Background(), fx.actor, uuid.New(), ModeUpsert)
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestConfirmRejectsCompletedJob(t *testing.T) {
	fx := newFixture(t, false)
	jobID := fx.stage(t, "pan,full_name\nAAAAA1111A,First\n")

	if _, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeUpsert); err != nil {
		t.Fatalf("first Confirm error: %v", err)
	}
	_, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeUpsert)
	if !errors.Is(err, ErrJobNotPending) {
		t.Fatalf("expected ErrJobNotPending on second confirm, got %v", err)
	}
}

func TestConfirmHonorsCancellation(t *testing.T) {
	fx := newFixture(t, false)
	jobID := fx.stage(t, "pan,full_name\nAAAAA1111A,First\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fx.service.Confirm(ctx, fx.actor, jobID, ModeUpsert)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(fx.clients.clients) != 0 {
		t.Error("cancelled confirm must not mutate the store")
	}
	if got := fx.jobs.jobs[jobID].Status; got != models.ImportJobStatusPending {
		t.Errorf("job must stay pending after cancellation, got %s", got)
	}
}

func TestConfirmRevalidatesSkipsInvalidRows(t *testing.T) {
	fx := newFixture(t, false)
	jobID := fx.stage(t, "pan,full_name\nABCDE1234F,Alice\nABCDE123,Short\n")

	counts, err := fx.service.Confirm(context.Background(), fx.actor, jobID, ModeUpsert)
	if err != nil {
		t.Fatalf("Confirm error: %v", err)
	}
	if counts.Created != 1 {
		t.Errorf("only the valid row may be created, got %+v", counts)
	}
	if _, exists := fx.clients.clients[clientKey(fx.actor.OfficeID, "ABCDE123")]; exists {
		t.Error("invalid PAN must never reach the store")
	}
}

func TestParseModeRejectsUnknownModes(t *testing.T) {
	for _, valid := range []string{"create-only", "overwrite", "upsert"} {
		if _, err := ParseMode(valid); err != nil {
			t.Errorf("ParseMode(%q) unexpected error: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "merge", "CREATE-ONLY"} {
		if _, err := ParseMode(invalid); err == nil {
			t.Errorf("ParseMode(%q) expected error", invalid)
		}
	}
}
