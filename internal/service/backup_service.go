package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/metrics"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/repository/storage"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrImportInvalidFormat = fmt.Errorf("%w: import file must be a JSON export with a jobs array", domain.ErrInvalidInput)
	ErrImportNoValidJobs   = fmt.Errorf("%w: import file contains no valid records", domain.ErrInvalidInput)
	ErrBackupNotFound      = errors.New("backup not found")
)

const (
	csvBOM           = "\ufeff"
	csvDateLayout    = "02.01.2006"
	fileDateLayout   = "02_01_2006"
	backupURLExpiry  = 15 * time.Minute
	jsonContentType  = "application/json"
	importEntityJob  = "job"
	importEntityCust = "customer"
	importEntityNote = "note"
)

var csvHeader = []string{
	"İş Adı", "Açıklama", "Malzeme Gideri", "Müşteri Ücreti", "Ödeme Durumu",
	"Ödeme Yöntemi", "Babam Vardı", "İş Tarihi", "Tahmini Ödeme Tarihi",
}

// csvStatus labels the derived payment status in reports
var csvStatus = map[domain.JobStatus]string{
	domain.JobStatusFullyPaid:     "Ödendi",
	domain.JobStatusPartiallyPaid: "Kısmi",
	domain.JobStatusUnpaid:        "Bekliyor",
}

// BackupConfig controls where manual backups go and how many are kept
type BackupConfig struct {
	Prefix string
	Retain int
}

// ImportResult counts what an import wrote and what it skipped
type ImportResult struct {
	JobsImported      int `json:"jobsImported"`
	JobsSkipped       int `json:"jobsSkipped"`
	CustomersImported int `json:"customersImported"`
	CustomersSkipped  int `json:"customersSkipped"`
	NotesImported     int `json:"notesImported"`
	NotesSkipped      int `json:"notesSkipped"`
}

// BackupInfo describes a stored backup
type BackupInfo struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
}

// BackupService exports, imports and stores workspace backups
type BackupService struct {
	jobRepo        domain.JobRepository
	customerRepo   domain.CustomerRepository
	noteRepo       domain.NoteRepository
	storage        storage.BackupRepository
	config         BackupConfig
	eventPublisher websocket.EventPublisher
	metrics        *metrics.Metrics
	now            Clock
}

// NewBackupService creates a new BackupService
func NewBackupService(
	jobRepo domain.JobRepository,
	customerRepo domain.CustomerRepository,
	noteRepo domain.NoteRepository,
	backupStorage storage.BackupRepository,
	config BackupConfig,
) *BackupService {
	return &BackupService{
		jobRepo:      jobRepo,
		customerRepo: customerRepo,
		noteRepo:     noteRepo,
		storage:      backupStorage,
		config:       config,
		now:          systemClock,
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *BackupService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the collector backups and imports are counted in
func (s *BackupService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetClock replaces the time source
func (s *BackupService) SetClock(clock Clock) {
	s.now = clock
}

func (s *BackupService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// ExportFileName names a downloaded export, e.g. elektrikci_yedek_15_03_2024.json
func (s *BackupService) ExportFileName(kind string) string {
	date := s.now().Format(fileDateLayout)
	if kind == "csv" {
		return "elektrikci_rapor_" + date + ".csv"
	}
	return "elektrikci_yedek_" + date + ".json"
}

// ExportJSON builds the full JSON export of a workspace
func (s *BackupService) ExportJSON(workspaceID int32) (*domain.ExportDocument, error) {
	doc, err := s.exportDocument(workspaceID)
	s.metrics.BackupFinished("json", err)
	return doc, err
}

func (s *BackupService) exportDocument(workspaceID int32) (*domain.ExportDocument, error) {
	jobs, err := s.jobRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	customers, err := s.customerRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	notes, err := s.noteRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	return &domain.ExportDocument{
		Version:    domain.ExportVersion,
		ExportDate: s.now().UTC(),
		Jobs:       jobs,
		TotalJobs:  len(jobs),
		Customers:  customers,
		Notes:      notes,
	}, nil
}

// ExportCSV renders the workspace's jobs as a spreadsheet-friendly report.
// The output starts with a UTF-8 BOM so Excel picks up Turkish characters.
func (s *BackupService) ExportCSV(workspaceID int32) ([]byte, error) {
	data, err := s.exportCSV(workspaceID)
	s.metrics.BackupFinished("csv", err)
	return data, err
}

func (s *BackupService) exportCSV(workspaceID int32) ([]byte, error) {
	jobs, err := s.jobRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	loc := s.now().Location()

	var b bytes.Buffer
	b.WriteString(csvBOM)
	w := csv.NewWriter(&b)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, job := range jobs {
		method, _ := job.LastPaymentMethod()
		withFather := "Hayır"
		if job.WithFather {
			withFather = "Evet"
		}
		dueDate := ""
		if job.EstimatedPaymentDate != nil {
			dueDate = job.EstimatedPaymentDate.In(loc).Format(csvDateLayout)
		}

		if err := w.Write([]string{
			job.Name,
			job.Description,
			job.Cost.String(),
			job.Price.String(),
			csvStatus[job.Status()],
			string(method),
			withFather,
			job.CreatedAt.In(loc).Format(csvDateLayout),
			dueDate,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return b.Bytes(), nil
}

// importDocument is decoded loosely so that each record can be checked on its own
type importDocument struct {
	Version   string            `json:"version"`
	Jobs      []json.RawMessage `json:"jobs"`
	Customers []json.RawMessage `json:"customers"`
	Notes     []json.RawMessage `json:"notes"`
}

// Import writes the records of a JSON export into the workspace, replacing
// records with the same id. Jobs without an id or name, with a non-numeric
// cost or price, or with an invalid payment are skipped. Every job is migrated
// before it is stored. Customers must validate and must not share a name or
// phone with another customer of the workspace or of the same file.
func (s *BackupService) Import(workspaceID int32, data []byte) (*ImportResult, error) {
	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil || doc.Jobs == nil {
		return nil, ErrImportInvalidFormat
	}
	known, err := s.customerRepo.GetAllByWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}

	jobs := make([]*domain.Job, 0, len(doc.Jobs))
	for _, raw := range doc.Jobs {
		if job, ok := decodeImportJob(raw); ok {
			job.WorkspaceID = workspaceID
			jobs = append(jobs, job)
		}
	}
	customers := make([]*domain.Customer, 0, len(doc.Customers))
	for _, raw := range doc.Customers {
		c, ok := decodeImportCustomer(raw)
		if !ok || domain.IsDuplicateCustomer(known, c.Name, c.Phone, c.ID) {
			continue
		}
		c.WorkspaceID = workspaceID
		customers = append(customers, c)
		known = replaceCustomer(known, c)
	}
	notes := make([]*domain.Note, 0, len(doc.Notes))
	for _, raw := range doc.Notes {
		if n, ok := decodeImportNote(raw); ok {
			n.WorkspaceID = workspaceID
			notes = append(notes, n)
		}
	}

	result := &ImportResult{
		JobsSkipped:      len(doc.Jobs) - len(jobs),
		CustomersSkipped: len(doc.Customers) - len(customers),
		NotesSkipped:     len(doc.Notes) - len(notes),
	}
	if len(jobs) == 0 && len(customers) == 0 && len(notes) == 0 {
		return nil, ErrImportNoValidJobs
	}

	for _, c := range customers {
		if _, err := s.customerRepo.Upsert(c); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				result.CustomersSkipped++
				continue
			}
			return nil, fmt.Errorf("import customer %s: %w", c.ID, err)
		}
		result.CustomersImported++
	}
	for _, job := range jobs {
		if _, err := s.jobRepo.Upsert(job); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				result.JobsSkipped++
				continue
			}
			return nil, fmt.Errorf("import job %s: %w", job.ID, err)
		}
		result.JobsImported++
	}
	for _, n := range notes {
		if _, err := s.noteRepo.Upsert(n); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				result.NotesSkipped++
				continue
			}
			return nil, fmt.Errorf("import note %s: %w", n.ID, err)
		}
		result.NotesImported++
	}

	s.metrics.RecordsImported(importEntityJob, "upserted", result.JobsImported)
	s.metrics.RecordsImported(importEntityJob, "skipped", result.JobsSkipped)
	s.metrics.RecordsImported(importEntityCust, "upserted", result.CustomersImported)
	s.metrics.RecordsImported(importEntityCust, "skipped", result.CustomersSkipped)
	s.metrics.RecordsImported(importEntityNote, "upserted", result.NotesImported)
	s.metrics.RecordsImported(importEntityNote, "skipped", result.NotesSkipped)

	log.Info().
		Int32("workspace_id", workspaceID).
		Int("jobs", result.JobsImported).
		Int("jobs_skipped", result.JobsSkipped).
		Int("customers", result.CustomersImported).
		Int("notes", result.NotesImported).
		Msg("Import finished")

	s.publishEvent(workspaceID, websocket.BackupImported(result))
	return result, nil
}

func decodeImportJob(raw json.RawMessage) (*domain.Job, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	if !isNumeric(fields["cost"]) || !isNumeric(fields["price"]) {
		return nil, false
	}
	var job domain.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, false
	}
	if job.ID == "" || job.Validate() != nil {
		return nil, false
	}
	for i := range job.Payments {
		if job.Payments[i].Validate() != nil {
			return nil, false
		}
	}
	return domain.MigrateJob(&job), true
}

func decodeImportCustomer(raw json.RawMessage) (*domain.Customer, bool) {
	var c domain.Customer
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = domain.FormatPhone(strings.TrimSpace(c.Phone))
	if c.ID == "" || c.Validate() != nil {
		return nil, false
	}
	return &c, true
}

// replaceCustomer swaps the entry with c's id for c, or appends c
func replaceCustomer(customers []*domain.Customer, c *domain.Customer) []*domain.Customer {
	for i, existing := range customers {
		if existing.ID == c.ID {
			customers[i] = c
			return customers
		}
	}
	return append(customers, c)
}

func decodeImportNote(raw json.RawMessage) (*domain.Note, bool) {
	var n domain.Note
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, false
	}
	if n.Category == "" {
		n.Category = domain.NoteCategoryGeneral
	}
	if n.Status == "" {
		n.Status = domain.NoteStatusActive
	}
	if n.ID == "" || n.Validate() != nil {
		return nil, false
	}
	return &n, true
}

// isNumeric reports whether raw is a JSON number or a string holding a
// decimal. Money is written as a decimal string by this service and as a
// number by older clients.
func isNumeric(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return false
		}
		_, err := decimal.NewFromString(s)
		return err == nil
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}

// ManualBackup stores the JSON export of the workspace and prunes old backups
func (s *BackupService) ManualBackup(ctx context.Context, workspaceID int32) (*BackupInfo, error) {
	info, err := s.manualBackup(ctx, workspaceID)
	s.metrics.BackupFinished("storage", err)
	return info, err
}

func (s *BackupService) manualBackup(ctx context.Context, workspaceID int32) (*BackupInfo, error) {
	doc, err := s.exportDocument(workspaceID)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	now := s.now()
	key := storage.BackupKey(s.config.Prefix, workspaceID, now, ".json")
	if err := s.storage.Upload(ctx, key, data, jsonContentType); err != nil {
		log.Error().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to upload backup")
		return nil, err
	}
	log.Info().Int32("workspace_id", workspaceID).Str("key", key).Int("jobs", doc.TotalJobs).Msg("Backup stored")

	if err := s.prune(ctx, workspaceID); err != nil {
		log.Warn().Err(err).Int32("workspace_id", workspaceID).Msg("Failed to prune old backups")
	}

	info := &BackupInfo{Key: key, Size: int64(len(data)), CreatedAt: now}
	if url, err := s.storage.GeneratePresignedURL(ctx, key, backupURLExpiry); err == nil {
		info.DownloadURL = url
	}
	return info, nil
}

// prune deletes everything but the newest Retain backups. Zero keeps all.
func (s *BackupService) prune(ctx context.Context, workspaceID int32) error {
	if s.config.Retain <= 0 {
		return nil
	}
	objects, err := s.storage.List(ctx, storage.WorkspacePrefix(s.config.Prefix, workspaceID))
	if err != nil {
		return err
	}
	if len(objects) <= s.config.Retain {
		return nil
	}
	for _, obj := range objects[s.config.Retain:] {
		if err := s.storage.Delete(ctx, obj.Key); err != nil {
			return err
		}
	}
	return nil
}

// ListBackups returns the workspace's stored backups, newest first
func (s *BackupService) ListBackups(ctx context.Context, workspaceID int32) ([]BackupInfo, error) {
	objects, err := s.storage.List(ctx, storage.WorkspacePrefix(s.config.Prefix, workspaceID))
	if err != nil {
		return nil, err
	}
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		info := BackupInfo{Key: obj.Key, Size: obj.Size, CreatedAt: obj.LastModified}
		if url, err := s.storage.GeneratePresignedURL(ctx, obj.Key, backupURLExpiry); err == nil {
			info.DownloadURL = url
		}
		backups = append(backups, info)
	}
	return backups, nil
}

// RestoreBackup imports a stored backup. Keys outside the workspace's prefix are not found.
func (s *BackupService) RestoreBackup(ctx context.Context, workspaceID int32, key string) (*ImportResult, error) {
	if !strings.HasPrefix(key, storage.WorkspacePrefix(s.config.Prefix, workspaceID)) || strings.Contains(key, "..") {
		return nil, ErrBackupNotFound
	}
	data, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrBackupNotFound) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}
	result, err := s.Import(workspaceID, data)
	s.metrics.BackupFinished("restore", err)
	return result, err
}
