package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/repository/storage"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/service"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const importDocumentJSON = `{
	"version": "1.0",
	"jobs": [
		{"id": "j9", "name": "Aydınlatma", "cost": 20, "price": "150.50", "payments": [], "createdAt": "2024-03-01T09:00:00Z"},
		{"id": "", "name": "Kimliksiz", "cost": 0, "price": 10},
		{"id": "j10", "name": "Eski kayıt", "cost": 0, "price": 80, "isPaid": true, "paymentMethod": "IBAN", "createdAt": "2023-12-01T09:00:00Z"}
	],
	"customers": [{"id": "c9", "name": "Fatma Şahin", "phone": "0555 123 45 67"}],
	"notes": [{"id": "n9", "content": "Topraklama kontrol", "jobId": "j9"}]
}`

type backupHandlerFixture struct {
	handler      *BackupHandler
	jobRepo      *testutil.MockJobRepository
	customerRepo *testutil.MockCustomerRepository
	noteRepo     *testutil.MockNoteRepository
	storage      *storage.MemoryBackupRepository
}

func newBackupHandlerFixture() *backupHandlerFixture {
	f := &backupHandlerFixture{
		jobRepo:      testutil.NewMockJobRepository(),
		customerRepo: testutil.NewMockCustomerRepository(),
		noteRepo:     testutil.NewMockNoteRepository(),
		storage:      storage.NewMemoryBackupRepository(),
	}
	backupService := service.NewBackupService(f.jobRepo, f.customerRepo, f.noteRepo, f.storage, service.BackupConfig{
		Prefix: "backups",
		Retain: 5,
	})
	backupService.SetClock(testClock)
	f.handler = NewBackupHandler(backupService)
	return f
}

func (f *backupHandlerFixture) addJob(id string, price int64) {
	f.jobRepo.AddJob(&domain.Job{
		ID:          id,
		WorkspaceID: testWorkspaceID,
		Name:        "İş " + id,
		Price:       decimal.NewFromInt(price),
		CreatedAt:   fixedNow,
	})
}

func TestExportJSON_Attachment(t *testing.T) {
	e := newTestEcho()
	f := newBackupHandlerFixture()
	f.addJob("j1", 100)

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/backup/export.json", nil)
	if err := f.handler.ExportJSON(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="elektrikci_yedek_15_03_2024.json"` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}

	var doc domain.ExportDocument
	decodeJSON(t, rec, &doc)
	if doc.Version != domain.ExportVersion || doc.TotalJobs != 1 {
		t.Errorf("Expected version %s with 1 job, got %s with %d", domain.ExportVersion, doc.Version, doc.TotalJobs)
	}
}

func TestExportCSV_Attachment(t *testing.T) {
	e := newTestEcho()
	f := newBackupHandlerFixture()
	f.addJob("j1", 100)

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/backup/export.csv", nil)
	if err := f.handler.ExportCSV(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Expected CSV content type, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="elektrikci_rapor_15_03_2024.csv"` {
		t.Errorf("Unexpected Content-Disposition %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "\ufeff") {
		t.Error("Expected the report to start with a BOM")
	}
}

func TestImport_RawBody(t *testing.T) {
	e := newTestEcho()
	f := newBackupHandlerFixture()

	c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/backup/import", jsonBody(importDocumentJSON))
	if err := f.handler.Import(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	var result service.ImportResult
	decodeJSON(t, rec, &result)
	if result.JobsImported != 2 || result.JobsSkipped != 1 {
		t.Errorf("Expected 2 imported and 1 skipped job, got %+v", result)
	}
	if result.CustomersImported != 1 || result.NotesImported != 1 {
		t.Errorf("Expected customer and note to be imported, got %+v", result)
	}

	legacy, err := f.jobRepo.GetByID(testWorkspaceID, "j10")
	if err != nil {
		t.Fatalf("Expected legacy job to be stored: %v", err)
	}
	if len(legacy.Payments) != 1 || !legacy.IsFullyPaid() {
		t.Errorf("Expected legacy job migrated to one full payment, got %+v", legacy.Payments)
	}
}

func TestImport_Multipart(t *testing.T) {
	e := newTestEcho()
	f := newBackupHandlerFixture()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "elektrikci_yedek.json")
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write([]byte(importDocumentJSON))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/backup/import", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	setupAuthContextWithWorkspace(c, "auth0|usta", "", "", "", testWorkspaceID)

	if err := f.handler.Import(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	if len(f.jobRepo.Jobs) != 2 {
		t.Errorf("Expected 2 stored jobs, got %d", len(f.jobRepo.Jobs))
	}
}

func TestImport_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "İş Adı,Açıklama"},
		{"no jobs array", `{"version": "1.0"}`},
		{"nothing valid", `{"jobs": [{"id": "x", "name": "Bozuk", "cost": "abc", "price": 10}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			f := newBackupHandlerFixture()

			c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/backup/import", strings.NewReader(tt.body))
			if err := f.handler.Import(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			expectStatus(t, rec, http.StatusBadRequest)
			if len(f.jobRepo.Jobs) != 0 {
				t.Error("Expected nothing to be stored")
			}
		})
	}
}

func TestManualBackupListAndRestore(t *testing.T) {
	e := newTestEcho()
	f := newBackupHandlerFixture()
	f.addJob("j1", 100)

	c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/backup/manual", nil)
	if err := f.handler.ManualBackup(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusCreated)

	var info service.BackupInfo
	decodeJSON(t, rec, &info)
	if !strings.HasPrefix(info.Key, "backups/1/") {
		t.Errorf("Expected key under the workspace prefix, got %s", info.Key)
	}

	c, rec = newWorkspaceContext(e, http.MethodGet, "/api/v1/backup/list", nil)
	if err := f.handler.ListBackups(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	var backups []service.BackupInfo
	decodeJSON(t, rec, &backups)
	if len(backups) != 1 || backups[0].Key != info.Key {
		t.Fatalf("Expected the stored backup to be listed, got %+v", backups)
	}

	delete(f.jobRepo.Jobs, "j1")

	payload, _ := json.Marshal(RestoreBackupRequest{Key: info.Key})
	c, rec = newWorkspaceContext(e, http.MethodPost, "/api/v1/backup/restore", bytes.NewReader(payload))
	if err := f.handler.RestoreBackup(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expectStatus(t, rec, http.StatusOK)

	if _, ok := f.jobRepo.Jobs["j1"]; !ok {
		t.Error("Expected job to be restored")
	}
}

func TestRestoreBackup_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"missing key", `{}`, http.StatusBadRequest},
		{"unknown key", `{"key": "backups/1/elektrikci-yedek-20240101T000000Z.json"}`, http.StatusNotFound},
		{"other workspace", `{"key": "backups/2/elektrikci-yedek-20240101T000000Z.json"}`, http.StatusNotFound},
		{"path traversal", `{"key": "backups/1/../2/elektrikci-yedek.json"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEcho()
			f := newBackupHandlerFixture()

			c, rec := newWorkspaceContext(e, http.MethodPost, "/api/v1/backup/restore", jsonBody(tt.body))
			if err := f.handler.RestoreBackup(c); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			expectStatus(t, rec, tt.wantStatus)
		})
	}
}
