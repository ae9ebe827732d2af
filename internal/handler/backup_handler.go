package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/middleware"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// maxImportSize bounds an uploaded export file
const maxImportSize = 20 << 20

// BackupHandler handles export, import and stored backup HTTP requests
type BackupHandler struct {
	backupService *service.BackupService
}

// NewBackupHandler creates a new BackupHandler
func NewBackupHandler(backupService *service.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// RestoreBackupRequest names the stored backup to restore
type RestoreBackupRequest struct {
	Key string `json:"key" validate:"required"`
}

func attachment(c echo.Context, filename string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
}

// ExportJSON handles GET /api/v1/backup/export.json
// @Summary Download the JSON export
// @Tags backup
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.ExportDocument
// @Router /backup/export.json [get]
func (h *BackupHandler) ExportJSON(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	doc, err := h.backupService.ExportJSON(workspaceID)
	if err != nil {
		return respondError(c, err, "Failed to export data")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return respondError(c, err, "Failed to export data")
	}

	attachment(c, h.backupService.ExportFileName("json"))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, data)
}

// ExportCSV handles GET /api/v1/backup/export.csv
// @Summary Download the job report as CSV
// @Tags backup
// @Produce text/csv
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /backup/export.csv [get]
func (h *BackupHandler) ExportCSV(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	data, err := h.backupService.ExportCSV(workspaceID)
	if err != nil {
		return respondError(c, err, "Failed to export report")
	}

	attachment(c, h.backupService.ExportFileName("csv"))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Import handles POST /api/v1/backup/import.
// The export is read from the multipart field "file" or, failing that, the raw body.
// @Summary Import a JSON export
// @Description Records with the same id are replaced. Invalid records are skipped and counted.
// @Tags backup
// @Accept json
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file false "Export file"
// @Success 200 {object} service.ImportResult
// @Failure 400 {object} ProblemDetails
// @Router /backup/import [post]
func (h *BackupHandler) Import(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	data, err := readImportPayload(c)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: err.Error()},
		})
	}

	result, err := h.backupService.Import(workspaceID, data)
	if err != nil {
		return respondError(c, err, "Failed to import data")
	}

	return c.JSON(http.StatusOK, result)
}

func readImportPayload(c echo.Context) ([]byte, error) {
	var src io.Reader = c.Request().Body
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, errors.New("File is required")
		}
		if file.Size > maxImportSize {
			return nil, errors.New("File too large. Maximum size is 20MB")
		}
		f, err := file.Open()
		if err != nil {
			log.Error().Err(err).Msg("Failed to open uploaded file")
			return nil, errors.New("Failed to read file")
		}
		defer f.Close()
		src = f
	}

	data, err := io.ReadAll(io.LimitReader(src, maxImportSize+1))
	if err != nil {
		return nil, errors.New("Failed to read file")
	}
	if len(data) > maxImportSize {
		return nil, errors.New("File too large. Maximum size is 20MB")
	}
	if len(data) == 0 {
		return nil, errors.New("File is required")
	}
	return data, nil
}

// ManualBackup handles POST /api/v1/backup/manual
// @Summary Store a backup now
// @Tags backup
// @Produce json
// @Security BearerAuth
// @Success 201 {object} service.BackupInfo
// @Router /backup/manual [post]
func (h *BackupHandler) ManualBackup(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	info, err := h.backupService.ManualBackup(c.Request().Context(), workspaceID)
	if err != nil {
		return respondError(c, err, "Failed to store backup")
	}

	return c.JSON(http.StatusCreated, info)
}

// ListBackups handles GET /api/v1/backup/list
// @Summary Stored backups, newest first
// @Tags backup
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.BackupInfo
// @Router /backup/list [get]
func (h *BackupHandler) ListBackups(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	backups, err := h.backupService.ListBackups(c.Request().Context(), workspaceID)
	if err != nil {
		return respondError(c, err, "Failed to list backups")
	}

	return c.JSON(http.StatusOK, backups)
}

// RestoreBackup handles POST /api/v1/backup/restore
// @Summary Restore a stored backup
// @Tags backup
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RestoreBackupRequest true "Backup key"
// @Success 200 {object} service.ImportResult
// @Failure 404 {object} ProblemDetails
// @Router /backup/restore [post]
func (h *BackupHandler) RestoreBackup(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req RestoreBackupRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	result, err := h.backupService.RestoreBackup(c.Request().Context(), workspaceID, req.Key)
	if err != nil {
		return respondError(c, err, "Failed to restore backup")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("key", req.Key).Msg("Backup restored")

	return c.JSON(http.StatusOK, result)
}
