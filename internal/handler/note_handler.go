package handler

import (
	"net/http"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/ledger"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/middleware"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// NoteHandler handles note HTTP requests
type NoteHandler struct {
	noteService *service.NoteService
}

// NewNoteHandler creates a new NoteHandler
func NewNoteHandler(noteService *service.NoteService) *NoteHandler {
	return &NoteHandler{noteService: noteService}
}

// NoteRequest represents the create and update note request body
type NoteRequest struct {
	Content    string              `json:"content" validate:"required"`
	CustomerID *string             `json:"customerId"`
	JobID      *string             `json:"jobId"`
	Category   domain.NoteCategory `json:"category"`
	Status     domain.NoteStatus   `json:"status"`
}

func (r NoteRequest) toInput() service.NoteInput {
	return service.NoteInput{
		Content:    r.Content,
		CustomerID: r.CustomerID,
		JobID:      r.JobID,
		Category:   r.Category,
		Status:     r.Status,
	}
}

// CreateNote handles POST /api/v1/notes
// @Summary Create a note
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NoteRequest true "Note"
// @Success 201 {object} domain.Note
// @Failure 400 {object} ProblemDetails
// @Router /notes [post]
func (h *NoteHandler) CreateNote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req NoteRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	note, err := h.noteService.CreateNote(workspaceID, req.toInput())
	if err != nil {
		return respondError(c, err, "Failed to create note")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("note_id", note.ID).Msg("Note created")

	return c.JSON(http.StatusCreated, note)
}

// ListNotes handles GET /api/v1/notes
// @Summary List notes with customer and job names
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search in content"
// @Param status query string false "aktif, tamamlandı or all"
// @Param category query string false "malzeme, ödeme, hatırlatma, genel or all"
// @Param sort query string false "date, status or category"
// @Success 200 {array} domain.NoteWithRelations
// @Failure 400 {object} ProblemDetails
// @Router /notes [get]
func (h *NoteHandler) ListNotes(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	sort, err := ledger.ParseNoteSort(c.QueryParam("sort"))
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "sort", Message: "Sort must be date, status or category"},
		})
	}

	notes, err := h.noteService.ListNotes(workspaceID, service.ListNotesInput{
		Query: c.QueryParam("q"),
		Filter: ledger.NoteFilter{
			Status:   domain.NoteStatus(c.QueryParam("status")),
			Category: domain.NoteCategory(c.QueryParam("category")),
		},
		Sort: sort,
	})
	if err != nil {
		return respondError(c, err, "Failed to list notes")
	}

	return c.JSON(http.StatusOK, notes)
}

// GetNote handles GET /api/v1/notes/:id
// @Summary Get a note
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} domain.Note
// @Failure 404 {object} ProblemDetails
// @Router /notes/{id} [get]
func (h *NoteHandler) GetNote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	note, err := h.noteService.GetNote(workspaceID, c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to get note")
	}

	return c.JSON(http.StatusOK, note)
}

// UpdateNote handles PUT /api/v1/notes/:id
// @Summary Update a note
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Param request body NoteRequest true "Note"
// @Success 200 {object} domain.Note
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /notes/{id} [put]
func (h *NoteHandler) UpdateNote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	var req NoteRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	id := c.Param("id")
	note, err := h.noteService.UpdateNote(workspaceID, id, req.toInput())
	if err != nil {
		return respondError(c, err, "Failed to update note")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("note_id", id).Msg("Note updated")

	return c.JSON(http.StatusOK, note)
}

// ToggleStatus handles PATCH /api/v1/notes/:id/toggle-status
// @Summary Flip a note between aktif and tamamlandı
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 200 {object} domain.Note
// @Failure 404 {object} ProblemDetails
// @Router /notes/{id}/toggle-status [patch]
func (h *NoteHandler) ToggleStatus(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	note, err := h.noteService.ToggleStatus(workspaceID, c.Param("id"))
	if err != nil {
		return respondError(c, err, "Failed to toggle note status")
	}

	return c.JSON(http.StatusOK, note)
}

// DeleteNote handles DELETE /api/v1/notes/:id
// @Summary Delete a note
// @Tags notes
// @Security BearerAuth
// @Param id path string true "Note ID"
// @Success 204
// @Failure 404 {object} ProblemDetails
// @Router /notes/{id} [delete]
func (h *NoteHandler) DeleteNote(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	id := c.Param("id")
	if err := h.noteService.DeleteNote(workspaceID, id); err != nil {
		return respondError(c, err, "Failed to delete note")
	}

	log.Info().Int32("workspace_id", workspaceID).Str("note_id", id).Msg("Note deleted")

	return c.NoContent(http.StatusNoContent)
}
