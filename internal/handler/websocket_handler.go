package handler

import (
	"context"
	"net/http"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/middleware"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// JWTValidator validates JWT tokens and returns the workspace ID
type JWTValidator interface {
	ValidateToken(ctx context.Context, token string) (workspaceID int32, err error)
}

// SnapshotProvider reads the full state of a workspace
type SnapshotProvider interface {
	GetSnapshot(workspaceID int32) (*domain.Snapshot, error)
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *websocket.Hub
	validator      JWTValidator
	snapshots      SnapshotProvider
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, validator JWTValidator, snapshots SnapshotProvider, allowedOrigins []string) *WebSocketHandler {
	// Build origin lookup map
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		validator:      validator,
		snapshots:      snapshots,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests with no Origin header (e.g., same-origin or non-browser clients)
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// HandleWS handles WebSocket connection requests at GET /ws
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	// Get token from query parameter
	token := c.QueryParam("token")
	if token == "" {
		log.Debug().Msg("WebSocket connection rejected: missing token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	// Validate JWT and get workspace ID
	workspaceID, err := h.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket connection rejected: invalid token")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	// Register before priming so no broadcast falls between snapshot and stream
	client := websocket.NewClient(conn, workspaceID, h.hub)
	client.OnSnapshotRequest(h.sendSnapshot)
	h.hub.Register(client)

	log.Info().
		Int32("workspace_id", workspaceID).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	h.sendSnapshot(client)

	// Start read/write pumps in goroutines
	go client.WritePump()
	go client.ReadPump()

	return nil
}

// sendSnapshot pushes the current workspace state to one client
func (h *WebSocketHandler) sendSnapshot(client *websocket.Client) {
	var loadErr error
	err := h.hub.SendBuiltTo(client, func() (websocket.Event, error) {
		snapshot, err := h.snapshots.GetSnapshot(client.WorkspaceID())
		if err != nil {
			loadErr = err
			return websocket.Event{}, err
		}
		return websocket.SnapshotUpdated(snapshot), nil
	})
	switch {
	case loadErr != nil:
		log.Error().Err(loadErr).Int32("workspace_id", client.WorkspaceID()).Msg("Failed to load snapshot for client")
	case err != nil:
		log.Warn().Err(err).Str("client_id", client.ID()).Msg("Failed to send snapshot to client")
	}
}

// SnapshotHandler serves the full workspace state over HTTP
type SnapshotHandler struct {
	snapshots SnapshotProvider
}

// NewSnapshotHandler creates a new SnapshotHandler
func NewSnapshotHandler(snapshots SnapshotProvider) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots}
}

// GetSnapshot handles GET /api/v1/snapshot
// @Summary Full workspace state
// @Description Jobs, customers and notes, with jobs migrated to the payments list shape.
// @Tags snapshot
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Snapshot
// @Router /snapshot [get]
func (h *SnapshotHandler) GetSnapshot(c echo.Context) error {
	workspaceID := middleware.GetWorkspaceID(c)
	if workspaceID == 0 {
		return NewUnauthorizedError(c, "Workspace required")
	}

	snapshot, err := h.snapshots.GetSnapshot(workspaceID)
	if err != nil {
		return respondError(c, err, "Failed to load snapshot")
	}

	return c.JSON(http.StatusOK, snapshot)
}
