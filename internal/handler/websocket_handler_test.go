package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockJWTValidator is a test double for JWT validation
type mockJWTValidator struct {
	workspaceID int32
	err         error
}

func (m *mockJWTValidator) ValidateToken(ctx context.Context, token string) (workspaceID int32, err error) {
	return m.workspaceID, m.err
}

// mockSnapshotProvider counts how often a snapshot was built
type mockSnapshotProvider struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockSnapshotProvider) GetSnapshot(workspaceID int32) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Snapshot{
		Jobs:        []*domain.Job{{ID: "j1", Name: "Pano", Payments: []domain.Payment{}}},
		Customers:   []*domain.Customer{},
		Notes:       []*domain.Note{},
		GeneratedAt: fixedNow,
	}, nil
}

func (m *mockSnapshotProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var testAllowedOrigins = []string{"http://localhost:3000", "https://elektrikci.app"}

func TestWebSocketHandler_HandleWS_MissingToken(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	validator := &mockJWTValidator{workspaceID: 1, err: nil}
	h := NewWebSocketHandler(hub, validator, &mockSnapshotProvider{}, testAllowedOrigins)

	// Request without token
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	// Should return 401 for missing token
	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestWebSocketHandler_HandleWS_InvalidToken(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	validator := &mockJWTValidator{workspaceID: 0, err: errors.New("token expired")}
	h := NewWebSocketHandler(hub, validator, &mockSnapshotProvider{}, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=invalid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestWebSocketHandler_HandleWS_ValidToken_NoUpgrade(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	snapshots := &mockSnapshotProvider{}
	validator := &mockJWTValidator{workspaceID: 42, err: nil}
	h := NewWebSocketHandler(hub, validator, snapshots, testAllowedOrigins)

	// Request with valid token but not a WebSocket upgrade request
	req := httptest.NewRequest(http.MethodGet, "/ws?token=valid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	// gorilla/websocket returns an error when upgrade fails (no upgrade headers)
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "token")
	assert.Equal(t, 0, hub.ClientCount(42))
	assert.Equal(t, 0, snapshots.Calls())
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	hub := websocket.NewHub()
	validator := &mockJWTValidator{workspaceID: 1, err: nil}
	h := NewWebSocketHandler(hub, validator, &mockSnapshotProvider{}, testAllowedOrigins)

	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"allowed origin", "http://localhost:3000", true},
		{"allowed origin https", "https://elektrikci.app", true},
		{"disallowed origin", "https://evil.com", false},
		{"empty origin (same-origin)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			result := h.checkOrigin(req)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func readEvent(t *testing.T, conn *ws.Conn) websocket.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event websocket.Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestWebSocketHandler_SnapshotOnConnectAndRequest(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	snapshots := &mockSnapshotProvider{}
	h := NewWebSocketHandler(hub, &mockJWTValidator{workspaceID: 7}, snapshots, testAllowedOrigins)
	e.GET("/ws", h.HandleWS)

	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=valid-jwt"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readEvent(t, conn)
	assert.Equal(t, "snapshot.updated", first.Type)
	assert.Equal(t, websocket.EntityTypeSnapshot, first.Entity)
	assert.Equal(t, uint64(0), first.Seq)

	payload, ok := first.Payload.(map[string]interface{})
	require.True(t, ok)
	jobs, ok := payload["jobs"].([]interface{})
	require.True(t, ok)
	assert.Len(t, jobs, 1)

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{"type":"snapshot.request"}`)))

	second := readEvent(t, conn)
	assert.Equal(t, "snapshot.updated", second.Type)
	assert.Equal(t, 2, snapshots.Calls())
	assert.Equal(t, 1, hub.ClientCount(7))
}

func TestWebSocketHandler_SnapshotFailureKeepsConnection(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	snapshots := &mockSnapshotProvider{err: errors.New("database unavailable")}
	h := NewWebSocketHandler(hub, &mockJWTValidator{workspaceID: 8}, snapshots, testAllowedOrigins)
	e.GET("/ws", h.HandleWS)

	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=valid-jwt"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount(8) == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Broadcast(8, websocket.JobDeleted("j1"))

	event := readEvent(t, conn)
	assert.Equal(t, "job.deleted", event.Type)
	assert.Equal(t, uint64(1), event.Seq)
}

func TestSnapshotHandler_GetSnapshot(t *testing.T) {
	e := newTestEcho()
	h := NewSnapshotHandler(&mockSnapshotProvider{})

	c, rec := newWorkspaceContext(e, http.MethodGet, "/api/v1/snapshot", nil)
	require.NoError(t, h.GetSnapshot(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var snapshot domain.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Len(t, snapshot.Jobs, 1)
}
