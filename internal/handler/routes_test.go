package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

type noWorkspaces struct{}

func (noWorkspaces) GetWorkspaceByAuth0ID(string) (int32, error) { return 0, nil }

func newRoutedEcho(t *testing.T) *echo.Echo {
	t.Helper()
	authMiddleware, err := middleware.NewAuthMiddleware("test.auth0.com", "https://api.test", noWorkspaces{})
	if err != nil {
		t.Fatalf("Failed to create auth middleware: %v", err)
	}
	rateLimiter := middleware.NewRateLimiterWithConfig(60, 10)
	t.Cleanup(rateLimiter.Stop)

	authHandler, _, _ := newAuthHandler()
	e := newTestEcho()
	RegisterRoutes(e, authMiddleware, rateLimiter, Handlers{
		Auth:      authHandler,
		Job:       &JobHandler{},
		Customer:  &CustomerHandler{},
		Note:      &NoteHandler{},
		Backup:    &BackupHandler{},
		Snapshot:  &SnapshotHandler{},
		WebSocket: &WebSocketHandler{},
	})
	return e
}

func TestRegisterRoutes_RegistersHTTPSurface(t *testing.T) {
	e := newRoutedEcho(t)

	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	expected := []string{
		"GET /ws",
		"POST /api/v1/auth/callback",
		"GET /api/v1/auth/me",
		"POST /api/v1/auth/logout",
		"GET /api/v1/profile",
		"PUT /api/v1/profile",
		"GET /api/v1/snapshot",
		"GET /api/v1/stats",
		"GET /api/v1/jobs",
		"POST /api/v1/jobs",
		"GET /api/v1/jobs/pending",
		"GET /api/v1/jobs/:id",
		"PUT /api/v1/jobs/:id",
		"DELETE /api/v1/jobs/:id",
		"POST /api/v1/jobs/:id/payments",
		"GET /api/v1/jobs/:id/notes",
		"GET /api/v1/customers",
		"POST /api/v1/customers",
		"GET /api/v1/customers/top",
		"GET /api/v1/customers/:id",
		"PUT /api/v1/customers/:id",
		"DELETE /api/v1/customers/:id",
		"GET /api/v1/customers/:id/statement.pdf",
		"GET /api/v1/notes",
		"POST /api/v1/notes",
		"GET /api/v1/notes/:id",
		"PUT /api/v1/notes/:id",
		"PATCH /api/v1/notes/:id/toggle-status",
		"DELETE /api/v1/notes/:id",
		"GET /api/v1/backup/export.json",
		"GET /api/v1/backup/export.csv",
		"POST /api/v1/backup/import",
		"POST /api/v1/backup/manual",
		"GET /api/v1/backup/list",
		"POST /api/v1/backup/restore",
	}
	for _, route := range expected {
		if !registered[route] {
			t.Errorf("Expected route %s to be registered", route)
		}
	}
}

func TestRegisterRoutes_ProtectedWithoutToken(t *testing.T) {
	e := newRoutedEcho(t)

	for _, target := range []string{"/api/v1/jobs", "/api/v1/customers", "/api/v1/snapshot"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status 401, got %d", target, rec.Code)
		}
	}
}
