package handler

import (
	"github.com/dafibh/elektrikci/elektrikci-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth      *AuthHandler
	Job       *JobHandler
	Customer  *CustomerHandler
	Note      *NoteHandler
	Backup    *BackupHandler
	Snapshot  *SnapshotHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	// Websocket authenticates with the token query parameter
	e.GET("/ws", h.WebSocket.HandleWS)

	// API version 1
	api := e.Group("/api/v1")

	// The callback runs before the user has a workspace
	auth := api.Group("/auth")
	auth.POST("/callback", h.Auth.Callback, authMiddleware.AuthenticateToken())

	// Everything else needs a workspace and is rate limited per workspace
	protected := api.Group("", authMiddleware.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))

	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/logout", h.Auth.Logout)

	protected.GET("/profile", h.Auth.GetProfile)
	protected.PUT("/profile", h.Auth.UpdateProfile)

	protected.GET("/snapshot", h.Snapshot.GetSnapshot)
	protected.GET("/stats", h.Job.GetStats)

	// Job routes
	jobs := protected.Group("/jobs")
	jobs.GET("", h.Job.ListJobs)
	jobs.POST("", h.Job.CreateJob)
	jobs.GET("/pending", h.Job.GetPendingPayments)
	jobs.GET("/:id", h.Job.GetJob)
	jobs.PUT("/:id", h.Job.UpdateJob)
	jobs.DELETE("/:id", h.Job.DeleteJob)
	jobs.POST("/:id/payments", h.Job.AddPayment)
	jobs.GET("/:id/notes", h.Job.GetJobNotes)

	// Customer routes
	customers := protected.Group("/customers")
	customers.GET("", h.Customer.ListCustomers)
	customers.POST("", h.Customer.CreateCustomer)
	customers.GET("/top", h.Customer.TopCustomers)
	customers.GET("/:id", h.Customer.GetCustomer)
	customers.PUT("/:id", h.Customer.UpdateCustomer)
	customers.DELETE("/:id", h.Customer.DeleteCustomer)
	customers.GET("/:id/statement.pdf", h.Customer.GetStatementPDF)

	// Note routes
	notes := protected.Group("/notes")
	notes.GET("", h.Note.ListNotes)
	notes.POST("", h.Note.CreateNote)
	notes.GET("/:id", h.Note.GetNote)
	notes.PUT("/:id", h.Note.UpdateNote)
	notes.PATCH("/:id/toggle-status", h.Note.ToggleStatus)
	notes.DELETE("/:id", h.Note.DeleteNote)

	// Backup routes
	backup := protected.Group("/backup")
	backup.GET("/export.json", h.Backup.ExportJSON)
	backup.GET("/export.csv", h.Backup.ExportCSV)
	backup.POST("/import", h.Backup.Import)
	backup.POST("/manual", h.Backup.ManualBackup)
	backup.GET("/list", h.Backup.ListBackups)
	backup.POST("/restore", h.Backup.RestoreBackup)
}
