package postgres

import (
	"context"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const noteColumns = `id, workspace_id, content, customer_id, job_id, category, status, created_at, updated_at`

// NoteRepository implements domain.NoteRepository using PostgreSQL
type NoteRepository struct {
	pool *pgxpool.Pool
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

// Create creates a new note
func (r *NoteRepository) Create(note *domain.Note) (*domain.Note, error) {
	row := r.pool.QueryRow(context.Background(),
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+noteColumns, noteArgs(note)...)
	created, err := scanNote(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a note by its ID within a workspace
func (r *NoteRepository) GetByID(workspaceID int32, id string) (*domain.Note, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+noteColumns+` FROM notes WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id)
	return scanNote(row)
}

// GetAllByWorkspace retrieves every note of a workspace, newest first
func (r *NoteRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Note, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+noteColumns+` FROM notes
		 WHERE workspace_id = $1
		 ORDER BY created_at DESC, id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]*domain.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Update updates an existing note
func (r *NoteRepository) Update(note *domain.Note) (*domain.Note, error) {
	row := r.pool.QueryRow(context.Background(),
		`UPDATE notes SET
		     content = $3, customer_id = $4, job_id = $5, category = $6, status = $7,
		     created_at = $8, updated_at = $9
		 WHERE id = $1 AND workspace_id = $2
		 RETURNING `+noteColumns, noteArgs(note)...)
	return scanNote(row)
}

// Upsert inserts a note or replaces the one with the same ID in the same workspace
func (r *NoteRepository) Upsert(note *domain.Note) (*domain.Note, error) {
	row := r.pool.QueryRow(context.Background(),
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		     content = EXCLUDED.content, customer_id = EXCLUDED.customer_id,
		     job_id = EXCLUDED.job_id, category = EXCLUDED.category, status = EXCLUDED.status,
		     created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at
		 WHERE notes.workspace_id = EXCLUDED.workspace_id
		 RETURNING `+noteColumns, noteArgs(note)...)
	upserted, err := scanNote(row)
	if err == domain.ErrNoteNotFound {
		return nil, domain.ErrAlreadyExists
	}
	return upserted, err
}

// Delete removes a note
func (r *NoteRepository) Delete(workspaceID int32, id string) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM notes WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

// DeleteByCustomer removes the notes attached to a customer
func (r *NoteRepository) DeleteByCustomer(workspaceID int32, customerID string) (int64, error) {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM notes WHERE workspace_id = $1 AND customer_id = $2`, workspaceID, customerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func noteArgs(n *domain.Note) []any {
	return []any{
		n.ID,
		n.WorkspaceID,
		n.Content,
		stringPtrToPgText(n.CustomerID),
		stringPtrToPgText(n.JobID),
		string(n.Category),
		string(n.Status),
		n.CreatedAt,
		n.UpdatedAt,
	}
}

func scanNote(row rowScanner) (*domain.Note, error) {
	var (
		n                 domain.Note
		customerID, jobID pgtype.Text
		category, status  string
	)
	err := row.Scan(&n.ID, &n.WorkspaceID, &n.Content, &customerID, &jobID, &category, &status, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNoteNotFound
		}
		return nil, err
	}
	n.CustomerID = pgTextToStringPtr(customerID)
	n.JobID = pgTextToStringPtr(jobID)
	n.Category = domain.NoteCategory(category)
	n.Status = domain.NoteStatus(status)
	return &n, nil
}
