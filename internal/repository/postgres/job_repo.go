package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = `id, workspace_id, name, description, cost, price, payments,
	estimated_payment_date, with_father, customer_id, is_paid, payment_method,
	created_at, updated_at`

// JobRepository implements domain.JobRepository using PostgreSQL.
// Payments live in a JSONB array so a job and its ledger are written together.
type JobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

// Create inserts a new job
func (r *JobRepository) Create(job *domain.Job) (*domain.Job, error) {
	args, err := jobArgs(job)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(),
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING `+jobColumns, args...)
	created, err := scanJob(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a job by its ID within a workspace
func (r *JobRepository) GetByID(workspaceID int32, id string) (*domain.Job, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+jobColumns+` FROM jobs WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id)
	return scanJob(row)
}

// GetAllByWorkspace retrieves every job of a workspace, newest first
func (r *JobRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Job, error) {
	return r.list(
		`SELECT `+jobColumns+` FROM jobs
		 WHERE workspace_id = $1
		 ORDER BY created_at DESC, id`, workspaceID)
}

// GetByCustomer retrieves the jobs referencing a customer, newest first
func (r *JobRepository) GetByCustomer(workspaceID int32, customerID string) ([]*domain.Job, error) {
	return r.list(
		`SELECT `+jobColumns+` FROM jobs
		 WHERE workspace_id = $1 AND customer_id = $2
		 ORDER BY created_at DESC, id`, workspaceID, customerID)
}

func (r *JobRepository) list(query string, args ...any) ([]*domain.Job, error) {
	rows, err := r.pool.Query(context.Background(), query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*domain.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Update replaces the stored fields of a job, payments included
func (r *JobRepository) Update(job *domain.Job) (*domain.Job, error) {
	args, err := jobArgs(job)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(),
		`UPDATE jobs SET
		     name = $3, description = $4, cost = $5, price = $6, payments = $7,
		     estimated_payment_date = $8, with_father = $9, customer_id = $10,
		     is_paid = $11, payment_method = $12, created_at = $13, updated_at = $14
		 WHERE id = $1 AND workspace_id = $2
		 RETURNING `+jobColumns, args...)
	return scanJob(row)
}

// AppendPayment adds payment to the end of a job's ledger and updates its due date.
// The row is locked and migrated first so a legacy paid job keeps its payment,
// and the balance is checked against the locked row.
func (r *JobRepository) AppendPayment(workspaceID int32, jobID string, payment domain.Payment, estimatedPaymentDate *time.Time) (*domain.Job, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := scanJob(tx.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE workspace_id = $1 AND id = $2 FOR UPDATE`,
		workspaceID, jobID))
	if err != nil {
		return nil, err
	}

	if err := current.ApplyPayment(payment, estimatedPaymentDate); err != nil {
		return nil, err
	}
	payments, err := json.Marshal(current.Payments)
	if err != nil {
		return nil, fmt.Errorf("encode payments: %w", err)
	}

	updated, err := scanJob(tx.QueryRow(ctx,
		`UPDATE jobs SET
		     payments = $3, estimated_payment_date = $4,
		     is_paid = NULL, payment_method = NULL, updated_at = now()
		 WHERE workspace_id = $1 AND id = $2
		 RETURNING `+jobColumns,
		workspaceID, jobID, payments, timePtrToPgTimestamptz(current.EstimatedPaymentDate)))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// Upsert inserts a job or replaces the one with the same ID.
// A row with that ID in another workspace is left alone and reported as ErrAlreadyExists.
func (r *JobRepository) Upsert(job *domain.Job) (*domain.Job, error) {
	args, err := jobArgs(job)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(context.Background(),
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name, description = EXCLUDED.description,
		     cost = EXCLUDED.cost, price = EXCLUDED.price, payments = EXCLUDED.payments,
		     estimated_payment_date = EXCLUDED.estimated_payment_date,
		     with_father = EXCLUDED.with_father, customer_id = EXCLUDED.customer_id,
		     is_paid = EXCLUDED.is_paid, payment_method = EXCLUDED.payment_method,
		     created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at
		 WHERE jobs.workspace_id = EXCLUDED.workspace_id
		 RETURNING `+jobColumns, args...)
	upserted, err := scanJob(row)
	if err == domain.ErrJobNotFound {
		return nil, domain.ErrAlreadyExists
	}
	return upserted, err
}

// Delete removes a job
func (r *JobRepository) Delete(workspaceID int32, id string) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM jobs WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// DeleteByCustomer removes every job referencing a customer and reports how many went
func (r *JobRepository) DeleteByCustomer(workspaceID int32, customerID string) (int64, error) {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM jobs WHERE workspace_id = $1 AND customer_id = $2`, workspaceID, customerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Helper functions

// jobArgs lays out job in jobColumns order
func jobArgs(job *domain.Job) ([]any, error) {
	cost, err := decimalToPgNumeric(job.Cost)
	if err != nil {
		return nil, fmt.Errorf("encode cost: %w", err)
	}
	price, err := decimalToPgNumeric(job.Price)
	if err != nil {
		return nil, fmt.Errorf("encode price: %w", err)
	}
	payments := job.Payments
	if payments == nil {
		payments = []domain.Payment{}
	}
	paymentsJSON, err := json.Marshal(payments)
	if err != nil {
		return nil, fmt.Errorf("encode payments: %w", err)
	}

	isPaid := pgtype.Bool{}
	if job.IsPaid != nil {
		isPaid = pgtype.Bool{Bool: *job.IsPaid, Valid: true}
	}
	method := pgtype.Text{}
	if job.PaymentMethod != nil {
		method = pgtype.Text{String: string(*job.PaymentMethod), Valid: true}
	}

	return []any{
		job.ID,
		job.WorkspaceID,
		job.Name,
		job.Description,
		cost,
		price,
		paymentsJSON,
		timePtrToPgTimestamptz(job.EstimatedPaymentDate),
		job.WithFather,
		stringPtrToPgText(job.CustomerID),
		isPaid,
		method,
		job.CreatedAt,
		job.UpdatedAt,
	}, nil
}

// scanJob reads one row in jobColumns order and returns the migrated job
func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job          domain.Job
		cost, price  pgtype.Numeric
		payments     []byte
		due          pgtype.Timestamptz
		customerID   pgtype.Text
		isPaid       pgtype.Bool
		legacyMethod pgtype.Text
	)
	err := row.Scan(
		&job.ID, &job.WorkspaceID, &job.Name, &job.Description, &cost, &price, &payments,
		&due, &job.WithFather, &customerID, &isPaid, &legacyMethod,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}

	job.Cost = pgNumericToDecimal(cost)
	job.Price = pgNumericToDecimal(price)
	if len(payments) > 0 {
		if err := json.Unmarshal(payments, &job.Payments); err != nil {
			return nil, fmt.Errorf("decode payments of job %s: %w", job.ID, err)
		}
	}
	if due.Valid {
		t := due.Time
		job.EstimatedPaymentDate = &t
	}
	job.CustomerID = pgTextToStringPtr(customerID)
	if isPaid.Valid {
		paid := isPaid.Bool
		job.IsPaid = &paid
	}
	if legacyMethod.Valid {
		m := domain.PaymentMethod(legacyMethod.String)
		job.PaymentMethod = &m
	}
	return domain.MigrateJob(&job), nil
}

func timePtrToPgTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
