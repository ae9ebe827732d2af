package postgres

import (
	"context"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = `id, workspace_id, name, phone, address, notes, created_at, updated_at`

// CustomerRepository implements domain.CustomerRepository using PostgreSQL
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create creates a new customer
func (r *CustomerRepository) Create(customer *domain.Customer) (*domain.Customer, error) {
	row := r.pool.QueryRow(context.Background(),
		`INSERT INTO customers (`+customerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+customerColumns, customerArgs(customer)...)
	created, err := scanCustomer(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a customer by its ID within a workspace
func (r *CustomerRepository) GetByID(workspaceID int32, id string) (*domain.Customer, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+customerColumns+` FROM customers WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id)
	return scanCustomer(row)
}

// GetAllByWorkspace retrieves every customer of a workspace ordered by name
func (r *CustomerRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Customer, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+customerColumns+` FROM customers
		 WHERE workspace_id = $1
		 ORDER BY lower(name), id`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]*domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Update updates an existing customer
func (r *CustomerRepository) Update(customer *domain.Customer) (*domain.Customer, error) {
	row := r.pool.QueryRow(context.Background(),
		`UPDATE customers SET
		     name = $3, phone = $4, address = $5, notes = $6, created_at = $7, updated_at = $8
		 WHERE id = $1 AND workspace_id = $2
		 RETURNING `+customerColumns, customerArgs(customer)...)
	return scanCustomer(row)
}

// Upsert inserts a customer or replaces the one with the same ID in the same workspace
func (r *CustomerRepository) Upsert(customer *domain.Customer) (*domain.Customer, error) {
	row := r.pool.QueryRow(context.Background(),
		`INSERT INTO customers (`+customerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name, phone = EXCLUDED.phone,
		     address = EXCLUDED.address, notes = EXCLUDED.notes,
		     created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at
		 WHERE customers.workspace_id = EXCLUDED.workspace_id
		 RETURNING `+customerColumns, customerArgs(customer)...)
	upserted, err := scanCustomer(row)
	if err == domain.ErrCustomerNotFound {
		return nil, domain.ErrAlreadyExists
	}
	return upserted, err
}

// Delete removes a customer. Jobs and notes referencing it are not touched.
func (r *CustomerRepository) Delete(workspaceID int32, id string) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM customers WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func customerArgs(c *domain.Customer) []any {
	return []any{
		c.ID,
		c.WorkspaceID,
		c.Name,
		c.Phone,
		stringPtrToPgText(c.Address),
		stringPtrToPgText(c.Notes),
		c.CreatedAt,
		c.UpdatedAt,
	}
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var (
		c              domain.Customer
		address, notes pgtype.Text
	)
	err := row.Scan(&c.ID, &c.WorkspaceID, &c.Name, &c.Phone, &address, &notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, err
	}
	c.Address = pgTextToStringPtr(address)
	c.Notes = pgTextToStringPtr(notes)
	return &c, nil
}
