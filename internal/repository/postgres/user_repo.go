package postgres

import (
	"context"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, auth0_id, email, phone_number, name, created_at, updated_at`

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by their UUID
func (r *UserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		pgtype.UUID{Bytes: id, Valid: true})
	return scanUser(row)
}

// GetByAuth0ID retrieves a user by their Auth0 ID
func (r *UserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+userColumns+` FROM users WHERE auth0_id = $1`, auth0ID)
	return scanUser(row)
}

// UpdateName updates only the user's name by Auth0 ID
func (r *UserRepository) UpdateName(auth0ID string, name string) (*domain.User, error) {
	row := r.pool.QueryRow(context.Background(),
		`UPDATE users SET name = $2, updated_at = now()
		 WHERE auth0_id = $1
		 RETURNING `+userColumns, auth0ID, name)
	return scanUser(row)
}

// CreateOrGetByAuth0ID creates a new user or returns the existing one (upsert on login).
// Email and phone number of an existing user are refreshed when the token carries them.
func (r *UserRepository) CreateOrGetByAuth0ID(user *domain.User) (*domain.User, error) {
	row := r.pool.QueryRow(context.Background(),
		`INSERT INTO users (auth0_id, email, phone_number, name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (auth0_id) DO UPDATE SET
		     email = COALESCE(EXCLUDED.email, users.email),
		     phone_number = COALESCE(EXCLUDED.phone_number, users.phone_number),
		     updated_at = now()
		 RETURNING `+userColumns,
		user.Auth0ID,
		stringPtrToPgText(user.Email),
		stringPtrToPgText(user.PhoneNumber),
		stringPtrToPgText(user.Name),
	)
	return scanUser(row)
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		id                 pgtype.UUID
		email, phone, name pgtype.Text
		u                  domain.User
	)
	err := row.Scan(&id, &u.Auth0ID, &email, &phone, &name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	u.ID = uuid.UUID(id.Bytes)
	u.Email = pgTextToStringPtr(email)
	u.PhoneNumber = pgTextToStringPtr(phone)
	u.Name = pgTextToStringPtr(name)
	return &u, nil
}
