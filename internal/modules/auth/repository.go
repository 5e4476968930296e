package auth

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles user persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new user repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "users").Logger(),
	}
}

// Create stores a new user. Username uniqueness is enforced by the schema;
// callers detect the violation via database.IsUniqueViolation.
func (r *Repository) Create(user *User) (*User, error) {
	createdAt := time.Now().UTC().Format("2006-01-02 15:04:05")

	result, err := r.db.Exec(
		`INSERT INTO users (username, password_hash, business_name, business_structure, vat_enabled, has_employees, num_employees, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.PasswordHash, user.BusinessName, user.BusinessStructure,
		user.VATEnabled, user.HasEmployees, user.NumEmployees, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	user.ID = id
	user.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return user, nil
}

// GetByUsername returns a user by username, or nil if not found.
func (r *Repository) GetByUsername(username string) (*User, error) {
	return r.getBy("username = ?", username)
}

// GetByID returns a user by id, or nil if not found.
func (r *Repository) GetByID(id int64) (*User, error) {
	return r.getBy("id = ?", id)
}

func (r *Repository) getBy(where string, arg interface{}) (*User, error) {
	var user User
	var createdAt string
	var numEmployees sql.NullInt64

	err := r.db.QueryRow(
		`SELECT id, username, password_hash, business_name, business_structure, vat_enabled, has_employees, num_employees, created_at
		 FROM users WHERE `+where, arg,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.BusinessName, &user.BusinessStructure,
		&user.VATEnabled, &user.HasEmployees, &numEmployees, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if numEmployees.Valid {
		user.NumEmployees = &numEmployees.Int64
	}
	user.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return &user, nil
}
