package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"videoquiz-backend/internal/models"
)

// ErrDuplicate is returned when a unique constraint rejects an insert.
var ErrDuplicate = errors.New("duplicate record")

const uniqueViolation = "23505"

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	user.ID = uuid.New()

	err := r.pool.QueryRow(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash).Scan(&user.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

const userColumns = `id, username, email, password_hash, created_at`

func (r *UserRepo) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

const (
	userByUsernameQuery = `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1)`
	userByEmailQuery    = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
)

// GetByUsername matches case-insensitively. Returns pgx.ErrNoRows when absent.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.scanOne(ctx, userByUsernameQuery, username)
}

// GetByEmail matches case-insensitively. Returns pgx.ErrNoRows when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.scanOne(ctx, userByEmailQuery, email)
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
