package repository

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/equezada327/pro-tasker-backend/internal/apperr"
	"github.com/equezada327/pro-tasker-backend/internal/auth"
	"github.com/equezada327/pro-tasker-backend/internal/models"
)

type UserRepo struct {
	db      *sql.DB
	timeout time.Duration
}

func NewUserRepo(db *sql.DB, timeout time.Duration) *UserRepo {
	return &UserRepo{db: db, timeout: timeout}
}

// Create registers a new account. The secret is hashed here, before
// anything touches the store - there is no code path that persists a plain
// secret. Email collision is case-insensitive.
func (r *UserRepo) Create(ctx context.Context, username, email, secret string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := models.ValidateRegistration(username, email, secret); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(secret)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, "hash secret: %v", err)
	}

	return r.insert(ctx, username, email, hash, models.RoleUser)
}

// CreateOAuth registers an account coming from the OAuth callback. Provider
// display names are not trusted to meet the username constraint, so the
// stored name is derived. No local secret exists - the stored hash is empty
// and password login never succeeds for it.
func (r *UserRepo) CreateOAuth(ctx context.Context, displayName, email string) (*models.User, error) {
	if _, err := mail.ParseAddress(models.NormalizeEmail(email)); err != nil {
		return nil, apperr.Validation(map[string]string{"email": "email is not a valid address"})
	}
	return r.insert(ctx, models.DeriveUsername(displayName, email), email, "", models.RoleUser)
}

func (r *UserRepo) insert(ctx context.Context, username, email, hash, role string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	u := &models.User{
		Username:     username,
		Email:        models.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	query := `INSERT INTO users (username, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.ErrDuplicateIdentity
		}
		return nil, storageErr(err)
	}
	return u, nil
}

// Authenticate verifies a login attempt. Unknown email and wrong secret
// return the identical error - nothing in the response distinguishes them.
func (r *UserRepo) Authenticate(ctx context.Context, email, secret string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE LOWER(email) = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, storageErr(err)
	}

	if !auth.CheckPassword(u.PasswordHash, secret) {
		return nil, apperr.ErrInvalidCredentials
	}
	return u, nil
}

// GetByID is the strict token-revalidation path: a token for a deleted
// account answers IdentityNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrIdentityNotFound
		}
		return nil, storageErr(err)
	}
	return u, nil
}

// GetByEmail looks up an account by normalized email; used by the OAuth
// callback to upsert. NotFound when absent.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE LOWER(email) = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, storageErr(err)
	}
	return u, nil
}

// List returns every account; reachable only through the admin gate.
func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT id, username, email, password_hash, role, created_at
		FROM users ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		users = append(users, u)
	}
	return users, storageErr(rows.Err())
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
