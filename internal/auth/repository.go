package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/pkg/database"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

const accountColumns = `id, auth_method, COALESCE(email_or_phone,''), COALESCE(password_hash,''),
	COALESCE(google_email,''), COALESCE(google_uid,''), COALESCE(display_name,''), COALESCE(photo_url,''),
	role, permissions, created_at`

// Repository handles dashboard account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an account repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanAccount(row pgx.Row) (*models.StaffAccount, error) {
	var a models.StaffAccount
	var method, role string
	err := row.Scan(&a.ID, &method, &a.EmailOrPhone, &a.PasswordHash,
		&a.GoogleEmail, &a.GoogleUID, &a.DisplayName, &a.PhotoURL,
		&role, &a.Permissions, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	a.AuthMethod = models.AuthMethod(method)
	a.Role = models.Role(role)
	if a.Permissions == nil {
		a.Permissions = []string{}
	}
	return &a, nil
}

// GetByID returns an account by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.StaffAccount, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM dashboard_users WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, err
}

// GetByIdentifier returns the password account whose email_or_phone equals identifier.
func (r *Repository) GetByIdentifier(ctx context.Context, identifier string) (*models.StaffAccount, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM dashboard_users
		WHERE auth_method = 'password' AND email_or_phone = $1`, identifier))
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("get account by identifier: %w", err)
	}
	return a, err
}

// GetByGoogleEmail returns the federated account for email, compared case-insensitively.
func (r *Repository) GetByGoogleEmail(ctx context.Context, email string) (*models.StaffAccount, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM dashboard_users
		WHERE auth_method = 'google' AND LOWER(google_email) = LOWER($1)`, strings.TrimSpace(email)))
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("get account by google email: %w", err)
	}
	return a, err
}

// List returns accounts, optionally filtered by role, newest first.
func (r *Repository) List(ctx context.Context, role models.Role) ([]models.StaffAccount, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+accountColumns+` FROM dashboard_users
		WHERE ($1 = '' OR role = $1) ORDER BY created_at DESC`, string(role))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	list := []models.StaffAccount{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// Create validates and inserts a new account.
func (r *Repository) Create(ctx context.Context, a *models.StaffAccount) (*models.StaffAccount, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	perms := a.Permissions
	if perms == nil {
		perms = []string{}
	}
	const q = `INSERT INTO dashboard_users (auth_method, email_or_phone, password_hash, google_email, google_uid,
		display_name, photo_url, role, permissions)
		VALUES ($1, NULLIF($2,''), NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), $8, $9)
		RETURNING ` + accountColumns
	created, err := scanAccount(r.pool.QueryRow(ctx, q, string(a.AuthMethod), a.EmailOrPhone, a.PasswordHash,
		a.GoogleEmail, a.GoogleUID, a.DisplayName, a.PhotoURL, string(a.Role), perms))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

// Delete removes an account.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM dashboard_users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
