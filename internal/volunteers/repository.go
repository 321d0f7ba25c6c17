// Package volunteers serves the volunteer registry.
package volunteers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retreat-admin/backend/internal/models"
)

var ErrNotFound = errors.New("volunteer not found")

const columns = `id, COALESCE(volunteer_id,''), full_name, COALESCE(dob,''), age, COALESCE(email,''), COALESCE(phone,''),
	COALESCE(preferred_role,''), COALESCE(preferred_location,''), COALESCE(tshirt_size,''),
	COALESCE(emergency_name,''), COALESCE(emergency_phone,''), available_dates, COALESCE(signature_ref,''), created_at`

func scan(row pgx.Row) (*models.Volunteer, error) {
	var v models.Volunteer
	err := row.Scan(&v.ID, &v.VolunteerID, &v.FullName, &v.DOB, &v.Age, &v.Email, &v.Phone,
		&v.PreferredRole, &v.PreferredLocation, &v.TShirtSize,
		&v.EmergencyName, &v.EmergencyPhone, &v.AvailableDates, &v.SignatureRef, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Repository handles volunteer persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a volunteer repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns volunteers, newest registration first.
func (r *Repository) List(ctx context.Context) ([]models.Volunteer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM volunteers ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	defer rows.Close()
	list := make([]models.Volunteer, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan volunteer: %w", err)
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

// GetByID returns a volunteer by document key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Volunteer, error) {
	v, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM volunteers WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get volunteer: %w", err)
	}
	return v, err
}

// Delete removes a volunteer.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM volunteers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete volunteer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany removes the given volunteers and returns how many existed.
func (r *Repository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM volunteers WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete volunteers: %w", err)
	}
	return tag.RowsAffected(), nil
}
