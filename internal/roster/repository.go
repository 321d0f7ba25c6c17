package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retreat-admin/backend/internal/models"
)

var (
	ErrNotFound         = errors.New("participant not found")
	ErrEmptyCode        = errors.New("code must not be empty")
	ErrRevisionConflict = errors.New("participant was modified by someone else")
)

// Columns selected for a participant, in Scan order. Shared with the payments repository.
const Columns = `id, COALESCE(unique_id,''), COALESCE(student_id,''), name, COALESCE(participant_name,''),
	COALESCE(email,''), COALESCE(phone,''), COALESCE(primary_contact_number,''), COALESCE(primary_contact_relation,''),
	COALESCE(secondary_contact_number,''), COALESCE(secondary_contact_relation,''), COALESCE(contact_father_mobile,''),
	COALESCE(residence,''), COALESCE(address,''), COALESCE(category,''), age, COALESCE(dob,''),
	medical_conditions, COALESCE(medical_notes,''), COALESCE(parent_signature,''),
	fee_status, fee_paid_amount::float8, fee_paid_at, in_session, id_generated, id_generated_at,
	revision, created_at, updated_at`

// Scan reads one participant row selected with Columns.
func Scan(row pgx.Row) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(&p.ID, &p.UniqueID, &p.StudentID, &p.Name, &p.ParticipantName,
		&p.Email, &p.Phone, &p.PrimaryContactNumber, &p.PrimaryContactRelation,
		&p.SecondaryContactNumber, &p.SecondaryContactRelation, &p.ContactFatherMobile,
		&p.Residence, &p.Address, &p.Category, &p.Age, &p.DOB,
		&p.MedicalConditions, &p.MedicalNotes, &p.ParentSignature,
		&p.FeeStatus, &p.FeePaidAmount, &p.FeePaidAt, &p.InSession, &p.IDGenerated, &p.IDGeneratedAt,
		&p.Revision, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Repository handles participant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a participant repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all participants ordered by registration time.
func (r *Repository) List(ctx context.Context) ([]models.Participant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM participants ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()
	list := make([]models.Participant, 0)
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// ListByIDs returns the participants with the given keys, in the order of ids. Unknown ids are skipped.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Participant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+Columns+` FROM participants WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list participants by id: %w", err)
	}
	defer rows.Close()
	byID := make(map[uuid.UUID]models.Participant, len(ids))
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		byID[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Participant, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByID returns a participant by document key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	return Scan(r.pool.QueryRow(ctx, `SELECT `+Columns+` FROM participants WHERE id = $1`, id))
}

// UpdateUniqueID sets the human code after trimming it.
func (r *Repository) UpdateUniqueID(ctx context.Context, id uuid.UUID, code string) (*models.Participant, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	const q = `UPDATE participants SET unique_id = $2, revision = revision + 1, updated_at = NOW()
		WHERE id = $1 RETURNING ` + Columns
	return Scan(r.pool.QueryRow(ctx, q, id, code))
}

// MarkIDGenerated records that a card was exported for the participant.
func (r *Repository) MarkIDGenerated(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE participants SET id_generated = TRUE, id_generated_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark id generated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one participant.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany removes the given participants and returns how many rows went away.
func (r *Repository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete participants: %w", err)
	}
	return tag.RowsAffected(), nil
}
