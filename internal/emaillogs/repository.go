// Package emaillogs keeps the delivery log of payment receipts.
package emaillogs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retreat-admin/backend/internal/models"
)

var ErrNotFound = errors.New("email log not found")

const columns = `id, participant_id, email_type, COALESCE(recipient_email,''), COALESCE(recipient_name,''),
	COALESCE(receipt_id,''), amount::float8, status, attempts, sent_at, COALESCE(error_message,''), created_at`

func scan(row pgx.Row) (*models.EmailLog, error) {
	var el models.EmailLog
	err := row.Scan(&el.ID, &el.ParticipantID, &el.EmailType, &el.RecipientEmail, &el.RecipientName,
		&el.ReceiptID, &el.Amount, &el.Status, &el.Attempts, &el.SentAt, &el.ErrorMessage, &el.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &el, nil
}

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts a log row and fills in its id and creation time.
func (r *Repository) Record(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (participant_id, email_type, recipient_email, recipient_name, receipt_id, amount, status, attempts, sent_at, error_message)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6, $7, $8, $9, NULLIF($10,''))
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, el.ParticipantID, el.EmailType, el.RecipientEmail, el.RecipientName,
		el.ReceiptID, el.Amount, el.Status, el.Attempts, el.SentAt, el.ErrorMessage).Scan(&el.ID, &el.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}
	return nil
}

// GetByID returns one log row.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	el, err := scan(r.pool.QueryRow(ctx, `SELECT `+columns+` FROM email_logs WHERE id = $1`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get email log: %w", err)
	}
	return el, err
}

// ListByParticipant returns the participant's receipt attempts, newest first.
func (r *Repository) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]models.EmailLog, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM email_logs WHERE participant_id = $1 ORDER BY created_at DESC`, participantID)
	if err != nil {
		return nil, fmt.Errorf("list email logs: %w", err)
	}
	defer rows.Close()
	list := make([]models.EmailLog, 0)
	for rows.Next() {
		el, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email log: %w", err)
		}
		list = append(list, *el)
	}
	return list, rows.Err()
}

// UpdateStatus records the outcome of another delivery attempt.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status, errMsg string, sentAt *time.Time) error {
	const q = `UPDATE email_logs
		SET status = $2, error_message = NULLIF($3,''), sent_at = COALESCE($4, sent_at), attempts = attempts + 1
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, status, errMsg, sentAt)
	if err != nil {
		return fmt.Errorf("update email log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
