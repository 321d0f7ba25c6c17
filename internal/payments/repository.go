package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/internal/roster"
	"github.com/retreat-admin/backend/pkg/database"
)

// Repository writes payments and reads the payment event log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a payments repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ApplyPayment updates the participant's fee fields and appends a payment event in one transaction.
// With ExpectedRevision set the update is a compare-and-swap on the revision column.
func (r *Repository) ApplyPayment(ctx context.Context, w Write) (*models.Participant, *models.PaymentEvent, error) {
	var (
		entry *models.Participant
		event models.PaymentEvent
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const update = `UPDATE participants
			SET fee_status = 'paid', fee_paid_amount = $2, fee_paid_at = $3, revision = revision + 1, updated_at = NOW()
			WHERE id = $1 AND ($4::bigint IS NULL OR revision = $4)
			RETURNING ` + roster.Columns
		var err error
		entry, err = roster.Scan(tx.QueryRow(ctx, update, w.ParticipantID, w.Amount, w.PaidAt, w.ExpectedRevision))
		if errors.Is(err, roster.ErrNotFound) && w.ExpectedRevision != nil {
			var exists bool
			if qErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM participants WHERE id = $1)`, w.ParticipantID).Scan(&exists); qErr != nil {
				return fmt.Errorf("check participant: %w", qErr)
			}
			if exists {
				return ErrRevisionConflict
			}
		}
		if err != nil {
			return err
		}

		const insert = `INSERT INTO payment_events (participant_id, code, amount, recorded_by, recorded_at)
			VALUES ($1, $2, $3, NULLIF($4,''), $5)
			RETURNING id, participant_id, code, amount::float8, COALESCE(recorded_by,''), recorded_at`
		return tx.QueryRow(ctx, insert, entry.ID, entry.DisplayCode(), w.Amount, w.RecordedBy, w.PaidAt).
			Scan(&event.ID, &event.ParticipantID, &event.Code, &event.Amount, &event.RecordedBy, &event.RecordedAt)
	})
	if database.IsCheckViolation(err) {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err != nil {
		return nil, nil, err
	}
	return entry, &event, nil
}

// ListEvents returns payment events for a participant, newest first.
func (r *Repository) ListEvents(ctx context.Context, participantID uuid.UUID) ([]models.PaymentEvent, error) {
	const q = `SELECT id, participant_id, code, amount::float8, COALESCE(recorded_by,''), recorded_at
		FROM payment_events WHERE participant_id = $1 ORDER BY recorded_at DESC`
	rows, err := r.pool.Query(ctx, q, participantID)
	if err != nil {
		return nil, fmt.Errorf("list payment events: %w", err)
	}
	defer rows.Close()
	list := make([]models.PaymentEvent, 0)
	for rows.Next() {
		var e models.PaymentEvent
		if err := rows.Scan(&e.ID, &e.ParticipantID, &e.Code, &e.Amount, &e.RecordedBy, &e.RecordedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
