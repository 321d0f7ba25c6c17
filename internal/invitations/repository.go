package invitations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository records invitation consumption so each grant is redeemed once.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an invitation consumption repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Consume marks the grant used. A second call for the same grant returns ErrInvitationConsumed.
func (r *Repository) Consume(ctx context.Context, g *Grant) error {
	tag, err := r.pool.Exec(ctx, `INSERT INTO invitation_consumptions (token_id, email) VALUES ($1, $2)
		ON CONFLICT (token_id) DO NOTHING`, g.ID, g.Email)
	if err != nil {
		return fmt.Errorf("consume invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvitationConsumed
	}
	return nil
}

// Release undoes Consume when account creation failed after it.
func (r *Repository) Release(ctx context.Context, tokenID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM invitation_consumptions WHERE token_id = $1`, tokenID); err != nil {
		return fmt.Errorf("release invitation: %w", err)
	}
	return nil
}
