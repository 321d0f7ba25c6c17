package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentEvent is one successful fee payment. The table is append-only.
type PaymentEvent struct {
	ID            uuid.UUID `json:"id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Code          string    `json:"code"`
	Amount        float64   `json:"amount"`
	RecordedBy    string    `json:"recorded_by,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// PaymentHistoryEntry is the read-only projection of a paid participant.
type PaymentHistoryEntry struct {
	ParticipantID uuid.UUID  `json:"participant_id"`
	Name          string     `json:"name"`
	Code          string     `json:"code"`
	Amount        float64    `json:"amount"`
	Email         string     `json:"email,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}
