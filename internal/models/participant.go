package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FeeStatus is the payment state of a participant.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPaid    FeeStatus = "paid"
)

// Participant categories as stored by the registration form.
const (
	CategoryKids = "Kids"
	CategoryTeen = "Teen"
)

// Participant is a registered attendee (roster entry).
type Participant struct {
	ID                       uuid.UUID  `json:"id"`
	UniqueID                 string     `json:"unique_id,omitempty"`
	StudentID                string     `json:"student_id,omitempty"`
	Name                     string     `json:"name"`
	ParticipantName          string     `json:"participant_name,omitempty"`
	Email                    string     `json:"email,omitempty"`
	Phone                    string     `json:"phone,omitempty"`
	PrimaryContactNumber     string     `json:"primary_contact_number,omitempty"`
	PrimaryContactRelation   string     `json:"primary_contact_relation,omitempty"`
	SecondaryContactNumber   string     `json:"secondary_contact_number,omitempty"`
	SecondaryContactRelation string     `json:"secondary_contact_relationship,omitempty"`
	ContactFatherMobile      string     `json:"contact_father_mobile,omitempty"`
	Residence                string     `json:"residence,omitempty"`
	Address                  string     `json:"address,omitempty"`
	Category                 string     `json:"category,omitempty"`
	Age                      int        `json:"age,omitempty"`
	DOB                      string     `json:"dob,omitempty"`
	MedicalConditions        []string   `json:"medical_conditions,omitempty"`
	MedicalNotes             string     `json:"medical_notes,omitempty"`
	ParentSignature          string     `json:"parent_signature,omitempty"`
	FeeStatus                FeeStatus  `json:"fee_status"`
	FeePaidAmount            *float64   `json:"fee_paid_amount,omitempty"`
	FeePaidAt                *time.Time `json:"fee_paid_at,omitempty"`
	InSession                bool       `json:"in_session"`
	IDGenerated              bool       `json:"id_generated"`
	IDGeneratedAt            *time.Time `json:"id_generated_at,omitempty"`
	Revision                 int64      `json:"revision"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// DisplayCode is the human-facing code of a participant: unique id, then student id, then the document key.
// Every component that prints, encodes or matches a participant code goes through here.
func (p *Participant) DisplayCode() string {
	if c := strings.TrimSpace(p.UniqueID); c != "" {
		return c
	}
	if c := strings.TrimSpace(p.StudentID); c != "" {
		return c
	}
	if p.ID == uuid.Nil {
		return ""
	}
	return p.ID.String()
}

// HasAssignedCode reports whether the participant carries a unique or student id (not just the document key).
func (p *Participant) HasAssignedCode() bool {
	return strings.TrimSpace(p.UniqueID) != "" || strings.TrimSpace(p.StudentID) != ""
}

// DisplayName returns the name shown on cards, receipts and history.
func (p *Participant) DisplayName() string {
	if n := strings.TrimSpace(p.Name); n != "" {
		return n
	}
	return strings.TrimSpace(p.ParticipantName)
}

// MedicalSummary joins the conditions and appends the free-text note in parentheses.
func (p *Participant) MedicalSummary() string {
	var conditions []string
	for _, c := range p.MedicalConditions {
		if c = strings.TrimSpace(c); c != "" {
			conditions = append(conditions, c)
		}
	}
	summary := strings.Join(conditions, ", ")
	if note := strings.TrimSpace(p.MedicalNotes); note != "" {
		if summary == "" {
			return note
		}
		summary += " (" + note + ")"
	}
	return summary
}

// IsPaid reports whether the participant satisfies the paid invariant.
func (p *Participant) IsPaid() bool {
	return p.FeeStatus == FeeStatusPaid && p.FeePaidAmount != nil && *p.FeePaidAmount > 0 && p.FeePaidAt != nil
}

// PaidAmount returns the recorded amount or zero.
func (p *Participant) PaidAmount() float64 {
	if p.FeePaidAmount == nil {
		return 0
	}
	return *p.FeePaidAmount
}
