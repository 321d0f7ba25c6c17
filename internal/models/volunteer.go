package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Volunteer is a registered helper. Volunteers carry no payment fields.
type Volunteer struct {
	ID                uuid.UUID `json:"id"`
	VolunteerID       string    `json:"volunteer_id,omitempty"`
	FullName          string    `json:"full_name"`
	DOB               string    `json:"dob,omitempty"`
	Age               int       `json:"age,omitempty"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	PreferredRole     string    `json:"preferred_role,omitempty"`
	PreferredLocation string    `json:"preferred_location,omitempty"`
	TShirtSize        string    `json:"tshirt_size,omitempty"`
	EmergencyName     string    `json:"emergency_name,omitempty"`
	EmergencyPhone    string    `json:"emergency_phone,omitempty"`
	AvailableDates    []string  `json:"available_dates,omitempty"`
	SignatureRef      string    `json:"signature_ref,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// DisplayCode returns the volunteer id, falling back to the document key.
func (v *Volunteer) DisplayCode() string {
	if c := strings.TrimSpace(v.VolunteerID); c != "" {
		return c
	}
	if v.ID == uuid.Nil {
		return ""
	}
	return v.ID.String()
}

// RoleLabel is the role printed on the volunteer card.
func (v *Volunteer) RoleLabel() string {
	if r := strings.TrimSpace(v.PreferredRole); r != "" {
		return r
	}
	return "Volunteer"
}
