// Package roster resolves typed or scanned input to participants and serves the participant admin API.
package roster

import (
	"strings"

	"github.com/retreat-admin/backend/internal/models"
)

// searchFields lists the participant fields matched by Search, in order.
func searchFields(p *models.Participant) []string {
	return []string{
		p.Name,
		p.ParticipantName,
		p.DisplayCode(),
		p.UniqueID,
		p.StudentID,
		p.Email,
		p.Phone,
		p.ContactFatherMobile,
		p.PrimaryContactNumber,
		p.Residence,
		p.Address,
	}
}

// Search returns every participant with a field containing query, case-insensitively, in roster order.
// A blank query matches nothing.
func Search(query string, entries []models.Participant) []models.Participant {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Participant{}
	}
	out := make([]models.Participant, 0)
	for i := range entries {
		if matchesAny(&entries[i], q) {
			out = append(out, entries[i])
		}
	}
	return out
}

func matchesAny(p *models.Participant, lowerQuery string) bool {
	for _, f := range searchFields(p) {
		if f != "" && strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	return false
}

// ResolveScan returns the first participant whose unique id, student id or document key equals code exactly.
// Surrounding whitespace on both the scanned token and the stored ids is ignored, matching DisplayCode; case is significant.
func ResolveScan(code string, entries []models.Participant) *models.Participant {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	for i := range entries {
		p := &entries[i]
		if strings.TrimSpace(p.UniqueID) == code || strings.TrimSpace(p.StudentID) == code || p.ID.String() == code {
			return p
		}
	}
	return nil
}
