package volunteers

import (
	"strings"

	"github.com/retreat-admin/backend/internal/models"
)

// Search returns volunteers whose name, volunteer id, email or phone contains query, case-insensitively.
// A blank query returns every volunteer.
func Search(query string, list []models.Volunteer) []models.Volunteer {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]models.Volunteer, 0)
	for _, v := range list {
		for _, f := range []string{v.FullName, v.VolunteerID, v.Email, v.Phone} {
			if f != "" && strings.Contains(strings.ToLower(f), q) {
				out = append(out, v)
				break
			}
		}
	}
	return out
}
