package roster

import (
	"strings"

	"github.com/retreat-admin/backend/internal/models"
)

// Session presence filters for the participant list.
const (
	StatusAll     = "all"
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Category filters for the participant list.
const (
	CategoryAll  = "all"
	CategoryKids = "kids"
	CategoryTeen = "teen"
)

// ListFilter narrows the participant list view.
type ListFilter struct {
	Status   string
	Category string
	Query    string
}

// Apply returns the matching participants in roster order. Unlike Search, a blank query keeps everything.
func (f ListFilter) Apply(entries []models.Participant) []models.Participant {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]models.Participant, 0, len(entries))
	for i := range entries {
		p := &entries[i]
		switch strings.ToLower(f.Status) {
		case StatusOnline:
			if !p.InSession {
				continue
			}
		case StatusOffline:
			if p.InSession {
				continue
			}
		}
		switch strings.ToLower(f.Category) {
		case CategoryKids:
			if !strings.EqualFold(p.Category, models.CategoryKids) {
				continue
			}
		case CategoryTeen:
			if !strings.EqualFold(p.Category, models.CategoryTeen) {
				continue
			}
		}
		if q != "" && !matchesAny(p, q) {
			continue
		}
		out = append(out, *p)
	}
	return out
}
