package payments

import (
	"sort"
	"strings"
	"time"

	"github.com/retreat-admin/backend/internal/models"
)

// History filter modes.
const (
	ModeAll   = "all"
	ModeToday = "today"
	ModeDate  = "date"
)

const dateKeyLayout = "2006-01-02"

// BuildHistory projects paid participants into history rows, newest payment first.
// Rows without a payment time sort last; ties keep roster order, so the output is deterministic.
func BuildHistory(entries []models.Participant) []models.PaymentHistoryEntry {
	out := make([]models.PaymentHistoryEntry, 0)
	for i := range entries {
		p := &entries[i]
		if p.FeeStatus != models.FeeStatusPaid {
			continue
		}
		out = append(out, models.PaymentHistoryEntry{
			ParticipantID: p.ID,
			Name:          p.DisplayName(),
			Code:          p.DisplayCode(),
			Amount:        p.PaidAmount(),
			Email:         p.Email,
			PaidAt:        p.FeePaidAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return paidUnix(out[i].PaidAt) > paidUnix(out[j].PaidAt)
	})
	return out
}

func paidUnix(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

// HistoryFilter narrows the history view.
type HistoryFilter struct {
	Mode     string // all, today or date
	Date     string // YYYY-MM-DD, used with ModeDate
	Search   string // substring over name, code and email
	Now      time.Time
	Location *time.Location
}

// Apply returns the rows matching f, preserving order.
func (f HistoryFilter) Apply(rows []models.PaymentHistoryEntry) []models.PaymentHistoryEntry {
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	wantDay := ""
	switch f.Mode {
	case ModeToday:
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		wantDay = now.In(loc).Format(dateKeyLayout)
	case ModeDate:
		wantDay = strings.TrimSpace(f.Date)
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.PaymentHistoryEntry, 0, len(rows))
	for _, r := range rows {
		if wantDay != "" {
			if r.PaidAt == nil || r.PaidAt.In(loc).Format(dateKeyLayout) != wantDay {
				continue
			}
		}
		if q != "" && !containsFold(q, r.Name, r.Code, r.Email) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func containsFold(lowerQuery string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerQuery) {
			return true
		}
	}
	return false
}

// Summary totals a history view.
type Summary struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Summarize counts rows and sums their amounts.
func Summarize(rows []models.PaymentHistoryEntry) Summary {
	s := Summary{Count: len(rows)}
	for _, r := range rows {
		s.Total += r.Amount
	}
	return s
}
