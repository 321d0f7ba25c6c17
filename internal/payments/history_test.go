package payments

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retreat-admin/backend/internal/models"
)

func paid(name, code, email string, amount float64, at *time.Time) models.Participant {
	return models.Participant{
		ID:            uuid.New(),
		UniqueID:      code,
		Name:          name,
		Email:         email,
		FeeStatus:     models.FeeStatusPaid,
		FeePaidAmount: &amount,
		FeePaidAt:     at,
	}
}

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func historyRoster() []models.Participant {
	return []models.Participant{
		paid("Older", "DG-1", "older@example.com", 100, at("2025-12-27T08:00:00Z")),
		{ID: uuid.New(), Name: "Pending", FeeStatus: models.FeeStatusPending},
		paid("No Date", "DG-2", "", 80, nil),
		paid("Newest", "DG-3", "newest@example.com", 150, at("2025-12-28T21:30:00Z")),
		paid("Middle", "DG-4", "", 100, at("2025-12-28T06:00:00Z")),
	}
}

func historyNames(rows []models.PaymentHistoryEntry) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestBuildHistoryOrdersNewestFirst(t *testing.T) {
	rows := BuildHistory(historyRoster())
	assert.Equal(t, []string{"Newest", "Middle", "Older", "No Date"}, historyNames(rows))
	assert.Equal(t, "DG-3", rows[0].Code)
	assert.Equal(t, 150.0, rows[0].Amount)
}

func TestBuildHistoryIsIdempotent(t *testing.T) {
	entries := historyRoster()
	assert.Equal(t, BuildHistory(entries), BuildHistory(entries))
}

func TestBuildHistoryEmpty(t *testing.T) {
	rows := BuildHistory(nil)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestHistoryFilter(t *testing.T) {
	rows := BuildHistory(historyRoster())
	dubai := time.FixedZone("GST", 4*3600)
	now := *at("2025-12-28T10:00:00Z")

	tests := []struct {
		name   string
		filter HistoryFilter
		want   []string
	}{
		{"all", HistoryFilter{Mode: ModeAll}, []string{"Newest", "Middle", "Older", "No Date"}},
		{"today utc", HistoryFilter{Mode: ModeToday, Now: now, Location: time.UTC}, []string{"Newest", "Middle"}},
		// 21:30Z on the 28th is already the 29th in Dubai.
		{"today dubai", HistoryFilter{Mode: ModeToday, Now: now, Location: dubai}, []string{"Middle"}},
		{"explicit date", HistoryFilter{Mode: ModeDate, Date: "2025-12-27", Location: time.UTC}, []string{"Older"}},
		{"search by code", HistoryFilter{Mode: ModeAll, Search: "dg-4"}, []string{"Middle"}},
		{"search by email", HistoryFilter{Mode: ModeAll, Search: "NEWEST@"}, []string{"Newest"}},
		{"date and search", HistoryFilter{Mode: ModeDate, Date: "2025-12-28", Search: "new", Location: time.UTC}, []string{"Newest"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, historyNames(tt.filter.Apply(rows)))
		})
	}
}

func TestSummarize(t *testing.T) {
	rows := BuildHistory(historyRoster())
	s := Summarize(rows)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 430.0, s.Total, 1e-9)

	today := HistoryFilter{Mode: ModeToday, Now: *at("2025-12-28T10:00:00Z"), Location: time.UTC}.Apply(rows)
	require.Len(t, today, 2)
	assert.Equal(t, Summary{Count: 2, Total: 250}, Summarize(today))
}
