package roster

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retreat-admin/backend/internal/models"
)

func sampleRoster() []models.Participant {
	return []models.Participant{
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), UniqueID: "DG-001", Name: "Maria Thomas", Email: "maria@example.com", Category: "Kids", InSession: true},
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), StudentID: "S-77", Name: "Joel Mathew", PrimaryContactNumber: "+971501234567", Category: "Teen"},
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000003"), ParticipantName: "Anna Joseph", Residence: "Karama", Category: "Teen", InSession: true},
		{ID: uuid.MustParse("00000000-0000-0000-0000-000000000004"), UniqueID: "dg-001", Name: "Lower Case Code", Address: "Deira"},
	}
}

func names(ps []models.Participant) []string {
	out := make([]string, 0, len(ps))
	for i := range ps {
		out = append(out, ps[i].DisplayName())
	}
	return out
}

func TestSearchBlankQueryIsEmpty(t *testing.T) {
	for _, q := range []string{"", "   ", "\t"} {
		got := Search(q, sampleRoster())
		assert.NotNil(t, got)
		assert.Empty(t, got, "query %q", q)
	}
	assert.Empty(t, Search("", nil))
}

func TestSearchMatchesFieldsInRosterOrder(t *testing.T) {
	entries := sampleRoster()
	tests := []struct {
		query string
		want  []string
	}{
		{"maria", []string{"Maria Thomas"}},
		{"MARIA@EXAMPLE", []string{"Maria Thomas"}},
		{"dg-001", []string{"Maria Thomas", "Lower Case Code"}},
		{"s-77", []string{"Joel Mathew"}},
		{"501234", []string{"Joel Mathew"}},
		{"karama", []string{"Anna Joseph"}},
		{"deira", []string{"Lower Case Code"}},
		{"a", []string{"Maria Thomas", "Joel Mathew", "Anna Joseph", "Lower Case Code"}},
		{"nobody", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Search(tt.query, entries)))
		})
	}
}

func TestResolveScanExactOnly(t *testing.T) {
	entries := sampleRoster()

	got := ResolveScan("DG-001", entries)
	require.NotNil(t, got)
	assert.Equal(t, "Maria Thomas", got.Name)

	got = ResolveScan("dg-001", entries)
	require.NotNil(t, got)
	assert.Equal(t, "Lower Case Code", got.Name, "case is significant")

	got = ResolveScan(" S-77\n", entries)
	require.NotNil(t, got)
	assert.Equal(t, "Joel Mathew", got.Name)

	got = ResolveScan("00000000-0000-0000-0000-000000000003", entries)
	require.NotNil(t, got)
	assert.Equal(t, "Anna Joseph", got.DisplayName())

	assert.Nil(t, ResolveScan("DG-00", entries), "no substring matching")
	assert.Nil(t, ResolveScan("Maria Thomas", entries), "names are not scan codes")
	assert.Nil(t, ResolveScan("", entries))
}

func TestResolveScanReturnsFirstMatch(t *testing.T) {
	entries := []models.Participant{
		{ID: uuid.New(), UniqueID: "DUP", Name: "first"},
		{ID: uuid.New(), StudentID: "DUP", Name: "second"},
	}
	got := ResolveScan("DUP", entries)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Name)
}

func TestResolveScanFindsEveryDisplayCode(t *testing.T) {
	entries := append(sampleRoster(),
		models.Participant{ID: uuid.New(), UniqueID: "DG-7 ", Name: "Padded Unique"},
		models.Participant{ID: uuid.New(), UniqueID: "  ", StudentID: "\tS-9", Name: "Padded Student"},
	)
	for i := range entries {
		got := ResolveScan(entries[i].DisplayCode(), entries)
		require.NotNil(t, got)
		assert.Equal(t, entries[i].ID, got.ID)
	}
}

func TestListFilter(t *testing.T) {
	entries := sampleRoster()
	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"zero value keeps all", ListFilter{}, []string{"Maria Thomas", "Joel Mathew", "Anna Joseph", "Lower Case Code"}},
		{"online", ListFilter{Status: StatusOnline}, []string{"Maria Thomas", "Anna Joseph"}},
		{"offline", ListFilter{Status: StatusOffline}, []string{"Joel Mathew", "Lower Case Code"}},
		{"teen", ListFilter{Category: CategoryTeen}, []string{"Joel Mathew", "Anna Joseph"}},
		{"online kids", ListFilter{Status: "ONLINE", Category: "kids"}, []string{"Maria Thomas"}},
		{"teen search", ListFilter{Category: CategoryTeen, Query: "anna"}, []string{"Anna Joseph"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(tt.filter.Apply(entries)))
		})
	}
}
