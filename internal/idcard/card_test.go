package idcard

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retreat-admin/backend/internal/models"
)

var testHeader = Header{
	Title:       "Deo Gratias 2025",
	Subtitle:    "Teens & Kids Retreat",
	DateLine:    "(Dec 28 – 30) | St. Mary's Church, Dubai",
	AddressLine: "P.O. BOX: 51200, Dubai, U.A.E",
}

func TestFromParticipant(t *testing.T) {
	p := &models.Participant{
		ID:                uuid.New(),
		UniqueID:          "DG25-014",
		StudentID:         "S-9",
		Name:              "Anna Maria",
		ParticipantName:   "Anna Maria Joseph",
		Category:          models.CategoryTeen,
		MedicalConditions: []string{"Asthma", " ", "Peanut allergy"},
		MedicalNotes:      "inhaler in bag",
	}
	card, err := FromParticipant(testHeader, p)
	require.NoError(t, err)
	assert.Equal(t, "ANNA MARIA JOSEPH", card.Name)
	assert.Equal(t, "Category: Teen | Medical: Asthma, Peanut allergy", card.DetailLine)
	assert.Equal(t, "DG25-014", card.Code)
	assert.Equal(t, "Anna_Maria_Joseph_ID.png", card.PNGFilename())
	assert.Equal(t, testHeader, card.Header)
}

func TestFromParticipantFallbacks(t *testing.T) {
	id := uuid.New()
	card, err := FromParticipant(testHeader, &models.Participant{ID: id, Name: "O'Brien, Seán"})
	require.NoError(t, err)
	assert.Equal(t, id.String(), card.Code)
	assert.Equal(t, "Category: N/A | Medical: None", card.DetailLine)
	assert.Equal(t, "OBrien_Sen_ID.png", card.PNGFilename())

	card, err = FromParticipant(testHeader, &models.Participant{ID: id, StudentID: "S-77"})
	require.NoError(t, err)
	assert.Equal(t, "S-77", card.Code)
	assert.Equal(t, "user_ID.png", card.PNGFilename())

	_, err = FromParticipant(testHeader, &models.Participant{Name: "No Key"})
	assert.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestFromVolunteer(t *testing.T) {
	card, err := FromVolunteer(testHeader, &models.Volunteer{ID: uuid.New(), VolunteerID: "VOL-3", FullName: "John Paul"})
	require.NoError(t, err)
	assert.Equal(t, "JOHN PAUL", card.Name)
	assert.Equal(t, "Role: Volunteer", card.DetailLine)
	assert.Equal(t, "VOL-3", card.Code)
	assert.Equal(t, "John_Paul_ID.png", card.PNGFilename())

	card, err = FromVolunteer(testHeader, &models.Volunteer{ID: uuid.New(), PreferredRole: "Kitchen"})
	require.NoError(t, err)
	assert.Equal(t, "Role: Kitchen", card.DetailLine)
	assert.Equal(t, "volunteer_ID.png", card.PNGFilename())

	_, err = FromVolunteer(testHeader, &models.Volunteer{})
	assert.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestPDFFilename(t *testing.T) {
	assert.Equal(t, "ID_Cards_2025-12-28.pdf", PDFFilename(time.Date(2025, 12, 28, 23, 0, 0, 0, time.UTC)))
}
