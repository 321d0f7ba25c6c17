package idcard

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/retreat-admin/backend/internal/models"
)

var ErrMissingIdentifier = errors.New("card has no identifier to encode")

const (
	colorAccent = "#6c3483"
	colorInk    = "#000000"
)

// Header is the event block printed at the top of every card.
type Header struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	DateLine    string `json:"date_line"`
	AddressLine string `json:"address_line"`
}

// Card is everything drawn on one ID card. Rendering is a pure function of this value.
type Card struct {
	Header     Header `json:"header"`
	Name       string `json:"name"`
	DetailLine string `json:"detail_line"`
	Code       string `json:"code"`
	QRColor    string `json:"qr_color"`
	FileBase   string `json:"file_base"`
}

// FromParticipant builds a participant card. The QR payload is the participant's display code.
func FromParticipant(h Header, p *models.Participant) (Card, error) {
	code := p.DisplayCode()
	if code == "" {
		return Card{}, ErrMissingIdentifier
	}
	name := firstNonBlank(p.ParticipantName, p.Name)
	category := firstNonBlank(p.Category, "N/A")
	medical := joinConditions(p.MedicalConditions)
	return Card{
		Header:     h,
		Name:       strings.ToUpper(name),
		DetailLine: "Category: " + category + " | Medical: " + medical,
		Code:       code,
		QRColor:    colorInk,
		FileBase:   fileBase(name, "user"),
	}, nil
}

// FromVolunteer builds a volunteer card carrying the role label.
func FromVolunteer(h Header, v *models.Volunteer) (Card, error) {
	code := v.DisplayCode()
	if code == "" {
		return Card{}, ErrMissingIdentifier
	}
	return Card{
		Header:     h,
		Name:       strings.ToUpper(strings.TrimSpace(v.FullName)),
		DetailLine: "Role: " + v.RoleLabel(),
		Code:       code,
		QRColor:    colorAccent,
		FileBase:   fileBase(v.FullName, "volunteer"),
	}, nil
}

// PNGFilename is the download name of a single card.
func (c Card) PNGFilename() string {
	return c.FileBase + "_ID.png"
}

// PDFFilename is the download name of a bulk export produced on day.
func PDFFilename(day time.Time) string {
	return "ID_Cards_" + day.Format("2006-01-02") + ".pdf"
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

func fileBase(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	base := unsafeChars.ReplaceAllString(whitespaceRun.ReplaceAllString(name, "_"), "")
	if base == "" {
		return fallback
	}
	return base
}

func joinConditions(conditions []string) string {
	var out []string
	for _, c := range conditions {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return "None"
	}
	return strings.Join(out, ", ")
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
