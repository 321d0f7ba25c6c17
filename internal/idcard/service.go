package idcard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/models"
)

const (
	ContentTypePNG  = "image/png"
	ContentTypePDF  = "application/pdf"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// ParticipantStore is the participant persistence used for card exports.
type ParticipantStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Participant, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Participant, error)
	MarkIDGenerated(ctx context.Context, id uuid.UUID, at time.Time) error
}

// VolunteerStore is the volunteer lookup used for card exports.
type VolunteerStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Volunteer, error)
}

// ObjectStore keeps bulk exports for later download.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignDownload(ctx context.Context, key string) (string, time.Time, error)
}

// Export is a rendered download.
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
	Count       int
	Skipped     []uuid.UUID
}

// StoredExport is a bulk export uploaded to object storage.
type StoredExport struct {
	Key       string      `json:"key"`
	URL       string      `json:"url"`
	ExpiresAt time.Time   `json:"expires_at"`
	Filename  string      `json:"filename"`
	Count     int         `json:"count"`
	Pages     int         `json:"pages"`
	Skipped   []uuid.UUID `json:"skipped"`
}

// Service turns stored entries into card exports and marks participants whose card was produced.
type Service struct {
	renderer     *Renderer
	header       Header
	participants ParticipantStore
	volunteers   VolunteerStore
	objects      ObjectStore
	now          func() time.Time
	logger       *zap.Logger
}

// NewService creates a card export service. objects may be nil when no export bucket is configured.
func NewService(renderer *Renderer, header Header, participants ParticipantStore, volunteers VolunteerStore, objects ObjectStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		renderer:     renderer,
		header:       header,
		participants: participants,
		volunteers:   volunteers,
		objects:      objects,
		now:          time.Now,
		logger:       logger,
	}
}

// ParticipantPNG renders one participant card. The id_generated flag is written only after rendering succeeded.
func (s *Service) ParticipantPNG(ctx context.Context, id uuid.UUID) (*Export, error) {
	p, err := s.participants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	card, err := FromParticipant(s.header, p)
	if err != nil {
		return nil, err
	}
	body, err := s.renderer.RenderPNG(card)
	if err != nil {
		s.logger.Error("card render failed", zap.String("participant_id", id.String()), zap.Error(err))
		return nil, err
	}
	s.markGenerated(ctx, []uuid.UUID{p.ID})
	return &Export{Filename: card.PNGFilename(), ContentType: ContentTypePNG, Body: body, Count: 1}, nil
}

// VolunteerPNG renders one volunteer card.
func (s *Service) VolunteerPNG(ctx context.Context, id uuid.UUID) (*Export, error) {
	v, err := s.volunteers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	card, err := FromVolunteer(s.header, v)
	if err != nil {
		return nil, err
	}
	body, err := s.renderer.RenderPNG(card)
	if err != nil {
		s.logger.Error("card render failed", zap.String("volunteer_id", id.String()), zap.Error(err))
		return nil, err
	}
	return &Export{Filename: card.PNGFilename(), ContentType: ContentTypePNG, Body: body, Count: 1}, nil
}

// BulkPDF renders the selected participants that carry an assigned code into one paged PDF.
func (s *Service) BulkPDF(ctx context.Context, ids []uuid.UUID) (*Export, error) {
	return s.bulk(ctx, ids, func(cards []Card) (*Export, error) {
		body, err := s.renderer.RenderPDF(cards)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: PDFFilename(s.now()), ContentType: ContentTypePDF, Body: body}, nil
	})
}

// BulkPrint renders the selected participants into a print document.
func (s *Service) BulkPrint(ctx context.Context, ids []uuid.UUID) (*Export, error) {
	return s.bulk(ctx, ids, func(cards []Card) (*Export, error) {
		body, err := s.renderer.RenderPrintHTML(cards)
		if err != nil {
			return nil, err
		}
		return &Export{Filename: "ID_Cards_print.html", ContentType: ContentTypeHTML, Body: body}, nil
	})
}

// ExportToStorage renders a bulk PDF, uploads it and returns a presigned download link.
func (s *Service) ExportToStorage(ctx context.Context, ids []uuid.UUID) (*StoredExport, error) {
	if s.objects == nil {
		return nil, ErrStorageDisabled
	}
	exp, err := s.BulkPDF(ctx, ids)
	if err != nil {
		return nil, err
	}
	key := path.Join("id-cards", s.now().UTC().Format("2006/01/02"), uuid.NewString()+".pdf")
	if err := s.objects.Upload(ctx, key, exp.ContentType, bytes.NewReader(exp.Body), int64(len(exp.Body))); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	url, expires, err := s.objects.PresignDownload(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("presign export: %w", err)
	}
	return &StoredExport{
		Key:       key,
		URL:       url,
		ExpiresAt: expires,
		Filename:  exp.Filename,
		Count:     exp.Count,
		Pages:     PageCount(exp.Count),
		Skipped:   exp.Skipped,
	}, nil
}

func (s *Service) bulk(ctx context.Context, ids []uuid.UUID, render func([]Card) (*Export, error)) (*Export, error) {
	entries, err := s.participants.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	var cards []Card
	var exported []uuid.UUID
	skipped := []uuid.UUID{}
	found := make(map[uuid.UUID]bool, len(entries))
	for i := range entries {
		p := &entries[i]
		found[p.ID] = true
		if !p.HasAssignedCode() {
			skipped = append(skipped, p.ID)
			continue
		}
		card, err := FromParticipant(s.header, p)
		if err != nil {
			skipped = append(skipped, p.ID)
			continue
		}
		cards = append(cards, card)
		exported = append(exported, p.ID)
	}
	for _, id := range ids {
		if !found[id] {
			skipped = append(skipped, id)
		}
	}
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	exp, err := render(cards)
	if err != nil {
		s.logger.Error("bulk card export failed", zap.Int("cards", len(cards)), zap.Error(err))
		return nil, err
	}
	exp.Count = len(cards)
	exp.Skipped = skipped
	s.markGenerated(ctx, exported)
	return exp, nil
}

func (s *Service) markGenerated(ctx context.Context, ids []uuid.UUID) {
	at := s.now()
	for _, id := range ids {
		if err := s.participants.MarkIDGenerated(ctx, id, at); err != nil {
			s.logger.Warn("mark id generated failed", zap.String("participant_id", id.String()), zap.Error(err))
		}
	}
}
