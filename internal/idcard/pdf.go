package idcard

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
)

var (
	ErrNoCards         = errors.New("no cards to export")
	ErrStorageDisabled = errors.New("export storage is not configured")
)

// RenderPDF packs cards onto A4 pages at their Pack placements.
func (r *Renderer) RenderPDF(cards []Card) ([]byte, error) {
	doc, err := r.buildPDF(cards)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: write pdf: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) buildPDF(cards []Card) (*fpdf.Fpdf, error) {
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle("ID Cards", true)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	page := -1
	for i, pl := range Pack(len(cards)) {
		if pl.Page != page {
			doc.AddPage()
			page = pl.Page
		}
		img, err := r.RenderPNG(cards[i])
		if err != nil {
			return nil, fmt.Errorf("card %d (%s): %w", i+1, cards[i].Code, err)
		}
		name := fmt.Sprintf("card-%d", i)
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
		doc.ImageOptions(name, pl.X, pl.Y, CardWidthMM, CardHeightMM, false, opts, 0, "")
		if !doc.Ok() {
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, doc.Error())
		}
	}
	return doc, nil
}
