package idcard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// DPI is the raster resolution of rendered cards.
const DPI = 200.0

var ErrRenderFailed = errors.New("card render failed")

var pngEncoder = png.Encoder{CompressionLevel: png.BestSpeed}

// Card geometry in millimetres from the card's top-left corner.
const (
	headerHeightMM = 27.0
	qrSizeMM       = 44.0
	qrTopMM        = 49.0
	paddingMM      = 4.0
)

// Px converts millimetres to pixels at DPI.
func Px(mm float64) int {
	return int(math.Round(mm / 25.4 * DPI))
}

func pxf(mm float64) float64 {
	return float64(Px(mm))
}

// Renderer draws cards. It is safe for concurrent use.
type Renderer struct {
	regular *truetype.Font
	bold    *truetype.Font
}

// NewRenderer loads the bundled Go fonts.
func NewRenderer() (*Renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &Renderer{regular: regular, bold: bold}, nil
}

func (r *Renderer) face(f *truetype.Font, points float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: points, DPI: DPI, Hinting: font.HintingFull})
}

// QRRect is where the QR symbol sits on a rendered card, in pixels.
func QRRect() image.Rectangle {
	size := Px(qrSizeMM)
	left := (Px(CardWidthMM) - size) / 2
	top := Px(qrTopMM)
	return image.Rect(left, top, left+size, top+size)
}

// QRImage encodes payload as a square QR symbol of size pixels, quiet zone included.
func QRImage(payload string, size int, fg string) (image.Image, error) {
	if payload == "" {
		return nil, ErrMissingIdentifier
	}
	q, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	q.BackgroundColor = color.White
	if c, ok := parseHex(fg); ok {
		q.ForegroundColor = c
	}
	return q.Image(size), nil
}

// RenderImage draws card. Panics inside the drawing library are returned as ErrRenderFailed.
func (r *Renderer) RenderImage(card Card) (img image.Image, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img = nil
			err = fmt.Errorf("%w: %v", ErrRenderFailed, rec)
		}
	}()
	if card.Code == "" {
		return nil, ErrMissingIdentifier
	}

	w, h := Px(CardWidthMM), Px(CardHeightMM)
	dc := gg.NewContext(w, h)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	dc.SetHexColor("#f4ecf7")
	dc.DrawRectangle(0, 0, float64(w), pxf(headerHeightMM))
	dc.Fill()

	cx := float64(w) / 2
	textWidth := float64(w) - 2*pxf(paddingMM)

	dc.SetHexColor("#2c3e50")
	dc.SetFontFace(r.face(r.bold, 11))
	dc.DrawStringAnchored(card.Header.Title, cx, pxf(8), 0.5, 0.5)
	dc.SetHexColor("#555555")
	dc.SetFontFace(r.face(r.regular, 8))
	dc.DrawStringAnchored(card.Header.Subtitle, cx, pxf(14), 0.5, 0.5)
	dc.SetHexColor("#777777")
	dc.SetFontFace(r.face(r.regular, 6.5))
	dc.DrawStringAnchored(card.Header.DateLine, cx, pxf(19), 0.5, 0.5)
	dc.DrawStringAnchored(card.Header.AddressLine, cx, pxf(23.5), 0.5, 0.5)

	dc.SetHexColor(colorAccent)
	dc.SetFontFace(r.face(r.bold, 12))
	dc.DrawStringWrapped(card.Name, cx, pxf(36), 0.5, 0.5, textWidth, 1.2, gg.AlignCenter)

	dc.SetHexColor("#555555")
	dc.SetFontFace(r.face(r.regular, 7))
	dc.DrawStringWrapped(card.DetailLine, cx, pxf(44.5), 0.5, 0.5, textWidth, 1.2, gg.AlignCenter)

	rect := QRRect()
	qr, err := QRImage(card.Code, rect.Dx(), card.QRColor)
	if err != nil {
		return nil, err
	}
	dc.DrawImage(qr, rect.Min.X, rect.Min.Y)

	dc.SetHexColor(colorInk)
	dc.SetFontFace(r.face(r.bold, 9))
	dc.DrawStringAnchored(card.Code, cx, pxf(98.5), 0.5, 0.5)

	dc.SetHexColor(colorAccent)
	dc.SetLineWidth(pxf(0.6))
	inset := pxf(0.5)
	dc.DrawRoundedRectangle(inset, inset, float64(w)-2*inset, float64(h)-2*inset, pxf(2))
	dc.Stroke()

	return dc.Image(), nil
}

// RenderPNG draws card and encodes it as PNG.
func (r *Renderer) RenderPNG(card Card) ([]byte, error) {
	img, err := r.RenderImage(card)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pngEncoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

func parseHex(s string) (color.Color, bool) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return nil, false
	}
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, false
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, true
}
