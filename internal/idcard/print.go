package idcard

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
)

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Print ID Cards</title>
<style>
@page { size: A4; margin: {{.Margin}}mm; }
body { margin: 0; }
.sheet { display: flex; flex-wrap: wrap; gap: {{.Gap}}mm; }
img.id-card { width: {{.Width}}mm; height: {{.Height}}mm; page-break-inside: avoid; break-inside: avoid; }
</style>
</head>
<body>
<div class="sheet">
{{- range .Images}}
<img class="id-card" src="{{.}}" alt="ID card">
{{- end}}
</div>
<script>window.addEventListener("load", function () { window.print(); });</script>
</body>
</html>
`))

type printPage struct {
	Margin, Gap, Width, Height float64
	Images                     []template.URL
}

// RenderPrintHTML returns a self-contained print document with each card embedded as a PNG data URI.
func (r *Renderer) RenderPrintHTML(cards []Card) ([]byte, error) {
	if len(cards) == 0 {
		return nil, ErrNoCards
	}
	page := printPage{Margin: MarginMM, Gap: GapMM, Width: CardWidthMM, Height: CardHeightMM}
	for i, c := range cards {
		img, err := r.RenderPNG(c)
		if err != nil {
			return nil, fmt.Errorf("card %d (%s): %w", i+1, c.Code, err)
		}
		page.Images = append(page.Images, template.URL("data:image/png;base64,"+base64.StdEncoding.EncodeToString(img)))
	}
	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("%w: print document: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}
