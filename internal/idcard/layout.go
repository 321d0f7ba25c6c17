// Package idcard renders participant and volunteer ID cards and packs them for printing.
package idcard

// Printable media contract, in millimetres.
const (
	CardWidthMM  = 74.0
	CardHeightMM = 105.0
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
	MarginMM     = 15.0
	GapMM        = 10.0
)

// Placement is where one card lands in a bulk export.
type Placement struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Columns is the number of cards per row on an A4 page.
func Columns() int {
	w := (PageWidthMM - 2*MarginMM) / (CardWidthMM + GapMM)
	return int(w)
}

// Rows is the number of card rows on an A4 page.
func Rows() int {
	h := (PageHeightMM - 2*MarginMM) / (CardHeightMM + GapMM)
	return int(h)
}

// CardsPerPage is Columns() * Rows().
func CardsPerPage() int {
	return Columns() * Rows()
}

// PageCount returns how many pages n cards occupy.
func PageCount(n int) int {
	if n <= 0 {
		return 0
	}
	per := CardsPerPage()
	return (n + per - 1) / per
}

// Pack places n cards row by row, wrapping to a new row and then a new page when space runs out.
// Input order is preserved.
func Pack(n int) []Placement {
	if n <= 0 {
		return []Placement{}
	}
	cols, per := Columns(), CardsPerPage()
	out := make([]Placement, n)
	for i := 0; i < n; i++ {
		slot := i % per
		row, col := slot/cols, slot%cols
		out[i] = Placement{
			Page: i / per,
			X:    MarginMM + float64(col)*(CardWidthMM+GapMM),
			Y:    MarginMM + float64(row)*(CardHeightMM+GapMM),
		}
	}
	return out
}
