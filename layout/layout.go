// Package layout arranges icons in a near-square preview grid that fits a
// viewport, scaling cells by powers of two so that pixel icons stay crisp.
package layout

import (
	"image"
)

// Params describes the grid geometry at scale 1. Everything measured in
// units is multiplied by the scale.
type Params struct {
	BaseCell   int // cell side at scale 1, in pixels
	IconUnits  int // icon side within a cell
	InsetUnits int // offset of the icon from the cell's top left corner
	TrimUnits  int // trailing padding removed from the grid's extents
	// Bias is how many extra cells of margin the grid must leave before the
	// cell size may double again.
	Bias int
}

var (
	// Standard doubles the cell while 2·cell·max(cols,rows) + cell fits.
	Standard = Params{BaseCell: 20, IconUnits: 16, TrimUnits: 4, Bias: 1}
	// Legacy matches the first customiser: 16px icons with 4px gaps and no
	// margin bias.
	Legacy = Params{BaseCell: 20, IconUnits: 16, TrimUnits: 4, Bias: 0}
	// V2 matches the second customiser: icons inset by 1/20 of the cell and
	// a two cell margin.
	V2 = Params{BaseCell: 20, IconUnits: 16, InsetUnits: 1, Bias: 2}
)

// Layout is a computed grid.
type Layout struct {
	Count    int
	Columns  int
	Rows     int
	Scale    int // power of two
	CellSize int
	IconSize int
	Inset    int
	Width    int // pixel extents of the grid
	Height   int
}

// Compute lays out n icons using the Standard parameters.
func Compute(n, viewportWidth, viewportHeight int) Layout {
	return Standard.Compute(n, viewportWidth, viewportHeight)
}

// Columns returns the smallest c with c·c >= n.
func Columns(n int) int {
	c := 1
	for c*c < n {
		c++
	}
	return c
}

// Compute lays out n icons for a viewport. n <= 0 gives the zero Layout.
func (p Params) Compute(n, viewportWidth, viewportHeight int) Layout {
	if n <= 0 {
		return Layout{}
	}
	columns := Columns(n)
	rows := (n + columns - 1) / columns

	longest := columns
	if rows > longest {
		longest = rows
	}
	viewportMin := viewportWidth
	if viewportHeight < viewportMin {
		viewportMin = viewportHeight
	}

	scale := 1
	cell := p.BaseCell
	for cell > 0 && 2*cell*longest+p.Bias*cell < viewportMin {
		scale *= 2
		cell *= 2
	}

	return Layout{
		Count:    n,
		Columns:  columns,
		Rows:     rows,
		Scale:    scale,
		CellSize: cell,
		IconSize: p.IconUnits * scale,
		Inset:    p.InsetUnits * scale,
		Width:    columns*cell - p.TrimUnits*scale,
		Height:   rows*cell - p.TrimUnits*scale,
	}
}

// Origin returns where the grid's top left corner goes to centre it in the
// viewport.
func (l Layout) Origin(viewportWidth, viewportHeight int) image.Point {
	return image.Pt(floorHalf(viewportWidth-l.Width), floorHalf(viewportHeight-l.Height))
}

// Cell returns the destination rectangle of the i-th icon, relative to the
// grid's origin. Icons fill rows left to right.
func (l Layout) Cell(i int) image.Rectangle {
	x := (i%l.Columns)*l.CellSize + l.Inset
	y := (i/l.Columns)*l.CellSize + l.Inset
	return image.Rect(x, y, x+l.IconSize, y+l.IconSize)
}

// Equal reports whether re-rendering for o would produce the same picture.
func (l Layout) Equal(o Layout) bool {
	return l == o
}

func floorHalf(v int) int {
	if v < 0 {
		return -((-v + 1) / 2)
	}
	return v / 2
}
