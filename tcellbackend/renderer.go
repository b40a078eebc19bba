// Package tcellbackend draws arbor paint trees in a terminal through tcell
// and turns terminal input into stage events.
//
// Every terminal cell shows two vertically stacked pixels using the upper
// half block glyph, so a stage for a W×H cell terminal is W×2H units and
// its pixels are roughly square.
package tcellbackend

import (
	"errors"

	"github.com/gdamore/tcell/v2"

	"github.com/phanxgames/arbor"
)

const upperHalfBlock = '▀'

// Renderer rasterizes paint trees and copies the result to a tcell screen.
type Renderer struct {
	screen     tcell.Screen
	raster     *Raster
	background arbor.Color
}

// NewRenderer creates a renderer for screen. bg is painted under the tree;
// terminals have no transparency, so it should be opaque.
func NewRenderer(screen tcell.Screen, bg arbor.Color) *Renderer {
	return &Renderer{screen: screen, raster: NewRaster(0, 0), background: bg}
}

// StageSize returns the stage size in units for a screen of cols×rows
// cells.
func StageSize(cols, rows int) (w, h float64) {
	return float64(cols), float64(rows * 2)
}

// CellToStage returns the stage point at the center of the cell (x, y).
func CellToStage(x, y int) (float64, float64) {
	return float64(x) + 0.5, float64(y*2) + 1
}

// Raster returns the pixels behind the last frame.
func (r *Renderer) Raster() *Raster { return r.raster }

// RenderPaintTree implements arbor.Renderer.
func (r *Renderer) RenderPaintTree(root *arbor.PaintNode) error {
	if r.screen == nil {
		return errors.New("tcellbackend: no screen")
	}
	cols, rows := r.screen.Size()
	r.raster.Resize(cols, rows*2)
	r.raster.Draw(root, r.background)
	r.flush(cols, rows)
	r.screen.Show()
	return nil
}

// flush copies the raster to the screen, two pixels per cell.
func (r *Renderer) flush(cols, rows int) {
	img := r.raster.Image()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := img.RGBAAt(x, 2*y)
			bottom := img.RGBAAt(x, 2*y+1)
			bg := tcell.NewRGBColor(int32(bottom.R), int32(bottom.G), int32(bottom.B))
			if top == bottom {
				r.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(bg))
				continue
			}
			fg := tcell.NewRGBColor(int32(top.R), int32(top.G), int32(top.B))
			r.screen.SetContent(x, y, upperHalfBlock, nil, tcell.StyleDefault.Foreground(fg).Background(bg))
		}
	}
}
