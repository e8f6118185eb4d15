package epaper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/temoto/inkmenu/internal/types"
)

// One text cell covers previewCellX by previewCellY pixels.
const (
	previewCellX = 2
	previewCellY = 4
)

// Preview prints committed frames as text, for development without panel.
type Preview struct {
	mu    sync.Mutex
	w     io.Writer
	geom  types.Geometry
	black string
	white string
	n     int
}

var _ types.DisplayUpdater = &Preview{} // compile-time interface test

func NewPreview(w io.Writer, g types.Geometry) *Preview {
	p := &Preview{w: w, geom: g, black: "#", white: "."}
	if f, ok := w.(interface{ Fd() uintptr }); ok && isatty.IsTerminal(f.Fd()) {
		p.black, p.white = "█", " "
	}
	return p
}

func (p *Preview) Commit(ctx context.Context, prev, next types.Frame, q types.Quality) error {
	if len(next) != p.geom.FrameSize() {
		return errors.NotValidf("preview frame len=%d expected=%d", len(next), p.geom.FrameSize())
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n++
	header := fmt.Sprintf("--- commit #%d quality=%s changed=%d\n", p.n, q.String(), ChangedPixels(p.geom, prev, next))
	if _, err := io.WriteString(p.w, header+FrameText(p.geom, next, p.black, p.white)); err != nil {
		return errors.Annotate(err, "preview write")
	}
	return nil
}

// FrameText draws frame downscaled, cell is black if any pixel in it is black.
func FrameText(g types.Geometry, f types.Frame, black, white string) string {
	b := strings.Builder{}
	cols := (g.Width + previewCellX - 1) / previewCellX
	rows := (g.Height + previewCellY - 1) / previewCellY
	b.Grow((cols + 1) * rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			if cellBlack(g, f, col*previewCellX, row*previewCellY) {
				b.WriteString(black)
			} else {
				b.WriteString(white)
			}
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func cellBlack(g types.Geometry, f types.Frame, x0, y0 int) bool {
	for y := y0; y < y0+previewCellY; y++ {
		for x := x0; x < x0+previewCellX; x++ {
			if f.Black(g, x, y) {
				return true
			}
		}
	}
	return false
}

// ChangedPixels counts pixels that differ, prev of wrong size counts as all changed.
func ChangedPixels(g types.Geometry, prev, next types.Frame) int {
	if len(prev) != len(next) {
		return g.Width * g.Height
	}
	n := 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if prev.Black(g, x, y) != next.Black(g, x, y) {
				n++
			}
		}
	}
	return n
}
