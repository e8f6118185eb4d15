package types

import (
	"context"
	"fmt"
)

// Page identifies one screen the renderer can paint.
type Page uint8

const (
	PageInvalid Page = iota
	PageSplash
	PageLedOn
	PageLedOff
	PageBrightness
	PageInstructions
)

func (p Page) String() string {
	switch p {
	case PageInvalid:
		return "Invalid"
	case PageSplash:
		return "Splash"
	case PageLedOn:
		return "LedOn"
	case PageLedOff:
		return "LedOff"
	case PageBrightness:
		return "Brightness"
	case PageInstructions:
		return "Instructions"
	}
	return fmt.Sprintf("Page(%d)", uint8(p))
}

type Quality uint8

const (
	// Full is multi-stage update, clears ghosting, slow.
	QualityFull Quality = iota
	// Partial is fast update, may leave artifacts.
	QualityPartial
)

func (q Quality) String() string {
	switch q {
	case QualityFull:
		return "Full"
	case QualityPartial:
		return "Partial"
	}
	return fmt.Sprintf("Quality(%d)", uint8(q))
}

type Geometry struct {
	Width  int
	Height int
}

func (g Geometry) Stride() int    { return (g.Width + 7) / 8 }
func (g Geometry) FrameSize() int { return g.Stride() * g.Height }
func (g Geometry) String() string { return fmt.Sprintf("%dx%d", g.Width, g.Height) }

// Frame is 1 bit per pixel, rows top to bottom, MSB is leftmost pixel.
// Set bit is white, matching SSD16xx RAM.
type Frame []byte

func NewFrame(g Geometry) Frame {
	f := make(Frame, g.FrameSize())
	for i := range f {
		f[i] = 0xff
	}
	return f
}

func (f Frame) Black(g Geometry, x, y int) bool {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return false
	}
	return f[y*g.Stride()+x/8]&(0x80>>uint(x%8)) == 0
}

func (f Frame) SetBlack(g Geometry, x, y int, black bool) {
	if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
		return
	}
	i, mask := y*g.Stride()+x/8, byte(0x80>>uint(x%8))
	if black {
		f[i] &^= mask
	} else {
		f[i] |= mask
	}
}

func (f Frame) Clone() Frame {
	if f == nil {
		return nil
	}
	c := make(Frame, len(f))
	copy(c, f)
	return c
}

// Renderer paints a page into a new frame. Must not touch the panel.
type Renderer interface {
	Geometry() Geometry
	Render(Page) Frame
}

// DisplayUpdater commits new frame to the panel.
// prev must be exactly what is currently on the panel.
type DisplayUpdater interface {
	Commit(ctx context.Context, prev, next Frame, q Quality) error
}
