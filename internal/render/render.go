// Package render paints menu pages into 1bpp frames.
package render

import (
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/juju/errors"
	"github.com/temoto/inkmenu/internal/types"
	ui_config "github.com/temoto/inkmenu/internal/ui/config"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

// Layout is in pixels of the 264x176 reference panel, scaled to actual geometry.
const (
	refWidth  = 264
	refHeight = 176

	titleSize = 32
	textSize  = 16

	itemX     = 110
	itemY0    = 58
	itemStep  = 20
	arrowX    = 90
	arrowY0   = 65
	splashY0  = 85
	instructY = 58
)

// arrow triangle relative to anchor
var arrow = [3]gg.Point{{X: 10, Y: 0}, {X: 0, Y: 5}, {X: 0, Y: -5}}

type Renderer struct {
	geom  types.Geometry
	text  ui_config.Text
	title font.Face
	body  font.Face
	scale float64
}

var _ types.Renderer = &Renderer{} // compile-time interface test

func New(g types.Geometry, text ui_config.Text) (*Renderer, error) {
	if g.Width <= 0 || g.Height <= 0 {
		return nil, errors.NotValidf("render geometry=%s", g.String())
	}
	text.SetDefaults()
	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, errors.Annotate(err, "render font parse")
	}
	scale := float64(g.Width) / refWidth
	if s := float64(g.Height) / refHeight; s < scale {
		scale = s
	}
	r := &Renderer{
		geom:  g,
		text:  text,
		scale: scale,
		title: truetype.NewFace(f, &truetype.Options{Size: titleSize * scale, Hinting: font.HintingFull}),
		body:  truetype.NewFace(f, &truetype.Options{Size: textSize * scale, Hinting: font.HintingFull}),
	}
	return r, nil
}

func (r *Renderer) Geometry() types.Geometry { return r.geom }

func (r *Renderer) Render(p types.Page) types.Frame {
	dc := gg.NewContext(r.geom.Width, r.geom.Height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	switch p {
	case types.PageSplash:
		r.lines(dc, r.text.Splash, splashY0)
	case types.PageInstructions:
		r.lines(dc, r.text.Instructions, instructY)
	case types.PageLedOn:
		r.menu(dc, 0)
	case types.PageLedOff:
		r.menu(dc, 1)
	case types.PageBrightness:
		r.menu(dc, 2)
	}
	// unknown page renders blank
	return Pack(r.geom, dc.Image())
}

func (r *Renderer) lines(dc *gg.Context, lines []string, y0 float64) {
	dc.SetFontFace(r.body)
	for i, s := range lines {
		dc.DrawStringAnchored(s, r.x(refWidth/2), r.y(y0+float64(i*itemStep)), 0.5, 1)
	}
}

func (r *Renderer) menu(dc *gg.Context, selected int) {
	dc.SetFontFace(r.title)
	dc.DrawStringAnchored(r.text.Title, r.x(refWidth/2), r.y(5), 0.5, 1)

	dc.SetFontFace(r.body)
	items := []string{r.text.LedOn, r.text.LedOff, r.text.Brightness}
	for i, s := range items {
		dc.DrawStringAnchored(s, r.x(itemX), r.y(float64(itemY0+i*itemStep)), 0, 1)
	}

	ay := float64(arrowY0 + selected*itemStep)
	for i, pt := range arrow {
		if i == 0 {
			dc.MoveTo(r.x(arrowX+pt.X), r.y(ay+pt.Y))
		} else {
			dc.LineTo(r.x(arrowX+pt.X), r.y(ay+pt.Y))
		}
	}
	dc.ClosePath()
	dc.Fill()
}

func (r *Renderer) x(v float64) float64 { return v * r.scale }
func (r *Renderer) y(v float64) float64 { return v * r.scale }

// Pack converts image to frame, dark pixels become black.
func Pack(g types.Geometry, img image.Image) types.Frame {
	f := types.NewFrame(g)
	b := img.Bounds()
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			pt := image.Pt(b.Min.X+x, b.Min.Y+y)
			if !pt.In(b) {
				continue
			}
			cr, cg, cb, _ := img.At(pt.X, pt.Y).RGBA()
			// luma, 16 bit channels
			if (299*cr+587*cg+114*cb)/1000 < 0x8000 {
				f.SetBlack(g, x, y, true)
			}
		}
	}
	return f
}
