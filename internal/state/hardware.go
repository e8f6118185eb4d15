package state

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
	"github.com/temoto/inkmenu/hardware/epaper"
	"github.com/temoto/inkmenu/hardware/input"
	"github.com/temoto/inkmenu/hardware/led"
	"github.com/temoto/inkmenu/helpers"
	"github.com/temoto/inkmenu/internal/render"
	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/log2"
)

const gpioConsumer = "inkmenu"

type hardware struct {
	Display struct {
		once
		d types.DisplayUpdater
		// preview driver output, default stdout
		PreviewWriter io.Writer
	}
	Renderer struct {
		once
		r *render.Renderer
	}
	Input struct {
		Dispatch  *input.Dispatch
		Commander *input.Commander
		closers   []io.Closer
	}
	Led struct {
		once
		l *led.Led
	}

	chips struct {
		sync.Mutex
		m map[string]gpio.Chiper
	}
}

func (g *Global) Display() (types.DisplayUpdater, error) {
	x := &g.Hardware.Display // short alias
	_ = x.do(func() error {
		cfg := &g.Config.Hardware.Display
		switch cfg.Driver {
		case "", epaper.DriverSpi:
			p, err := epaper.NewPanel(cfg, g.Log)
			if err != nil {
				x.err = errors.Annotate(err, "display driver=spi")
				break
			}
			x.d = p
		case epaper.DriverPreview:
			w := x.PreviewWriter
			if w == nil {
				w = os.Stdout
			}
			x.d = epaper.NewPreview(w, cfg.Geometry())
		case epaper.DriverMock:
			x.d = epaper.NewMock(cfg.Geometry())
		default:
			x.err = errors.NotValidf("config: hardware.display.driver=%s", cfg.Driver)
		}
		return x.err
	})
	return x.d, x.err
}

func (g *Global) Renderer() (*render.Renderer, error) {
	x := &g.Hardware.Renderer // short alias
	_ = x.do(func() error {
		x.r, x.err = render.New(g.Config.Hardware.Display.Geometry(), g.Config.UI.Text)
		return x.err
	})
	return x.r, x.err
}

func (g *Global) Led() (*led.Led, error) {
	x := &g.Hardware.Led // short alias
	_ = x.do(func() error {
		x.l, x.err = led.Open(&g.Config.Hardware.Led, g.Log)
		return x.err
	})
	return x.l, x.err
}

func (g *Global) gpioChip(path string) (gpio.Chiper, error) {
	x := &g.Hardware.chips // short alias
	x.Lock()
	defer x.Unlock()
	if chip, ok := x.m[path]; ok {
		return chip, nil
	}
	chip, err := gpio.Open(path, gpioConsumer)
	if err != nil {
		return nil, errors.Annotatef(err, "gpio chip=%s", path)
	}
	if x.m == nil {
		x.m = make(map[string]gpio.Chiper)
	}
	x.m[path] = chip
	return chip, nil
}

// initInput starts input dispatch and key to command mapping.
func (g *Global) initInput() error {
	stop := g.Alive.StopChan()
	x := &g.Hardware.Input // short alias
	x.Dispatch = input.NewDispatch(g.Log, stop)

	keymap, err := input.NewKeymap(g.Config.Hardware.Input.Keymap)
	if err != nil {
		return errors.Annotate(err, "input keymap")
	}
	x.Commander = &input.Commander{Log: g.Log, Keymap: keymap, Out: g.Commands}

	// support more input sources here
	sources := make([]input.Source, 0, 4)
	errs := make([]error, 0)

	if cfg := &g.Config.Hardware.Input.DevInputEvent; !cfg.Enable {
		g.Log.Infof("input=%s disabled", input.DevInputEventTag)
	} else {
		src, err := input.NewDevInputEventSource(cfg.Device)
		if err != nil {
			errs = append(errs, errors.Annotatef(err, "input=%s", input.DevInputEventTag))
		} else {
			sources = append(sources, src)
			x.closers = append(x.closers, src)
		}
	}

	for i := range g.Config.Hardware.Input.GpioButtons {
		cfg := &g.Config.Hardware.Input.GpioButtons[i]
		chip, err := g.gpioChip(cfg.Chip)
		if err != nil {
			errs = append(errs, errors.Annotatef(err, "input=%s name=%s", input.GpioButtonTag, cfg.Name))
			continue
		}
		src, err := input.NewGpioButtonSource(chip, cfg, stop)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sources = append(sources, src)
		x.closers = append(x.closers, src)
	}
	if err := helpers.FoldErrors(errs); err != nil {
		for _, c := range x.closers {
			_ = c.Close()
		}
		x.closers = nil
		return err
	}

	go x.Commander.Run(x.Dispatch, stop)
	go x.Dispatch.Run(sources)
	return nil
}

func (h *hardware) close(log *log2.Log) {
	errs := make([]error, 0)
	for _, c := range h.Input.closers {
		errs = append(errs, c.Close())
	}
	if c, ok := h.Display.d.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if h.Led.l != nil {
		errs = append(errs, h.Led.l.Close())
	}
	h.chips.Lock()
	for _, chip := range h.chips.m {
		errs = append(errs, chip.Close())
	}
	h.chips.m = nil
	h.chips.Unlock()
	if err := helpers.FoldErrors(errs); err != nil {
		log.Error(errors.Annotate(err, "hardware close"))
	}
}

type once struct {
	sync.Mutex
	called uint32 // atomic bool
	err    error
}

func (o *once) done() bool {
	return atomic.LoadUint32(&o.called) == 1
}

func (o *once) do(f func() error) error {
	if o.done() { // fast path
		return o.err
	}
	o.Lock()
	defer o.Unlock()
	if o.done() {
		return o.err
	}
	o.err = f()
	atomic.StoreUint32(&o.called, 1)
	return o.err
}
