// Package epaper commits 1bpp frames to an SSD16xx-class E-Ink controller
// and provides preview and mock updaters for development and tests.
package epaper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/log2"
)

// Commands
const (
	cmdDriverOutputControl  byte = 0x01
	cmdDataEntryMode        byte = 0x11
	cmdSwReset              byte = 0x12
	cmdTemperatureWrite     byte = 0x1A
	cmdMasterActivation     byte = 0x20
	cmdDisplayUpdateControl byte = 0x22
	cmdWriteRAMNew          byte = 0x24
	cmdWriteRAMOld          byte = 0x26
	cmdBorderWaveform       byte = 0x3C
	cmdRAMXRange            byte = 0x44
	cmdRAMYRange            byte = 0x45
	cmdRAMXCounter          byte = 0x4E
	cmdRAMYCounter          byte = 0x4F
)

// Display update sequences, written with cmdDisplayUpdateControl.
const (
	// load temperature, load LUT, display mode 1
	sequenceFull byte = 0xF7
	// display mode 2, differential against old RAM
	sequencePartial byte = 0xFC
)

// spidev default bufsiz
const spiChunk = 4096

const busyPoll = 5 * time.Millisecond

// Panel implements types.DisplayUpdater over SPI.
type Panel struct {
	Log *log2.Log

	mu          sync.Mutex
	hw          hardware
	geom        types.Geometry
	busyTimeout time.Duration
	tempC       int
	stat        Stat
}

type Stat struct {
	Full    uint32
	Partial uint32
	Error   uint32
}

var _ types.DisplayUpdater = &Panel{} // compile-time interface test

func NewPanel(c *Config, log *log2.Log) (*Panel, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Annotate(err, "epaper config")
	}
	p := &Panel{
		Log:         log,
		geom:        c.Geometry(),
		busyTimeout: c.BusyTimeout(),
		tempC:       c.Temperature(),
	}
	if err := p.hw.open(c); err != nil {
		return nil, errors.Annotate(err, "epaper open")
	}
	return p, nil
}

func (p *Panel) Close() error { return p.hw.Close() }

func (p *Panel) Geometry() types.Geometry { return p.geom }

func (p *Panel) Stat() Stat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stat
}

func (p *Panel) String() string {
	return fmt.Sprintf("epaper.Panel{%s temperature=%d}", p.geom.String(), p.tempC)
}

func (p *Panel) Commit(ctx context.Context, prev, next types.Frame, q types.Quality) error {
	size := p.geom.FrameSize()
	if len(next) != size {
		return errors.NotValidf("epaper next frame len=%d expected=%d", len(next), size)
	}
	if len(prev) != size {
		return errors.NotValidf("epaper prev frame len=%d expected=%d", len(prev), size)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	tbegin := time.Now()
	err := p.commit(ctx, prev, next, q)
	if err != nil {
		p.stat.Error++
		return errors.Annotatef(err, "epaper commit quality=%s", q.String())
	}
	switch q {
	case types.QualityFull:
		p.stat.Full++
	case types.QualityPartial:
		p.stat.Partial++
	}
	p.Log.Debugf("epaper commit quality=%s duration=%v", q.String(), time.Since(tbegin))
	return nil
}

func (p *Panel) commit(ctx context.Context, prev, next types.Frame, q types.Quality) error {
	t := &tx{p: p}
	sequence := sequencePartial
	if q == types.QualityFull {
		sequence = sequenceFull
		t.reset()
		t.waitIdle(ctx)
		t.command(cmdSwReset)
		t.waitIdle(ctx)
		t.setup()
	}
	t.writeRAM(cmdWriteRAMOld, prev)
	t.writeRAM(cmdWriteRAMNew, next)
	t.command(cmdDisplayUpdateControl, sequence)
	t.command(cmdMasterActivation)
	t.waitIdle(ctx)
	return t.err
}

// tx stops at first error, see periph waveshare errorHandler.
type tx struct {
	p   *Panel
	err error
}

func (t *tx) reset() {
	t.pin(t.p.hw.rst, false)
	t.sleep(10 * time.Millisecond)
	t.pin(t.p.hw.rst, true)
	t.sleep(10 * time.Millisecond)
}

func (t *tx) setup() {
	g := t.p.geom
	last := g.Height - 1
	t.command(cmdDriverOutputControl, byte(last&0xff), byte(last>>8), 0x00)
	// X increment, Y increment
	t.command(cmdDataEntryMode, 0x03)
	t.command(cmdRAMXRange, 0x00, byte(g.Stride()-1))
	t.command(cmdRAMYRange, 0x00, 0x00, byte(last&0xff), byte(last>>8))
	t.command(cmdBorderWaveform, 0x05)
	t.command(cmdTemperatureWrite, byte(int8(t.p.tempC)), 0x00)
}

func (t *tx) writeRAM(cmd byte, f types.Frame) {
	t.command(cmdRAMXCounter, 0x00)
	t.command(cmdRAMYCounter, 0x00, 0x00)
	t.command(cmd)
	for i := 0; i < len(f) && t.err == nil; i += spiChunk {
		end := i + spiChunk
		if end > len(f) {
			end = len(f)
		}
		t.data(f[i:end])
	}
}

func (t *tx) command(c byte, data ...byte) {
	t.pin(t.p.hw.dc, false)
	if t.err == nil {
		t.err = t.p.hw.spiTx([]byte{c}, nil)
	}
	if len(data) != 0 {
		t.data(data)
	}
}

func (t *tx) data(b []byte) {
	t.pin(t.p.hw.dc, true)
	if t.err == nil {
		t.err = t.p.hw.spiTx(b, nil)
	}
}

func (t *tx) pin(f PinOutFunc, high bool) {
	if t.err == nil {
		t.err = f(high)
	}
}

func (t *tx) sleep(d time.Duration) {
	if t.err == nil {
		time.Sleep(d)
	}
}

func (t *tx) waitIdle(ctx context.Context) {
	if t.err != nil {
		return
	}
	deadline := time.Now().Add(t.p.busyTimeout)
	for t.p.hw.busy() {
		if time.Now().After(deadline) {
			t.err = errors.Timeoutf("epaper busy timeout=%v", t.p.busyTimeout)
			return
		}
		select {
		case <-ctx.Done():
			t.err = errors.Trace(ctx.Err())
			return
		case <-time.After(busyPoll):
		}
	}
}
