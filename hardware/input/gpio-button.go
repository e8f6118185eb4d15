package input

import (
	"fmt"
	"io"
	"time"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
	"github.com/temoto/inkmenu/internal/types"
)

const GpioButtonTag = "gpio-button"

const gpioButtonWait = 200 * time.Millisecond

type GpioButtonConfig struct {
	Name       string `hcl:"name,key"`
	Chip       string `hcl:"chip"`
	Line       uint32 `hcl:"line"`
	Key        int    `hcl:"key"`
	ActiveLow  bool   `hcl:"active_low"`
	DebounceMs int    `hcl:"debounce_ms"`
}

// GpioButtonSource turns line edges of one push button into key events.
// Edges closer than debounce to previous accepted edge are dropped.
type GpioButtonSource struct {
	name      string
	key       types.InputKey
	activeLow bool
	debounce  time.Duration
	ev        gpio.Eventer
	stop      <-chan struct{}

	lastTs   uint64
	lastDown bool
	seen     bool
}

var _ Source = new(GpioButtonSource)

func NewGpioButtonSource(chip gpio.Chiper, c *GpioButtonConfig, stop <-chan struct{}) (*GpioButtonSource, error) {
	label := "inkmenu-" + c.Name
	ev, err := chip.GetLineEvent(c.Line, 0, gpio.GPIOEVENT_REQUEST_BOTH_EDGES, label)
	if err != nil {
		return nil, errors.Annotatef(err, "%s name=%s line=%d", GpioButtonTag, c.Name, c.Line)
	}
	return &GpioButtonSource{
		name:      c.Name,
		key:       types.InputKey(c.Key),
		activeLow: c.ActiveLow,
		debounce:  time.Duration(c.DebounceMs) * time.Millisecond,
		ev:        ev,
		stop:      stop,
	}, nil
}

func (self *GpioButtonSource) String() string { return fmt.Sprintf("%s/%s", GpioButtonTag, self.name) }

func (self *GpioButtonSource) Close() error { return self.ev.Close() }

func (self *GpioButtonSource) Read() (types.InputEvent, error) {
	for {
		select {
		case <-self.stop:
			return types.InputEvent{}, io.EOF
		default:
		}

		e, err := self.ev.Wait(gpioButtonWait)
		if err != nil {
			if gpio.IsTimeout(err) {
				continue
			}
			return types.InputEvent{}, errors.Annotate(err, self.String())
		}
		if event, ok := self.edge(e); ok {
			return event, nil
		}
	}
}

func (self *GpioButtonSource) edge(e gpio.EventData) (types.InputEvent, bool) {
	var high bool
	switch e.ID {
	case gpio.GPIOEVENT_EVENT_RISING_EDGE:
		high = true
	case gpio.GPIOEVENT_EVENT_FALLING_EDGE:
		high = false
	default:
		return types.InputEvent{}, false
	}
	down := high != self.activeLow
	if self.seen {
		if down == self.lastDown {
			return types.InputEvent{}, false
		}
		if self.debounce > 0 && e.Timestamp-self.lastTs < uint64(self.debounce) {
			return types.InputEvent{}, false
		}
	}
	self.seen, self.lastDown, self.lastTs = true, down, e.Timestamp
	return types.InputEvent{Source: self.String(), Key: self.key, Up: !down}, true
}
