// Package led drives the status LED from peripheral commands.
package led

import (
	"sync/atomic"

	"github.com/juju/errors"
	gpio "github.com/temoto/gpio-cdev-go"
	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/log2"
)

const consumerLabel = "inkmenu-led"

type Config struct {
	Enable    bool   `hcl:"enable"`
	Chip      string `hcl:"chip"`
	Line      uint32 `hcl:"line"`
	ActiveLow bool   `hcl:"active_low"`
}

// Led without lines (disabled in config) only logs and tracks state.
type Led struct {
	Log   *log2.Log
	chip  gpio.Chiper
	lines gpio.Lineser
	set   gpio.LineSetFunc
	on    uint32
}

func Open(c *Config, log *log2.Log) (*Led, error) {
	if !c.Enable {
		return &Led{Log: log}, nil
	}
	chip, err := gpio.Open(c.Chip, consumerLabel)
	if err != nil {
		return nil, errors.Annotatef(err, "led chip=%s", c.Chip)
	}
	self, err := New(chip, c, log)
	if err != nil {
		chip.Close() //nolint:errcheck
		return nil, err
	}
	return self, nil
}

func New(chip gpio.Chiper, c *Config, log *log2.Log) (*Led, error) {
	flag := gpio.GPIOHANDLE_REQUEST_OUTPUT
	if c.ActiveLow {
		flag |= gpio.GPIOHANDLE_REQUEST_ACTIVE_LOW
	}
	lines, err := chip.OpenLines(flag, consumerLabel, c.Line)
	if err != nil {
		return nil, errors.Annotatef(err, "led line=%d", c.Line)
	}
	return &Led{
		Log:   log,
		chip:  chip,
		lines: lines,
		set:   lines.SetFunc(c.Line),
	}, nil
}

func (self *Led) Close() error {
	if self.lines == nil {
		return nil
	}
	err := self.lines.Close()
	if self.chip != nil {
		if err2 := self.chip.Close(); err == nil {
			err = err2
		}
	}
	return err
}

func (self *Led) On() bool { return atomic.LoadUint32(&self.on) == 1 }

func (self *Led) Apply(cmd types.PeripheralCommand) error {
	var v byte
	switch cmd {
	case types.PeripheralLedOn:
		v = 1
	case types.PeripheralLedOff:
		v = 0
	default:
		return errors.NotValidf("led command=%s", cmd.String())
	}
	if self.lines != nil {
		self.set(v)
		if err := self.lines.Flush(); err != nil {
			return errors.Annotatef(err, "led %s", cmd.String())
		}
	}
	atomic.StoreUint32(&self.on, uint32(v))
	self.Log.Debugf("led %s", cmd.String())
	return nil
}

// Run applies commands until stop or channel close.
func (self *Led) Run(ch <-chan types.PeripheralCommand, stop <-chan struct{}) {
	for {
		select {
		case cmd, ok := <-ch:
			if !ok {
				return
			}
			if err := self.Apply(cmd); err != nil {
				self.Log.Error(err)
			}
		case <-stop:
			return
		}
	}
}
