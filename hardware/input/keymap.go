package input

import (
	"github.com/juju/errors"
	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/log2"
)

// Linux input-event-codes.h
const (
	KeyEsc   types.InputKey = 1
	KeyEnter types.InputKey = 28
	KeyUp    types.InputKey = 103
	KeyLeft  types.InputKey = 105
	KeyRight types.InputKey = 106
	KeyDown  types.InputKey = 108
)

type KeymapConfig struct {
	Back     []int `hcl:"back"`
	Confirm  []int `hcl:"confirm"`
	Next     []int `hcl:"next"`
	Previous []int `hcl:"previous"`
}

// Keymap maps raw keys to menu commands. Only key press is mapped, release is ignored.
type Keymap map[types.InputKey]types.Command

func DefaultKeymap() Keymap {
	return Keymap{
		KeyEsc:   types.CommandBack,
		KeyEnter: types.CommandConfirm,
		KeyRight: types.CommandNext,
		KeyDown:  types.CommandNext,
		KeyLeft:  types.CommandPrevious,
		KeyUp:    types.CommandPrevious,
	}
}

// NewKeymap returns DefaultKeymap when config is empty.
// Same key bound to two commands is an error.
func NewKeymap(c KeymapConfig) (Keymap, error) {
	if len(c.Back)+len(c.Confirm)+len(c.Next)+len(c.Previous) == 0 {
		return DefaultKeymap(), nil
	}
	km := make(Keymap)
	bind := func(keys []int, cmd types.Command) error {
		for _, k := range keys {
			if k < 0 || k > 0xffff {
				return errors.NotValidf("keymap %s key=%d", cmd.String(), k)
			}
			key := types.InputKey(k)
			if existing, ok := km[key]; ok && existing != cmd {
				return errors.NotValidf("keymap key=%d bound to %s and %s", k, existing.String(), cmd.String())
			}
			km[key] = cmd
		}
		return nil
	}
	for _, b := range []struct {
		keys []int
		cmd  types.Command
	}{
		{c.Back, types.CommandBack},
		{c.Confirm, types.CommandConfirm},
		{c.Next, types.CommandNext},
		{c.Previous, types.CommandPrevious},
	} {
		if err := bind(b.keys, b.cmd); err != nil {
			return nil, err
		}
	}
	return km, nil
}

func (km Keymap) Lookup(e types.InputEvent) (types.Command, bool) {
	if e.Up {
		return types.CommandInvalid, false
	}
	cmd, ok := km[e.Key]
	return cmd, ok
}

const CommanderTag = "commander"

// Commander feeds mapped key presses into command queue.
type Commander struct {
	Log    *log2.Log
	Keymap Keymap
	Out    chan<- types.Command
}

// Run blocks until stop or dispatch closes subscription.
func (self *Commander) Run(d *Dispatch, stop <-chan struct{}) {
	ch := d.SubscribeChan(CommanderTag, stop)
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			self.Handle(e, stop)
		case <-stop:
			return
		}
	}
}

// Handle blocks while command queue is full.
func (self *Commander) Handle(e types.InputEvent, stop <-chan struct{}) bool {
	cmd, ok := self.Keymap.Lookup(e)
	if !ok {
		return false
	}
	select {
	case self.Out <- cmd:
		self.Log.Debugf("%s event=%s command=%s", CommanderTag, e.String(), cmd.String())
		return true
	case <-stop:
		return false
	}
}
