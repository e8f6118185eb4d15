package input

import (
	"io"
	"os"

	"github.com/juju/errors"
	"github.com/temoto/inputevent-go"
	"github.com/temoto/inkmenu/internal/types"
)

const DevInputEventTag = "dev-input-event"

type DevInputEventConfig struct {
	Enable bool   `hcl:"enable"`
	Device string `hcl:"device"`
}

// DevInputEventSource reads kernel evdev key events, repeats are skipped.
type DevInputEventSource struct {
	f io.ReadCloser
}

// compile-time interface compliance test
var _ Source = new(DevInputEventSource)

func (self *DevInputEventSource) String() string { return DevInputEventTag }

func NewDevInputEventSource(device string) (*DevInputEventSource, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, errors.Annotatef(err, "%s open", DevInputEventTag)
	}
	return &DevInputEventSource{f: f}, nil
}

func NewDevInputEventReader(r io.ReadCloser) *DevInputEventSource {
	return &DevInputEventSource{f: r}
}

func (self *DevInputEventSource) Close() error { return self.f.Close() }

func (self *DevInputEventSource) Read() (types.InputEvent, error) {
	for {
		ie, err := inputevent.ReadOne(self.f)
		if err != nil {
			return types.InputEvent{}, err
		}
		if ie.Type != inputevent.EV_KEY {
			continue
		}
		switch ie.Value {
		case int32(inputevent.KeyStateDown), int32(inputevent.KeyStateUp):
			return types.InputEvent{
				Source: DevInputEventTag,
				Key:    types.InputKey(ie.Code),
				Up:     ie.Value == int32(inputevent.KeyStateUp),
			}, nil
		}
	}
}
