package input

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gpio "github.com/temoto/gpio-cdev-go"
	gpio_mock "github.com/temoto/gpio-cdev-go/mock"
	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inputevent-go"
)

func TestGpioButtonSource(t *testing.T) {
	t.Parallel()

	ev := &gpio_mock.MockEvent{}
	chip := &gpio_mock.MockChip{}
	chip.On("GetLineEvent", uint32(5), gpio.RequestFlag(0), gpio.GPIOEVENT_REQUEST_BOTH_EDGES, "inkmenu-btn0").Return(ev, nil)
	const ms = uint64(1000000)
	for _, e := range []struct {
		data gpio.EventData
		err  error
	}{
		{gpio.EventData{}, gpio.ErrTimeout},
		{gpio.EventData{Timestamp: 1 * ms, ID: gpio.GPIOEVENT_EVENT_RISING_EDGE}, nil},
		{gpio.EventData{Timestamp: 2 * ms, ID: gpio.GPIOEVENT_EVENT_RISING_EDGE}, nil},  // same level
		{gpio.EventData{Timestamp: 3 * ms, ID: gpio.GPIOEVENT_EVENT_FALLING_EDGE}, nil}, // bounce
		{gpio.EventData{Timestamp: 4 * ms, ID: 0}, nil},
		{gpio.EventData{Timestamp: 10 * ms, ID: gpio.GPIOEVENT_EVENT_FALLING_EDGE}, nil},
		{gpio.EventData{}, fmt.Errorf("chip gone")},
	} {
		ev.On("Wait", gpioButtonWait).Return(e.data, e.err).Once()
	}

	src, err := NewGpioButtonSource(chip, &GpioButtonConfig{Name: "btn0", Line: 5, Key: int(KeyEnter), DebounceMs: 5}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gpio-button/btn0", src.String())

	e, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, types.InputEvent{Source: "gpio-button/btn0", Key: KeyEnter}, e)
	e, err = src.Read()
	require.NoError(t, err)
	assert.Equal(t, types.InputEvent{Source: "gpio-button/btn0", Key: KeyEnter, Up: true}, e)
	_, err = src.Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chip gone")
	ev.AssertExpectations(t)
	chip.AssertExpectations(t)
}

func TestGpioButtonActiveLow(t *testing.T) {
	t.Parallel()

	src := &GpioButtonSource{name: "b", key: KeyEsc, activeLow: true}
	e, ok := src.edge(gpio.EventData{ID: gpio.GPIOEVENT_EVENT_FALLING_EDGE})
	require.True(t, ok)
	assert.False(t, e.Up)
	e, ok = src.edge(gpio.EventData{Timestamp: 1, ID: gpio.GPIOEVENT_EVENT_RISING_EDGE})
	require.True(t, ok)
	assert.True(t, e.Up)
}

func TestGpioButtonStop(t *testing.T) {
	t.Parallel()

	stop := make(chan struct{})
	close(stop)
	src := &GpioButtonSource{name: "b", ev: &gpio_mock.MockEvent{}, stop: stop}
	_, err := src.Read()
	assert.Error(t, err)
}

type readCloser struct{ b []byte }

func (r *readCloser) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, fmt.Errorf("EOF")
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}
func (r *readCloser) Close() error { return nil }

func TestDevInputEventSource(t *testing.T) {
	t.Parallel()

	raw := []byte{}
	for _, ie := range []inputevent.InputEvent{
		{Type: 4, Code: 4, Value: 28}, // EV_MSC scan
		{Type: uint16(inputevent.EV_KEY), Code: uint16(KeyLeft), Value: int32(inputevent.KeyStateDown)},
		{Type: uint16(inputevent.EV_KEY), Code: uint16(KeyLeft), Value: int32(inputevent.KeyStateHold)},
		{Type: uint16(inputevent.EV_KEY), Code: uint16(KeyLeft), Value: int32(inputevent.KeyStateUp)},
	} {
		ie := ie
		raw = append(raw, (*[inputevent.EventSizeof]byte)(unsafe.Pointer(&ie))[:]...)
	}
	src := NewDevInputEventReader(&readCloser{b: raw})

	e, err := src.Read()
	require.NoError(t, err)
	assert.Equal(t, types.InputEvent{Source: DevInputEventTag, Key: KeyLeft}, e)
	e, err = src.Read()
	require.NoError(t, err)
	assert.Equal(t, types.InputEvent{Source: DevInputEventTag, Key: KeyLeft, Up: true}, e)
	_, err = src.Read()
	assert.Error(t, err)
}
