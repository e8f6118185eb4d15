package input

import (
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/log2"
)

func TestNewKeymap(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		config KeymapConfig
		expect Keymap
		err    bool
	}
	cases := []Case{
		{"empty-default", KeymapConfig{}, DefaultKeymap(), false},
		{"custom", KeymapConfig{Back: []int{14}, Confirm: []int{57, 28}, Next: []int{108}, Previous: []int{103}},
			Keymap{14: types.CommandBack, 57: types.CommandConfirm, 28: types.CommandConfirm, 108: types.CommandNext, 103: types.CommandPrevious}, false},
		{"partial", KeymapConfig{Next: []int{2}}, Keymap{2: types.CommandNext}, false},
		{"conflict", KeymapConfig{Back: []int{1}, Next: []int{1}}, nil, true},
		{"range", KeymapConfig{Back: []int{-1}}, nil, true},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			km, err := NewKeymap(c.config)
			if c.err {
				assert.True(t, errors.IsNotValid(err), "err=%v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.expect, km)
		})
	}
}

func TestKeymapLookup(t *testing.T) {
	t.Parallel()

	km := DefaultKeymap()
	cmd, ok := km.Lookup(types.InputEvent{Key: KeyRight})
	assert.True(t, ok)
	assert.Equal(t, types.CommandNext, cmd)
	_, ok = km.Lookup(types.InputEvent{Key: KeyRight, Up: true})
	assert.False(t, ok, "release must not map")
	_, ok = km.Lookup(types.InputEvent{Key: 200})
	assert.False(t, ok)
}

func TestCommander(t *testing.T) {
	t.Parallel()

	stop := make(chan struct{})
	defer close(stop)
	d := NewDispatch(log2.NewTest(t, log2.LDebug), stop)
	out := make(chan types.Command, 4)
	c := &Commander{Log: log2.NewTest(t, log2.LDebug), Keymap: DefaultKeymap(), Out: out}
	src := &sliceSource{events: []types.InputEvent{
		{Key: KeyRight},
		{Key: KeyRight, Up: true},
		{Key: 200},
		{Key: KeyEnter},
		{Key: KeyEsc},
	}}
	ready := make(chan struct{})
	go func() {
		// subscribe before sources start emitting
		ch := d.SubscribeChan(CommanderTag, stop)
		close(ready)
		for e := range ch {
			c.Handle(e, stop)
		}
	}()
	<-ready
	go d.Run([]Source{src})

	for _, expect := range []types.Command{types.CommandNext, types.CommandConfirm, types.CommandBack} {
		select {
		case cmd := <-out:
			assert.Equal(t, expect, cmd)
		case <-time.After(5 * time.Second):
			require.Fail(t, "timeout waiting for command")
		}
	}
}

func TestCommanderHandleStop(t *testing.T) {
	t.Parallel()

	stop := make(chan struct{})
	close(stop)
	c := &Commander{Keymap: DefaultKeymap(), Out: make(chan types.Command)}
	assert.False(t, c.Handle(types.InputEvent{Key: KeyEnter}, stop), "full queue and stop must not block")
}
