package input

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/log2"
)

type sliceSource struct {
	mu     sync.Mutex
	events []types.InputEvent
}

func (s *sliceSource) String() string { return "slice" }
func (s *sliceSource) Read() (types.InputEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return types.InputEvent{}, io.EOF
	}
	e := s.events[0]
	s.events = s.events[1:]
	return e, nil
}

func TestDispatchDoubleSubscribe(t *testing.T) {
	t.Parallel()

	log := log2.NewTest(t, log2.LDebug)
	dstop := make(chan struct{})
	d := NewDispatch(log, dstop)

	go func() {
		sub1stop := make(chan struct{})
		d.SubscribeChan("name", sub1stop)
		close(sub1stop)
		sub2stop := make(chan struct{})
		d.SubscribeChan("name", sub2stop)
		close(dstop)
	}()

	d.Run(nil)
}

func TestDispatchDuplicateSubscribePanics(t *testing.T) {
	t.Parallel()

	d := NewDispatch(log2.NewTest(t, log2.LDebug), make(chan struct{}))
	d.SubscribeFunc("name", func(types.InputEvent) {}, make(chan struct{}))
	assert.Panics(t, func() { d.SubscribeFunc("name", func(types.InputEvent) {}, make(chan struct{})) })
	d.Unsubscribe("name")
	assert.Panics(t, func() { d.Unsubscribe("name") })
}

func TestDispatchSources(t *testing.T) {
	t.Parallel()

	stop := make(chan struct{})
	defer close(stop)
	d := NewDispatch(log2.NewTest(t, log2.LDebug), stop)
	src := &sliceSource{events: []types.InputEvent{
		{Source: "slice", Key: KeyEnter},
		{Source: "slice", Key: KeyEnter, Up: true},
	}}
	inch := d.SubscribeChan("consumer", stop)
	go d.Run([]Source{src})

	for _, expect := range []types.InputEvent{
		{Source: "slice", Key: KeyEnter},
		{Source: "slice", Key: KeyEnter, Up: true},
	} {
		select {
		case e := <-inch:
			assert.Equal(t, expect, e)
		case <-time.After(5 * time.Second):
			require.Fail(t, "timeout waiting for event")
		}
	}
}
