package ui

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/temoto/inkmenu/helpers"
	"github.com/temoto/inkmenu/internal/types"
)

var allCommands = []types.Command{
	types.CommandConfirm,
	types.CommandBack,
	types.CommandNext,
	types.CommandPrevious,
}

func TestTransitionTable(t *testing.T) {
	t.Parallel()

	main := func(i int) State { return State{Mode: ModeMainMenu, Index: i} }
	bright := func(i int) State { return State{Mode: ModeBrightness, Index: i} }
	render := func(p types.Page, q types.Quality) Action { return Action{Render: p, Quality: q} }
	type Case struct {
		from   State
		cmd    types.Command
		to     State
		action Action
	}
	cases := []Case{
		{main(0), types.CommandBack, main(0), Action{}},
		{main(0), types.CommandConfirm, main(0), Action{Peripheral: types.PeripheralLedOn}},
		{main(1), types.CommandConfirm, main(1), Action{Peripheral: types.PeripheralLedOff}},
		{main(2), types.CommandConfirm, bright(2), render(types.PageInstructions, types.QualityFull)},
		{main(0), types.CommandNext, main(1), render(types.PageLedOff, types.QualityPartial)},
		{main(2), types.CommandNext, main(0), render(types.PageLedOn, types.QualityPartial)},
		{main(0), types.CommandPrevious, main(2), render(types.PageBrightness, types.QualityPartial)},
		{main(1), types.CommandPrevious, main(0), render(types.PageLedOn, types.QualityPartial)},
		{bright(2), types.CommandBack, main(2), render(types.PageBrightness, types.QualityFull)},
		{bright(2), types.CommandConfirm, bright(2), Action{}},
		{bright(2), types.CommandNext, bright(2), Action{}},
		{bright(2), types.CommandPrevious, bright(2), Action{}},
		{main(1), types.CommandInvalid, main(1), Action{}},
		{main(1), types.Command(200), main(1), Action{}},
		{bright(0), types.Command(200), bright(0), Action{}},
		// out of range index is normalized
		{main(4), types.CommandNext, main(2), render(types.PageBrightness, types.QualityPartial)},
		{main(-1), types.CommandConfirm, bright(2), render(types.PageInstructions, types.QualityFull)},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("%s/%s", c.from.String(), c.cmd.String()), func(t *testing.T) {
			to, action := Transition(c.from, c.cmd)
			assert.Equal(t, c.to, to)
			assert.Equal(t, c.action, action)
		})
	}
}

func TestNextPreviousInverse(t *testing.T) {
	t.Parallel()

	for i := 0; i < PageCount; i++ {
		s := State{Mode: ModeMainMenu, Index: i}
		a, _ := Transition(s, types.CommandNext)
		b, _ := Transition(a, types.CommandPrevious)
		assert.Equal(t, s, b, "next,previous from %d", i)
		a, _ = Transition(s, types.CommandPrevious)
		b, _ = Transition(a, types.CommandNext)
		assert.Equal(t, s, b, "previous,next from %d", i)
	}
}

func TestIndexAlwaysValid(t *testing.T) {
	t.Parallel()

	rnd := helpers.RandUnix(t)
	s := State{}
	for i := 0; i < 10000; i++ {
		cmd := types.Command(rnd.Intn(len(allCommands) + 2))
		s, _ = Transition(s, cmd)
		if s.Index < 0 || s.Index >= PageCount {
			t.Fatalf("step=%d cmd=%s state=%s index out of range", i, cmd.String(), s.String())
		}
	}
}

func TestBrightnessRoundTrip(t *testing.T) {
	t.Parallel()

	// reach brightness entry from every start index, enter and leave
	for i := 0; i < PageCount; i++ {
		s := State{Mode: ModeMainMenu, Index: i}
		for s.Page() != types.PageBrightness {
			s, _ = Transition(s, types.CommandNext)
		}
		before := s.Index
		s, _ = Transition(s, types.CommandConfirm)
		assert.Equal(t, ModeBrightness, s.Mode)
		assert.Equal(t, types.PageInstructions, s.Page())
		s, _ = Transition(s, types.CommandBack)
		assert.Equal(t, State{Mode: ModeMainMenu, Index: before}, s)
	}
}

func TestBrightnessIgnoresAllButBack(t *testing.T) {
	t.Parallel()

	for i := 0; i < PageCount; i++ {
		s := State{Mode: ModeBrightness, Index: i}
		for _, cmd := range allCommands {
			if cmd == types.CommandBack {
				continue
			}
			to, action := Transition(s, cmd)
			assert.Equal(t, s, to)
			assert.True(t, action.IsNoop(), action.String())
		}
	}
}

func TestActionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "noop", Action{}.String())
	assert.Equal(t, "peripheral=LedOn", Action{Peripheral: types.PeripheralLedOn}.String())
	assert.Equal(t, "render=Instructions quality=Full", Action{Render: types.PageInstructions}.String())
	assert.Equal(t, "BrightnessSubmenu(2)", State{Mode: ModeBrightness, Index: 2}.String())
}
