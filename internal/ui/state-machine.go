package ui

import (
	"fmt"

	"github.com/temoto/inkmenu/internal/types"
)

type Mode uint8

const (
	ModeMainMenu Mode = iota
	ModeBrightness
)

func (m Mode) String() string {
	switch m {
	case ModeMainMenu:
		return "MainMenu"
	case ModeBrightness:
		return "BrightnessSubmenu"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// MainMenu defines display order and meaning of Confirm for each entry.
var MainMenu = [...]types.Page{
	types.PageLedOn,
	types.PageLedOff,
	types.PageBrightness,
}

const PageCount = len(MainMenu)

// State is the whole UI model.
// Index selects MainMenu entry; in ModeBrightness it is the entry to return to.
type State struct {
	Mode  Mode
	Index int
}

func (s State) String() string { return fmt.Sprintf("%s(%d)", s.Mode.String(), s.Index) }

// Page to show for this state.
func (s State) Page() types.Page {
	if s.Mode == ModeBrightness {
		return types.PageInstructions
	}
	return MainMenu[wrapIndex(s.Index)]
}

// Action is the side effect of one transition.
// Zero value does nothing.
type Action struct {
	Render     types.Page
	Quality    types.Quality
	Peripheral types.PeripheralCommand
}

func (a Action) IsNoop() bool {
	return a.Render == types.PageInvalid && a.Peripheral == types.PeripheralInvalid
}

func (a Action) String() string {
	if a.IsNoop() {
		return "noop"
	}
	s := ""
	if a.Render != types.PageInvalid {
		s = fmt.Sprintf("render=%s quality=%s", a.Render.String(), a.Quality.String())
	}
	if a.Peripheral != types.PeripheralInvalid {
		if s != "" {
			s += " "
		}
		s += "peripheral=" + a.Peripheral.String()
	}
	return s
}

// Transition is total: every (state, command) pair is defined,
// unknown commands leave state unchanged with no action.
func Transition(s State, c types.Command) (State, Action) {
	s.Index = wrapIndex(s.Index)
	switch s.Mode {
	case ModeMainMenu:
		switch c {
		case types.CommandConfirm:
			switch MainMenu[s.Index] {
			case types.PageLedOn:
				return s, Action{Peripheral: types.PeripheralLedOn}
			case types.PageLedOff:
				return s, Action{Peripheral: types.PeripheralLedOff}
			case types.PageBrightness:
				next := State{Mode: ModeBrightness, Index: s.Index}
				return next, Action{Render: next.Page(), Quality: types.QualityFull}
			}

		case types.CommandNext:
			s.Index = wrapIndex(s.Index + 1)
			return s, Action{Render: s.Page(), Quality: types.QualityPartial}

		case types.CommandPrevious:
			s.Index = wrapIndex(s.Index + PageCount - 1)
			return s, Action{Render: s.Page(), Quality: types.QualityPartial}
		}

	case ModeBrightness:
		if c == types.CommandBack {
			next := State{Mode: ModeMainMenu, Index: s.Index}
			return next, Action{Render: next.Page(), Quality: types.QualityFull}
		}
	}
	return s, Action{}
}

func wrapIndex(i int) int {
	i %= PageCount
	if i < 0 {
		i += PageCount
	}
	return i
}
