package types

import "fmt"

// Command is a discrete UI event consumed by the menu controller.
// Produced by input mapping, see hardware/input.
type Command uint8

const (
	CommandInvalid Command = iota
	CommandConfirm
	CommandBack
	CommandNext
	CommandPrevious
)

func (c Command) String() string {
	switch c {
	case CommandInvalid:
		return "Invalid"
	case CommandConfirm:
		return "Confirm"
	case CommandBack:
		return "Back"
	case CommandNext:
		return "Next"
	case CommandPrevious:
		return "Previous"
	}
	return fmt.Sprintf("Command(%d)", uint8(c))
}

func ParseCommand(s string) (Command, bool) {
	switch s {
	case "confirm", "ok", "enter":
		return CommandConfirm, true
	case "back", "esc":
		return CommandBack, true
	case "next", "right", "n":
		return CommandNext, true
	case "previous", "prev", "left", "p":
		return CommandPrevious, true
	}
	return CommandInvalid, false
}

// PeripheralCommand is forwarded by the controller, fire-and-forget.
type PeripheralCommand uint8

const (
	PeripheralInvalid PeripheralCommand = iota
	PeripheralLedOn
	PeripheralLedOff
)

func (p PeripheralCommand) String() string {
	switch p {
	case PeripheralInvalid:
		return "Invalid"
	case PeripheralLedOn:
		return "LedOn"
	case PeripheralLedOff:
		return "LedOff"
	}
	return fmt.Sprintf("PeripheralCommand(%d)", uint8(p))
}

type InputKey uint16

// InputEvent is a raw key or button signal, before mapping to Command.
type InputEvent struct {
	Source string
	Key    InputKey
	Up     bool
}

func (e *InputEvent) IsZero() bool { return e.Key == 0 }

func (e InputEvent) String() string {
	return fmt.Sprintf("InputEvent(source=%s key=%d up=%t)", e.Source, e.Key, e.Up)
}
