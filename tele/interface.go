package tele

import (
	"context"

	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/log2"
	tele_config "github.com/temoto/inkmenu/tele/config"
)

// Teler interface Telemetry client, device side.
// Calls never block on network.
type Teler interface {
	Init(context.Context, *log2.Log, tele_config.Config) error
	Close()
	UIState(UIState)
	Peripheral(types.PeripheralCommand)
	Error(error)
	StatModify(func(*Stat))
	Report(ctx context.Context) error
}

// UIState is published on every menu state change, latest value wins.
type UIState struct {
	Mode  string
	Index int
	Page  string
}
