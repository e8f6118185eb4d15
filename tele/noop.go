package tele

import (
	"context"

	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/log2"
	tele_config "github.com/temoto/inkmenu/tele/config"
)

type Noop struct{}

var _ Teler = Noop{} // compile-time interface test

func (Noop) Init(context.Context, *log2.Log, tele_config.Config) error { return nil }

func (Noop) Close() {}

func (Noop) Error(error) {}

func (Noop) UIState(UIState) {}

func (Noop) Peripheral(types.PeripheralCommand) {}

func (Noop) StatModify(func(*Stat)) {}

func (Noop) Report(ctx context.Context) error { return nil }
