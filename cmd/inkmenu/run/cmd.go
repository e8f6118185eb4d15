// Production mode: panel, buttons and LED, runs until signal.
package run

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/inkmenu/cmd/inkmenu/subcmd"
	"github.com/temoto/inkmenu/internal/state"
	"github.com/temoto/inkmenu/internal/ui"
)

var Mod = subcmd.Mod{Name: "run", Usage: "menu controller on real hardware (default)", Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, config)
	g.Log.Debugf("config=%+v", g.Config)

	l, err := g.Led()
	if err != nil {
		return errors.Annotate(err, "led init")
	}
	controller, err := ui.NewFromContext(ctx)
	if err != nil {
		return errors.Annotate(err, "ui init")
	}

	subcmd.StopOnSignal(g)
	go l.Run(g.Peripheral, g.Alive.StopChan())
	go subcmd.ReportLoop(ctx)

	subcmd.BootUI(ctx, controller)
	subcmd.SdNotify(g.Log, daemon.SdNotifyReady)
	g.Log.Debugf("inkmenu init complete, running")

	controller.Loop(ctx)

	subcmd.SdNotify(g.Log, daemon.SdNotifyStopping)
	if !g.StopWait(5 * time.Second) {
		g.Log.Infof("stop timeout, closing anyway")
	}
	g.Close()
	return nil
}
