// Support sub-commands in inkmenu application.
// It's simple but fine so far.
package subcmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/inkmenu/helpers"
	"github.com/temoto/inkmenu/internal/state"
	"github.com/temoto/inkmenu/internal/ui"
	"github.com/temoto/inkmenu/log2"
)

type Mod struct {
	Name  string
	Usage string
	Main  func(context.Context, *state.Config) error
}

func Parse(command string, modules []Mod) (*Mod, error) {
	if command == "" {
		return nil, fmt.Errorf("empty command")
	}

	var found *Mod
	for i := range modules {
		m := &modules[i]
		if m.Name == "" {
			panic(fmt.Sprintf("code error Name='' module=%#v", m))
		}
		if command == m.Name {
			found = m
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("unknown command='%s'", command)
	}
	return found, nil
}

// SdNotify returns true when running under systemd.
func SdNotify(log *log2.Log, s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}

// StopOnSignal stops global lifecycle on first termination signal.
func StopOnSignal(g *state.Global) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		select {
		case s := <-signalCh:
			g.Log.Infof("signal=%s stopping", s.String())
			g.Stop()
		case <-g.Alive.StopChan():
		}
		signal.Stop(signalCh)
	}()
}

// ReportLoop sends periodic telemetry reports until stop.
func ReportLoop(ctx context.Context) {
	g := state.GetGlobal(ctx)
	interval := g.Config.Tele.ReportInterval()
	if interval == 0 {
		return
	}
	stopCh := g.Alive.StopChan()
	for helpers.SleepStop(interval, stopCh) {
		if err := g.Tele.Report(ctx); err != nil {
			// not g.Error, it would report again into failing telemetry
			g.Log.Infof("tele report err=%v", err)
		}
	}
}

// BootUI shows splash and first page. Failure is logged, not fatal:
// display stays out of sync and next commit is Full.
func BootUI(ctx context.Context, controller *ui.Controller) bool {
	g := state.GetGlobal(ctx)
	if err := controller.Boot(ctx); err != nil {
		g.Log.Infof("boot display out of sync, first command will commit Full err=%v", err)
		return false
	}
	return true
}
