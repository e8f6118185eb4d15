// Development console: menu commands from keyboard, frames printed to terminal.
package console

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/inkmenu/cmd/inkmenu/subcmd"
	"github.com/temoto/inkmenu/hardware/epaper"
	"github.com/temoto/inkmenu/helpers/cli"
	"github.com/temoto/inkmenu/internal/state"
	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/internal/ui"
)

const modName = "console"

var Mod = subcmd.Mod{Name: modName, Usage: "menu on terminal preview, commands from stdin", Main: Main}

const usage = `commands:
- next, prev       move selection
- ok, back         confirm, leave submenu
- status           show menu state
- quit             stop and exit
`

var suggests = []prompt.Suggest{
	{Text: "next", Description: "select next entry"},
	{Text: "prev", Description: "select previous entry"},
	{Text: "ok", Description: "confirm selected entry"},
	{Text: "back", Description: "leave brightness submenu"},
	{Text: "status", Description: "show menu state"},
	{Text: "help"},
	{Text: "quit"},
}

func Main(ctx context.Context, config *state.Config) error {
	g := state.GetGlobal(ctx)
	config.Hardware.Display.Driver = epaper.DriverPreview
	config.Hardware.Input.DevInputEvent.Enable = false
	config.Hardware.Input.GpioButtons = nil
	g.MustInit(ctx, config)

	l, err := g.Led()
	if err != nil {
		return errors.Annotate(err, "led init")
	}
	controller, err := ui.NewFromContext(ctx)
	if err != nil {
		return errors.Annotate(err, "ui init")
	}
	go l.Run(g.Peripheral, g.Alive.StopChan())
	go subcmd.ReportLoop(ctx)
	subcmd.BootUI(ctx, controller)
	go controller.Loop(ctx)

	c := newConsole(g, controller)
	c.exit = func() {
		shutdown(g)
		os.Exit(0)
	}
	cli.MainLoop(modName, g.Log, c.exit, c.exec, c.complete)
	shutdown(g)
	return nil
}

func shutdown(g *state.Global) {
	g.StopWait(5 * time.Second)
	g.Close()
}

type console struct {
	g          *state.Global
	controller *ui.Controller
	exit       func()
}

func newConsole(g *state.Global, controller *ui.Controller) *console {
	return &console{g: g, controller: controller}
}

func (self *console) complete(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}

func (self *console) exec(line string) {
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "":
		return
	case "help", "?":
		self.g.Log.Infof(usage)
		return
	case "status":
		self.g.Log.Infof("state=%s page=%s", self.controller.State().String(), self.controller.State().Page().String())
		return
	case "quit", "exit":
		self.exit()
		return
	}

	cmd, ok := types.ParseCommand(line)
	if !ok {
		self.g.Log.Infof("unknown command=%s, try help", line)
		return
	}
	select {
	case self.g.Commands <- cmd:
	case <-self.g.Alive.StopChan():
	}
}
