package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/temoto/inkmenu/cmd/inkmenu/console"
	"github.com/temoto/inkmenu/cmd/inkmenu/run"
	"github.com/temoto/inkmenu/cmd/inkmenu/subcmd"
	"github.com/temoto/inkmenu/internal/state"
	"github.com/temoto/inkmenu/internal/tele"
	"github.com/temoto/inkmenu/log2"
)

var log = log2.NewStderr(log2.LDebug)

var modules = []subcmd.Mod{
	run.Mod,
	console.Mod,
}

var BuildVersion string = "unknown" // set by ldflags -X

func main() {
	flagset := flag.NewFlagSet("inkmenu", flag.ContinueOnError)
	flagConfig := flagset.String("config", "inkmenu.hcl", "")
	flagset.Usage = func() {
		fmt.Fprintf(flagset.Output(), "Usage: inkmenu [-config=inkmenu.hcl] [command]\n\nCommands:\n")
		for _, m := range modules {
			fmt.Fprintf(flagset.Output(), "  %-10s %s\n", m.Name, m.Usage)
		}
		flagset.PrintDefaults()
	}
	if err := flagset.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return
		}
		log.Fatal(err)
	}

	command := flagset.Arg(0)
	if command == "" {
		command = run.Mod.Name
	}
	mod, err := subcmd.Parse(command, modules)
	if err != nil {
		flagset.Usage()
		log.Fatal(err)
	}

	if subcmd.SdNotify(log, "start") {
		// under systemd assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	log.Infof("inkmenu version=%s starting command=%s", BuildVersion, mod.Name)

	ctx, g := state.NewContext(log, tele.New())
	g.BuildVersion = BuildVersion
	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)

	if err := mod.Main(ctx, config); err != nil {
		g.Fatal(err)
	}
	log.Infof("inkmenu command=%s finished", mod.Name)
}
