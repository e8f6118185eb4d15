package state

import (
	"context"
	"os"
	"testing"

	"github.com/temoto/inkmenu/hardware/epaper"
	"github.com/temoto/inkmenu/log2"
	tele_api "github.com/temoto/inkmenu/tele"
)

// NewTestContext reads config from string, display driver defaults to mock.
func NewTestContext(t testing.TB, confString string) (context.Context, *Global) {
	fs := NewMockFullReader(map[string]string{
		"test-inline": confString,
	})

	var log *log2.Log
	if os.Getenv("inkmenu_test_log_stderr") == "1" {
		log = log2.NewStderr(log2.LDebug) // useful with panics
	} else {
		log = log2.NewTest(t, log2.LDebug)
	}
	log.SetFlags(log2.LTestFlags)
	ctx, g := NewContext(log, tele_api.Noop{})
	g.BuildVersion = "test"
	config, err := ReadConfig(log, fs, "test-inline")
	if err != nil {
		t.Fatal(err)
	}
	if config.Hardware.Display.Driver == "" {
		config.Hardware.Display.Driver = epaper.DriverMock
	}
	if err := g.Init(ctx, config); err != nil {
		t.Fatal(err)
	}
	return ctx, g
}

// DisplayMock returns mock display of test context.
func (g *Global) DisplayMock(t testing.TB) *epaper.Mock {
	d, err := g.Display()
	if err != nil {
		t.Fatal(err)
	}
	m, ok := d.(*epaper.Mock)
	if !ok {
		t.Fatalf("display=%T expected *epaper.Mock", d)
	}
	return m
}
