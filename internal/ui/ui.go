// Package ui is the menu controller: it turns commands into state changes,
// page renders and display commits.
package ui

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/inkmenu/helpers"
	"github.com/temoto/inkmenu/internal/state"
	"github.com/temoto/inkmenu/internal/types"
	ui_config "github.com/temoto/inkmenu/internal/ui/config"
	tele_api "github.com/temoto/inkmenu/tele"
)

// Controller exclusively owns menu state and the previous frame.
// Only the Loop goroutine may call Boot and Handle.
type Controller struct { //nolint:maligned
	g        *state.Global
	config   *ui_config.Config
	renderer types.Renderer
	display  types.DisplayUpdater
	commands <-chan types.Command
	periph   chan<- types.PeripheralCommand

	state State
	// prev is what the panel shows, valid only while synced
	prev   types.Frame
	synced uint32 // atomic bool

	pollTimeout time.Duration
	splashDwell time.Duration

	published atomic.Value // State

	XXX_testHook func(State, Action)
}

// New uses command and peripheral queues of g.
func New(g *state.Global, renderer types.Renderer, display types.DisplayUpdater) *Controller {
	self := &Controller{
		g:        g,
		config:   &g.Config.UI,
		renderer: renderer,
		display:  display,
		commands: g.Commands,
		periph:   g.Peripheral,
		prev:     types.NewFrame(renderer.Geometry()),
	}
	self.pollTimeout = helpers.IntSecondDefault(self.config.PollSec, 0)
	self.splashDwell = helpers.IntMillisecondDefault(self.config.SplashDwellMs, ui_config.DefaultSplashDwellMs*time.Millisecond)
	self.published.Store(self.state)
	return self
}

// NewFromContext takes renderer and display configured in global state.
func NewFromContext(ctx context.Context) (*Controller, error) {
	g := state.GetGlobal(ctx)
	renderer, err := g.Renderer()
	if err != nil {
		return nil, errors.Annotate(err, "ui renderer")
	}
	display, err := g.Display()
	if err != nil {
		return nil, errors.Annotate(err, "ui display")
	}
	return New(g, renderer, display), nil
}

// State is safe to call from any goroutine.
func (self *Controller) State() State { return self.published.Load().(State) }

// Synced reports whether last commit succeeded. Safe to call from any goroutine.
func (self *Controller) Synced() bool { return atomic.LoadUint32(&self.synced) == 1 }

// Boot shows splash, holds it for dwell interval, then shows first menu page.
func (self *Controller) Boot(ctx context.Context) error {
	errs := make([]error, 0, 2)
	errs = append(errs, self.show(ctx, types.PageSplash, types.QualityFull))
	if !helpers.SleepStop(self.splashDwell, self.g.Alive.StopChan()) {
		return helpers.FoldErrors(errs)
	}
	self.state = State{Mode: ModeMainMenu}
	self.publish()
	errs = append(errs, self.show(ctx, self.state.Page(), types.QualityFull))
	return helpers.FoldErrors(errs)
}

// Loop processes commands one at a time until stop or closed command queue.
func (self *Controller) Loop(ctx context.Context) {
	if !self.g.Alive.Add(1) {
		return
	}
	defer self.g.Alive.Done()
	for {
		cmd, kind := self.wait(ctx)
		switch kind {
		case eventCommand:
			self.Handle(ctx, cmd)
		case eventTimeout:
			self.onIdle(ctx)
		case eventStop:
			self.g.Log.Debugf("ui loop end")
			return
		}
	}
}

type eventKind uint8

const (
	eventCommand eventKind = iota
	eventTimeout
	eventStop
)

func (self *Controller) wait(ctx context.Context) (types.Command, eventKind) {
	var timeout <-chan time.Time
	if self.pollTimeout > 0 {
		tmr := time.NewTimer(self.pollTimeout)
		defer tmr.Stop()
		timeout = tmr.C
	}
	select {
	case cmd, ok := <-self.commands:
		if !ok {
			return types.CommandInvalid, eventStop
		}
		return cmd, eventCommand
	case <-timeout:
		return types.CommandInvalid, eventTimeout
	case <-self.g.Alive.StopChan():
		return types.CommandInvalid, eventStop
	case <-ctx.Done():
		return types.CommandInvalid, eventStop
	}
}

// Handle applies one command to completion, including display commit.
func (self *Controller) Handle(ctx context.Context, cmd types.Command) Action {
	self.g.Tele.StatModify(func(s *tele_api.Stat) { s.Commands++ })
	current := self.state
	next, action := Transition(current, cmd)
	self.state = next
	if action.IsNoop() {
		self.g.Log.Debugf("ui state=%s ignore command=%s", current.String(), cmd.String())
	} else {
		self.g.Log.Debugf("ui state=%s command=%s next=%s action=%s", current.String(), cmd.String(), next.String(), action.String())
		if next != current {
			self.publish()
		}
		if action.Peripheral != types.PeripheralInvalid {
			self.forward(action.Peripheral)
		}
		if action.Render != types.PageInvalid {
			_ = self.show(ctx, action.Render, action.Quality)
		}
	}
	if self.XXX_testHook != nil {
		self.XXX_testHook(self.state, action)
	}
	return action
}

// onIdle retries failed commit, state is not changed.
func (self *Controller) onIdle(ctx context.Context) {
	if !self.Synced() {
		self.g.Log.Debugf("ui idle resync page=%s", self.state.Page().String())
		_ = self.show(ctx, self.state.Page(), types.QualityFull)
	}
	if self.XXX_testHook != nil {
		self.XXX_testHook(self.state, Action{})
	}
}

// forward never blocks, full queue drops command.
func (self *Controller) forward(p types.PeripheralCommand) {
	select {
	case self.periph <- p:
		self.g.Tele.StatModify(func(s *tele_api.Stat) { s.PeripheralSent++ })
		self.g.Tele.Peripheral(p)
	default:
		self.g.Tele.StatModify(func(s *tele_api.Stat) { s.PeripheralDropped++ })
		self.g.Log.Debugf("ui peripheral queue full, drop %s", p.String())
	}
}

// show renders page and commits it. Previous frame changes only on success.
// After failed commit the panel content is unknown, so next commit is Full.
func (self *Controller) show(ctx context.Context, page types.Page, q types.Quality) error {
	frame := self.renderer.Render(page)
	if !self.Synced() && q != types.QualityFull {
		self.g.Log.Debugf("ui display out of sync, page=%s quality=%s forced Full", page.String(), q.String())
		q = types.QualityFull
	}
	err := self.display.Commit(ctx, self.prev, frame, q)
	self.g.Tele.StatModify(func(s *tele_api.Stat) {
		switch {
		case err != nil:
			s.CommitError++
		case q == types.QualityFull:
			s.CommitFull++
		default:
			s.CommitPartial++
		}
	})
	if err != nil {
		atomic.StoreUint32(&self.synced, 0)
		self.g.Log.Error(errors.Annotatef(err, "ui show page=%s quality=%s", page.String(), q.String()))
		return err
	}
	self.prev = frame.Clone()
	atomic.StoreUint32(&self.synced, 1)
	return nil
}

func (self *Controller) publish() {
	self.published.Store(self.state)
	self.g.Tele.UIState(tele_api.UIState{
		Mode:  self.state.Mode.String(),
		Index: self.state.Index,
		Page:  self.state.Page().String(),
	})
}
