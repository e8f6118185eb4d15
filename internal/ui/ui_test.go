package ui_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/inkmenu/hardware/epaper"
	"github.com/temoto/inkmenu/internal/state"
	"github.com/temoto/inkmenu/internal/types"
	"github.com/temoto/inkmenu/internal/ui"
)

var testGeometry = types.Geometry{Width: 16, Height: 8}

// pageRenderer marks page id as black pixel, counts calls
type pageRenderer struct {
	mu    sync.Mutex
	calls []types.Page
}

func (r *pageRenderer) Geometry() types.Geometry { return testGeometry }
func (r *pageRenderer) Render(p types.Page) types.Frame {
	r.mu.Lock()
	r.calls = append(r.calls, p)
	r.mu.Unlock()
	f := types.NewFrame(testGeometry)
	f.SetBlack(testGeometry, int(p), 0, true)
	return f
}
func (r *pageRenderer) Calls() []types.Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Page(nil), r.calls...)
}

type tenv struct {
	ctx      context.Context
	g        *state.Global
	renderer *pageRenderer
	display  *epaper.Mock
	ui       *ui.Controller
}

func newEnv(t testing.TB, config string) *tenv {
	ctx, g := state.NewTestContext(t, config)
	env := &tenv{ctx: ctx, g: g, renderer: &pageRenderer{}, display: epaper.NewMock(testGeometry)}
	env.ui = ui.New(g, env.renderer, env.display)
	return env
}

// boot without dwell, forget boot commits
func (env *tenv) boot(t testing.TB) {
	require.NoError(t, env.ui.Boot(env.ctx))
	env.forget()
}

func (env *tenv) forget() {
	env.display.Reset()
	env.renderer.mu.Lock()
	env.renderer.calls = nil
	env.renderer.mu.Unlock()
}

// loop runs until test end, idle receives state on each poll timeout
func (env *tenv) loop(t testing.TB) <-chan ui.State {
	idle := make(chan ui.State, 4)
	env.ui.XXX_testHook = func(s ui.State, a ui.Action) {
		if a.IsNoop() {
			select {
			case idle <- s:
			default:
			}
		}
	}
	go env.ui.Loop(env.ctx)
	return idle
}

func pageFrame(p types.Page) types.Frame {
	return (&pageRenderer{}).Render(p)
}

func qualities(cs []epaper.MockCommit) []types.Quality {
	qs := make([]types.Quality, len(cs))
	for i, c := range cs {
		qs[i] = c.Quality
	}
	return qs
}

func TestBoot(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `ui { splash_dwell_ms = 30 }`)
	begin := time.Now()
	require.NoError(t, env.ui.Boot(env.ctx))
	assert.GreaterOrEqual(t, int64(time.Since(begin)), int64(30*time.Millisecond), "splash dwell")

	commits := env.display.Commits()
	require.Len(t, commits, 2)
	assert.Equal(t, []types.Quality{types.QualityFull, types.QualityFull}, qualities(commits))
	assert.Equal(t, pageFrame(types.PageSplash), commits[0].Next)
	assert.Equal(t, pageFrame(types.PageSplash), commits[1].Prev)
	assert.Equal(t, pageFrame(types.PageLedOn), commits[1].Next)
	assert.Equal(t, ui.State{Mode: ui.ModeMainMenu, Index: 0}, env.ui.State())
	assert.True(t, env.ui.Synced())
}

func TestBootStop(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `ui { splash_dwell_ms = 60000 }`)
	env.g.Stop()
	require.NoError(t, env.ui.Boot(env.ctx))
	assert.Len(t, env.display.Commits(), 1, "stop during dwell skips main page")
}

func TestScenarioWrap(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `ui { splash_dwell_ms = -1 }`)
	env.boot(t)

	indexes := []int{}
	for i := 0; i < 3; i++ {
		action := env.ui.Handle(env.ctx, types.CommandNext)
		assert.Equal(t, types.QualityPartial, action.Quality)
		indexes = append(indexes, env.ui.State().Index)
	}
	assert.Equal(t, []int{1, 2, 0}, indexes)
	commits := env.display.Commits()
	assert.Equal(t, []types.Quality{types.QualityPartial, types.QualityPartial, types.QualityPartial}, qualities(commits))
	assert.Equal(t, []types.Page{types.PageLedOff, types.PageBrightness, types.PageLedOn}, env.renderer.Calls())
	// previous frame chain follows committed frames
	assert.Equal(t, pageFrame(types.PageLedOn), commits[0].Prev)
	assert.Equal(t, commits[0].Next, commits[1].Prev)
	assert.Equal(t, commits[1].Next, commits[2].Prev)
}

func TestScenarioBrightness(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `ui { splash_dwell_ms = -1 }`)
	env.boot(t)
	env.ui.Handle(env.ctx, types.CommandPrevious)
	require.Equal(t, 2, env.ui.State().Index)

	env.ui.Handle(env.ctx, types.CommandConfirm)
	assert.Equal(t, ui.State{Mode: ui.ModeBrightness, Index: 2}, env.ui.State())
	last, _ := env.display.Last()
	assert.Equal(t, types.QualityFull, last.Quality)
	assert.Equal(t, pageFrame(types.PageInstructions), last.Next)

	// everything but Back is ignored, no render and no commit
	n := len(env.display.Commits())
	for _, cmd := range []types.Command{types.CommandConfirm, types.CommandNext, types.CommandPrevious, types.Command(99)} {
		action := env.ui.Handle(env.ctx, cmd)
		assert.True(t, action.IsNoop())
		assert.Equal(t, ui.State{Mode: ui.ModeBrightness, Index: 2}, env.ui.State())
	}
	assert.Len(t, env.display.Commits(), n)
	assert.Len(t, env.renderer.Calls(), 2)

	env.ui.Handle(env.ctx, types.CommandBack)
	assert.Equal(t, ui.State{Mode: ui.ModeMainMenu, Index: 2}, env.ui.State())
	last, _ = env.display.Last()
	assert.Equal(t, types.QualityFull, last.Quality)
	assert.Equal(t, pageFrame(types.PageBrightness), last.Next)
	assert.Empty(t, env.g.Peripheral)
}

func TestConfirmLed(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `ui { splash_dwell_ms = -1 }`)
	env.boot(t)

	env.ui.Handle(env.ctx, types.CommandConfirm)
	require.Len(t, env.g.Peripheral, 1)
	assert.Equal(t, types.PeripheralLedOn, <-env.g.Peripheral)
	assert.Equal(t, ui.State{Mode: ui.ModeMainMenu, Index: 0}, env.ui.State())
	assert.Empty(t, env.display.Commits(), "led command must not touch display")
	assert.Empty(t, env.renderer.Calls())

	env.ui.Handle(env.ctx, types.CommandNext)
	env.ui.Handle(env.ctx, types.CommandConfirm)
	require.Len(t, env.g.Peripheral, 1)
	assert.Equal(t, types.PeripheralLedOff, <-env.g.Peripheral)

	// Back in main menu is no-op
	n := len(env.display.Commits())
	env.ui.Handle(env.ctx, types.CommandBack)
	assert.Len(t, env.display.Commits(), n)
}

func TestPeripheralQueueFull(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `ui { splash_dwell_ms = -1 peripheral_queue = 1 }`)
	env.boot(t)
	for i := 0; i < 3; i++ {
		env.ui.Handle(env.ctx, types.CommandConfirm)
	}
	assert.Len(t, env.g.Peripheral, 1, "extra commands dropped without blocking")
}

func TestCommitFailure(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `ui { splash_dwell_ms = -1 }`)
	env.boot(t)
	env.display.Fail = func(n int, q types.Quality) error {
		if n == 0 {
			return fmt.Errorf("spi gone")
		}
		return nil
	}

	env.ui.Handle(env.ctx, types.CommandNext)
	assert.Equal(t, 1, env.ui.State().Index, "state change survives failed commit")
	assert.False(t, env.ui.Synced())
	assert.Equal(t, pageFrame(types.PageLedOn), env.display.Panel())

	// next commit is forced Full, previous frame is last successful one
	env.ui.Handle(env.ctx, types.CommandNext)
	commits := env.display.Commits()
	require.Len(t, commits, 2)
	assert.Equal(t, types.QualityFull, commits[1].Quality)
	assert.Equal(t, pageFrame(types.PageLedOn), commits[1].Prev)
	assert.Equal(t, pageFrame(types.PageBrightness), env.display.Panel())
	assert.True(t, env.ui.Synced())

	env.ui.Handle(env.ctx, types.CommandNext)
	last, _ := env.display.Last()
	assert.Equal(t, types.QualityPartial, last.Quality)
}

func TestLoop(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `ui { splash_dwell_ms = -1 }`)
	env.boot(t)
	handled := make(chan ui.State, 8)
	env.ui.XXX_testHook = func(s ui.State, a ui.Action) { handled <- s }
	done := make(chan struct{})
	go func() {
		env.ui.Loop(env.ctx)
		close(done)
	}()

	env.g.Commands <- types.CommandNext
	env.g.Commands <- types.CommandNext
	for _, expect := range []int{1, 2} {
		select {
		case s := <-handled:
			assert.Equal(t, expect, s.Index)
		case <-time.After(5 * time.Second):
			require.Fail(t, "timeout")
		}
	}

	env.g.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		require.Fail(t, "loop did not stop")
	}
	assert.True(t, env.g.StopWait(time.Second))
}

func TestLoopClosedQueue(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `ui { splash_dwell_ms = -1 }`)
	env.boot(t)
	close(env.g.Commands)
	env.ui.Loop(env.ctx) // must return
	assert.Empty(t, env.display.Commits())
}

func TestIdleResync(t *testing.T) {
	t.Parallel()

	env := newEnv(t, `ui { splash_dwell_ms = -1 poll_sec = 1 }`)
	env.boot(t)
	env.display.Fail = func(n int, q types.Quality) error {
		if n == 0 {
			return fmt.Errorf("busy timeout")
		}
		return nil
	}
	env.ui.Handle(env.ctx, types.CommandPrevious)
	require.False(t, env.ui.Synced())

	idle := env.loop(t)
	defer env.g.Stop()
	select {
	case <-idle:
	case <-time.After(5 * time.Second):
		require.Fail(t, "no idle timeout")
	}
	assert.True(t, env.ui.Synced())
	commits := env.display.Commits()
	require.Len(t, commits, 2)
	assert.Equal(t, types.QualityFull, commits[1].Quality)
	assert.Equal(t, pageFrame(types.PageBrightness), commits[1].Next)
	assert.Equal(t, ui.State{Mode: ui.ModeMainMenu, Index: 2}, env.ui.State(), "resync does not change state")
}

func TestIdleInSync(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		input  []types.Command
		expect ui.State
	}{
		{"main-menu", []types.Command{types.CommandNext}, ui.State{Mode: ui.ModeMainMenu, Index: 1}},
		{"brightness", []types.Command{types.CommandPrevious, types.CommandConfirm}, ui.State{Mode: ui.ModeBrightness, Index: 2}},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			env := newEnv(t, `ui { splash_dwell_ms = -1 poll_sec = 1 }`)
			env.boot(t)
			for _, cmd := range c.input {
				env.ui.Handle(env.ctx, cmd)
			}
			require.Equal(t, c.expect, env.ui.State())
			require.True(t, env.ui.Synced())
			env.forget()

			idle := env.loop(t)
			defer env.g.Stop()
			select {
			case s := <-idle:
				assert.Equal(t, c.expect, s)
			case <-time.After(5 * time.Second):
				require.Fail(t, "no idle timeout")
			}
			assert.Empty(t, env.display.Commits(), "idle in sync must not commit")
			assert.Empty(t, env.renderer.Calls(), "idle in sync must not render")
			assert.Equal(t, c.expect, env.ui.State())
			assert.Empty(t, env.g.Peripheral)
		})
	}
}

func TestNewFromContext(t *testing.T) {
	t.Parallel()

	ctx, g := state.NewTestContext(t, `hardware { display { width = 64 height = 32 } } ui { splash_dwell_ms = -1 }`)
	c, err := ui.NewFromContext(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Boot(ctx))
	m := g.DisplayMock(t)
	require.Len(t, m.Commits(), 2)
	assert.Len(t, m.Panel(), types.Geometry{Width: 64, Height: 32}.FrameSize())
}
