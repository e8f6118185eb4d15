package epaper

import (
	"context"
	"sync"

	"github.com/juju/errors"
	"github.com/temoto/inkmenu/internal/types"
)

type MockCommit struct {
	Prev    types.Frame
	Next    types.Frame
	Quality types.Quality
}

// Mock records commits. Set Fail to inject commit errors.
type Mock struct {
	Fail func(n int, q types.Quality) error

	mu      sync.Mutex
	geom    types.Geometry
	commits []MockCommit
	panel   types.Frame
}

var _ types.DisplayUpdater = &Mock{} // compile-time interface test

func NewMock(g types.Geometry) *Mock {
	return &Mock{geom: g, panel: types.NewFrame(g)}
}

func (m *Mock) Commit(ctx context.Context, prev, next types.Frame, q types.Quality) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.commits)
	m.commits = append(m.commits, MockCommit{Prev: prev.Clone(), Next: next.Clone(), Quality: q})
	if m.Fail != nil {
		if err := m.Fail(n, q); err != nil {
			return errors.Annotatef(err, "mock commit n=%d", n)
		}
	}
	m.panel = next.Clone()
	return nil
}

func (m *Mock) Commits() []MockCommit {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCommit, len(m.commits))
	copy(out, m.commits)
	return out
}

func (m *Mock) Last() (MockCommit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.commits) == 0 {
		return MockCommit{}, false
	}
	return m.commits[len(m.commits)-1], true
}

// Panel returns last successfully committed frame.
func (m *Mock) Panel() types.Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.panel.Clone()
}

func (m *Mock) Reset() {
	m.mu.Lock()
	m.commits = nil
	m.mu.Unlock()
}
